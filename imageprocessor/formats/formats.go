// Package formats maps file extensions to the image formats the curator
// indexes. It has no cgo dependencies so the enumerator can use it without
// linking OpenCV.
package formats

import (
	"iter"
	"maps"
	"path/filepath"
	"strings"
)

// FormatType represents a known image format type
type FormatType string

const (
	FormatUnknown FormatType = "unknown"
	FormatJPEG    FormatType = "jpeg"
	FormatPNG     FormatType = "png"
	FormatGIF     FormatType = "gif"
	FormatTIFF    FormatType = "tiff"
	FormatBMP     FormatType = "bmp"
	FormatWEBP    FormatType = "webp"
	FormatHEIC    FormatType = "heic"
	FormatRAW     FormatType = "raw"
	FormatCR2     FormatType = "cr2"
	FormatCR3     FormatType = "cr3"
	FormatNEF     FormatType = "nef"
	FormatARW     FormatType = "arw"
	FormatDNG     FormatType = "dng"
)

var extensions = map[string]FormatType{
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".png":  FormatPNG,
	".gif":  FormatGIF,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
	".webp": FormatWEBP,
	".heic": FormatHEIC,
	".heif": FormatHEIC,

	".cr2": FormatCR2,
	".cr3": FormatCR3,
	".nef": FormatNEF,
	".arw": FormatARW,
	".dng": FormatDNG,
	".raf": FormatRAW,
	".orf": FormatRAW,
	".rw2": FormatRAW,
	".pef": FormatRAW,
	".nrw": FormatRAW,
	".srf": FormatRAW,
}

// All yields every known extension (lowercase, with dot) and its format
func All() iter.Seq2[string, FormatType] {
	return maps.All(extensions)
}

// GetFileFormat returns the format type based on file extension
func GetFileFormat(path string) FormatType {
	format, ok := extensions[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return FormatUnknown
	}
	return format
}

// IsImageFile checks if a file extension belongs to an indexed image format
func IsImageFile(path string) bool {
	return GetFileFormat(path) != FormatUnknown
}

// IsRawFormat checks if a file is in a camera RAW format
func IsRawFormat(path string) bool {
	switch GetFileFormat(path) {
	case FormatRAW, FormatCR2, FormatCR3, FormatNEF, FormatARW, FormatDNG:
		return true
	default:
		return false
	}
}

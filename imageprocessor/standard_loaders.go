package imageprocessor

import (
	"bytes"
	"fmt"
	"os/exec"

	"gocv.io/x/gocv"

	"imagecurator/imageprocessor/formats"
	"imagecurator/logging"
)

// StandardImageLoader handles JPEG, PNG, GIF, BMP, WebP and TIFF
type StandardImageLoader struct {
	BaseImageLoader
}

// NewStandardImageLoader creates a new loader for standard image formats
func NewStandardImageLoader() *StandardImageLoader {
	return &StandardImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []formats.FormatType{
				formats.FormatJPEG,
				formats.FormatPNG,
				formats.FormatGIF,
				formats.FormatBMP,
				formats.FormatWEBP,
				formats.FormatTIFF,
			},
		},
	}
}

// LoadImage reads with OpenCV first and falls back to the Go decoders
func (l *StandardImageLoader) LoadImage(path string) (gocv.Mat, error) {
	if err := checkFileContent(path); err != nil {
		return gocv.NewMat(), err
	}

	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}
	img.Close()

	logging.DebugLog("OpenCV could not read %s, trying Go image decoders", path)
	goImg, err := tryGoImagePackages(path)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("%w: %s: %v", ErrDecodeFailure, path, err)
	}
	return gocvMatFromGoImage(goImg)
}

// RawImageLoader decodes the JPEG preview embedded in camera RAW and HEIC files
type RawImageLoader struct {
	BaseImageLoader
	// PreviewTags are tried in order; the first non-empty preview wins
	PreviewTags []string
}

// NewRawImageLoader creates a preview loader backed by the exiftool binary
func NewRawImageLoader() *RawImageLoader {
	return &RawImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []formats.FormatType{
				formats.FormatRAW, formats.FormatCR2, formats.FormatCR3, formats.FormatNEF,
				formats.FormatARW, formats.FormatDNG, formats.FormatHEIC,
			},
		},
		PreviewTags: []string{"JpgFromRaw", "LargestImagePreview", "PreviewImage", "OtherImage", "ThumbnailImage"},
	}
}

// LoadImage extracts the largest usable embedded preview
func (l *RawImageLoader) LoadImage(path string) (gocv.Mat, error) {
	if err := checkFileContent(path); err != nil {
		return gocv.NewMat(), err
	}
	if !hasExiftool() {
		return gocv.NewMat(), newImageLoadError("exiftool is required for embedded previews", path)
	}

	for _, tag := range l.PreviewTags {
		preview, err := extractPreview(path, tag)
		if err != nil || len(preview) == 0 {
			continue
		}
		img, err := gocv.IMDecode(preview, gocv.IMReadColor)
		if err == nil && !img.Empty() {
			logging.DebugLog("Decoded %s preview from %s", tag, path)
			return img, nil
		}
		img.Close()
	}

	// Some DNGs are plain TIFF containers OpenCV can read directly.
	img := gocv.IMRead(path, gocv.IMReadColor)
	if !img.Empty() {
		return img, nil
	}
	img.Close()
	return gocv.NewMat(), newImageLoadError("no decodable embedded preview", path)
}

// extractPreview runs exiftool -b -<tag> and returns the binary payload
func extractPreview(path, tag string) ([]byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.Command("exiftool", "-b", "-"+tag, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("exiftool -%s: %v: %s", tag, err, stderr.String())
	}
	return stdout.Bytes(), nil
}

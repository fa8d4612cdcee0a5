package imageprocessor

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"imagecurator/imageprocessor/formats"
)

// ErrDecodeFailure marks files that could not be decoded into an image
var ErrDecodeFailure = errors.New("decode failure")

// BaseImageLoader provides common functionality for all image loaders
type BaseImageLoader struct {
	SupportedFormats []formats.FormatType
}

// CanLoad checks if this loader supports the file's format
func (l *BaseImageLoader) CanLoad(path string) bool {
	return slices.Contains(l.SupportedFormats, formats.GetFileFormat(path))
}

// checkFileContent rejects missing and zero-byte files before any decoder sees them
func checkFileContent(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDecodeFailure, err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%w: %s is not a regular file", ErrDecodeFailure, path)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: %s is empty", ErrDecodeFailure, path)
	}
	return nil
}

func newImageLoadError(message, path string) error {
	return fmt.Errorf("%w: %s: %s", ErrDecodeFailure, message, path)
}

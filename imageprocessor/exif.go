package imageprocessor

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/barasher/go-exiftool"
	"github.com/rwcarlsen/goexif/exif"

	"imagecurator/logging"
)

const exifTimeLayout = "2006:01:02 15:04:05"

// ExifReader reads DateTimeOriginal (falling back to DateTime) with goexif.
// It only understands JPEG and TIFF-based containers.
type ExifReader struct{}

// CaptureTime returns the capture time in epoch seconds
func (ExifReader) CaptureTime(path string) (*int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode exif: %w", err)
	}
	t, err := x.DateTime()
	if err != nil {
		return nil, fmt.Errorf("exif date: %w", err)
	}
	return unixSeconds(t), nil
}

// ExiftoolReader asks a long-running exiftool process for the capture time.
// It covers RAW and HEIC files goexif cannot parse.
type ExiftoolReader struct {
	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewExiftoolReader starts the exiftool process
func NewExiftoolReader() (*ExiftoolReader, error) {
	et, err := exiftool.NewExiftool()
	if err != nil {
		return nil, fmt.Errorf("start exiftool: %w", err)
	}
	return &ExiftoolReader{et: et}, nil
}

// CaptureTime returns DateTimeOriginal or CreateDate in epoch seconds
func (r *ExiftoolReader) CaptureTime(path string) (*int64, error) {
	r.mu.Lock()
	infos := r.et.ExtractMetadata(path)
	r.mu.Unlock()

	if len(infos) == 0 {
		return nil, fmt.Errorf("no metadata for %s", path)
	}
	if infos[0].Err != nil {
		return nil, infos[0].Err
	}

	for _, tag := range []string{"DateTimeOriginal", "CreateDate"} {
		value, err := infos[0].GetString(tag)
		if err != nil || value == "" {
			continue
		}
		t, err := parseExifTime(value)
		if err != nil {
			logging.DebugLog("Unparsable %s %q in %s", tag, value, path)
			continue
		}
		return unixSeconds(t), nil
	}
	return nil, nil
}

// Close stops the exiftool process
func (r *ExiftoolReader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.et.Close()
}

// CaptureTimeReader returns a file's capture time in epoch seconds, or nil when unknown
type CaptureTimeReader interface {
	CaptureTime(path string) (*int64, error)
}

// ChainReader tries each reader in order and returns the first capture time found
type ChainReader []CaptureTimeReader

// CaptureTime returns nil with the collected errors when no reader knows the time
func (c ChainReader) CaptureTime(path string) (*int64, error) {
	var errs []error
	for _, reader := range c {
		ts, err := reader.CaptureTime(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if ts != nil {
			return ts, nil
		}
	}
	return nil, errors.Join(errs...)
}

// parseExifTime parses "2006:01:02 15:04:05", ignoring subseconds and zone suffixes
func parseExifTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if len(value) < len(exifTimeLayout) {
		return time.Time{}, fmt.Errorf("short exif time %q", value)
	}
	t, err := time.ParseInLocation(exifTimeLayout, value[:len(exifTimeLayout)], time.Local)
	if err != nil {
		return time.Time{}, err
	}
	if t.Year() < 1800 {
		return time.Time{}, fmt.Errorf("implausible exif time %q", value)
	}
	return t, nil
}

func unixSeconds(t time.Time) *int64 {
	s := t.Unix()
	return &s
}

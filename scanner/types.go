package scanner

import (
	"context"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"imagecurator/types"
)

// Analyzer turns one file into fingerprint and quality metrics
type Analyzer interface {
	Analyze(ctx context.Context, path string) (types.Analysis, error)
}

// CaptureTimeReader returns a file's capture time in epoch seconds, or nil when unknown
type CaptureTimeReader interface {
	CaptureTime(path string) (*int64, error)
}

// Options tunes an ingestion run
type Options struct {
	Workers        int           // parallel analyses, at least 1
	BatchSize      int           // rows per catalog transaction
	AnalyzeTimeout time.Duration // per-file budget; 0 means no limit
	ShowProgress   bool          // draw a progress bar when stdout is a terminal
}

// Report aggregates one ingestion run
type Report struct {
	Candidates     int
	AlreadyIndexed int
	Indexed        int
	Skipped        int
	Failed         int
	RawFiles       int // camera RAW files analyzed, successful or not
	RawFailed      int
	Duration       time.Duration
}

// TrackerCounts is a snapshot of a ProgressTracker
type TrackerCounts struct {
	Processed int
	Failed    int
	RawFiles  int
	RawFailed int
}

// ProcessImageResult holds the result of analyzing one file
type ProcessImageResult struct {
	Path    string
	Success bool
	Error   error
	IsRaw   bool
}

// ProgressTracker counts analyzed files and drives the optional progress bar
type ProgressTracker struct {
	processed  int
	errors     int
	rawFiles   int
	rawErrors  int
	totalFiles int
	bar        *progressbar.ProgressBar
	mu         sync.Mutex
}

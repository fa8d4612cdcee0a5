package scanner

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"

	"imagecurator/logging"
)

// NewProgressTracker prepares a tracker for total files. The bar is only
// drawn when show is set and stdout is a terminal.
func NewProgressTracker(total int, show bool) *ProgressTracker {
	tracker := &ProgressTracker{totalFiles: total}
	if show && stdoutIsTerminal() && total > 0 {
		tracker.bar = progressbar.NewOptions(total,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription("Analyzing images"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetPredictTime(true),
			progressbar.OptionFullWidth(),
		)
	}
	return tracker
}

func stdoutIsTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Record updates the counters with one result. Safe for concurrent use.
func (p *ProgressTracker) Record(result ProcessImageResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processed++
	if result.IsRaw {
		p.rawFiles++
	}
	if !result.Success {
		p.errors++
		if result.IsRaw {
			p.rawErrors++
		}
		errMsg := ""
		if result.Error != nil {
			errMsg = result.Error.Error()
		}
		logging.LogImageProcessed(result.Path, false, errMsg)
	} else {
		logging.LogImageProcessed(result.Path, true, "")
	}

	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// Counts returns the processed, failed and RAW totals
func (p *ProgressTracker) Counts() TrackerCounts {
	p.mu.Lock()
	defer p.mu.Unlock()
	return TrackerCounts{
		Processed: p.processed,
		Failed:    p.errors,
		RawFiles:  p.rawFiles,
		RawFailed: p.rawErrors,
	}
}

// Stop finishes the progress bar
func (p *ProgressTracker) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		_ = p.bar.Finish()
		p.bar = nil
	}
}

// PrintCompletionStats writes the aggregate outcome of an ingestion run
func PrintCompletionStats(w io.Writer, report Report) {
	fmt.Fprintln(w, "Indexing complete.")
	fmt.Fprintf(w, "Candidates: %d (already indexed: %d)\n", report.Candidates, report.AlreadyIndexed)
	fmt.Fprintf(w, "Indexed: %d  Skipped: %d  Failed: %d\n", report.Indexed, report.Skipped, report.Failed)
	if report.RawFiles > 0 {
		fmt.Fprintf(w, "RAW files: %d (failed: %d)\n", report.RawFiles, report.RawFailed)
	}
	fmt.Fprintf(w, "Elapsed: %v\n", report.Duration.Round(time.Millisecond))
	if report.Failed > 0 {
		fmt.Fprintln(w, "Check the log for the files that could not be analyzed.")
	}
}

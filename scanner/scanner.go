package scanner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"imagecurator/imageprocessor/formats"
	"imagecurator/logging"
	"imagecurator/types"
)

// Catalog is the slice of the asset catalog ingestion writes to
type Catalog interface {
	ExistingKeys(ctx context.Context) (map[string]struct{}, error)
	UpsertBatch(ctx context.Context, assets []types.Asset, batchSize int) (int, error)
}

// ErrAnalyzeTimeout is recorded for files whose analysis exceeded the per-file budget
var ErrAnalyzeTimeout = errors.New("analysis timed out")

// Pipeline indexes new files into the catalog
type Pipeline struct {
	catalog    Catalog
	analyzer   Analyzer
	times      CaptureTimeReader
	enumerator Enumerator
	opts       Options
}

// NewPipeline wires the ingestion collaborators. times may be nil, in which
// case every asset is indexed without a capture time.
func NewPipeline(catalog Catalog, analyzer Analyzer, times CaptureTimeReader, opts Options) (*Pipeline, error) {
	if catalog == nil || analyzer == nil {
		return nil, fmt.Errorf("pipeline requires a catalog and an analyzer")
	}
	if opts.Workers < 1 {
		return nil, fmt.Errorf("worker count must be >= 1, got %d", opts.Workers)
	}
	return &Pipeline{
		catalog:    catalog,
		analyzer:   analyzer,
		times:      times,
		enumerator: FileEnumerator{},
		opts:       opts,
	}, nil
}

// WithEnumerator replaces the file enumerator used by Scan
func (p *Pipeline) WithEnumerator(e Enumerator) *Pipeline {
	p.enumerator = e
	return p
}

// Scan enumerates root and ingests every image found
func (p *Pipeline) Scan(ctx context.Context, root string) (Report, error) {
	paths, err := p.enumerator.List(ctx, root)
	if err != nil {
		return Report{}, err
	}
	logging.Info("enumerated candidates", "root", root, "files", len(paths))
	return p.Ingest(ctx, paths)
}

// Ingest analyzes every path the catalog does not know yet and stores the
// results in batches. Per-file failures are logged and counted, never
// returned; only a catalog failure aborts the run. If ctx is cancelled
// mid-run, the files analyzed so far are still stored and ctx.Err() is
// returned.
func (p *Pipeline) Ingest(ctx context.Context, paths []string) (Report, error) {
	start := time.Now()
	var report Report

	candidates := dedupe(paths)
	report.Candidates = len(candidates)
	if len(candidates) == 0 {
		return report, nil
	}

	existing, err := p.catalog.ExistingKeys(ctx)
	if err != nil {
		return report, fmt.Errorf("load existing keys: %w", err)
	}
	pending := make([]string, 0, len(candidates))
	for _, path := range candidates {
		if _, ok := existing[path]; ok {
			report.AlreadyIndexed++
			continue
		}
		pending = append(pending, path)
	}
	report.Skipped = report.AlreadyIndexed
	if len(pending) == 0 {
		report.Duration = time.Since(start)
		return report, nil
	}

	assets, counts := p.analyzeAll(ctx, pending)
	report.Failed = counts.Failed
	report.RawFiles = counts.RawFiles
	report.RawFailed = counts.RawFailed

	// Keep what was analyzed even when the run was interrupted.
	writeCtx := context.WithoutCancel(ctx)
	inserted, err := p.catalog.UpsertBatch(writeCtx, assets, p.opts.BatchSize)
	report.Indexed = inserted
	report.Skipped += len(assets) - inserted
	report.Duration = time.Since(start)
	if err != nil {
		return report, fmt.Errorf("store analyzed assets: %w", err)
	}

	logging.Info("ingestion finished",
		"candidates", report.Candidates,
		"indexed", report.Indexed,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration,
	)
	return report, ctx.Err()
}

func dedupe(paths []string) []string {
	out := slices.Clone(paths)
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) > 0 && out[0] == "" {
		out = out[1:]
	}
	return out
}

// analyzeAll runs the bounded worker pool and returns the successful
// assets sorted by key together with the tracker's counts.
func (p *Pipeline) analyzeAll(ctx context.Context, paths []string) ([]types.Asset, TrackerCounts) {
	tracker := NewProgressTracker(len(paths), p.opts.ShowProgress)
	defer tracker.Stop()

	var (
		mu     sync.Mutex
		assets = make([]types.Asset, 0, len(paths))
	)

	g := new(errgroup.Group)
	g.SetLimit(p.opts.Workers)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			asset, err := p.processImage(ctx, path)
			tracker.Record(ProcessImageResult{
				Path:    path,
				Success: err == nil,
				Error:   err,
				IsRaw:   formats.IsRawFormat(path),
			})
			if err != nil {
				return nil
			}
			mu.Lock()
			assets = append(assets, asset)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(assets, func(a, b types.Asset) int {
		return strings.Compare(a.Key, b.Key)
	})
	return assets, tracker.Counts()
}

type analyzeResult struct {
	analysis types.Analysis
	err      error
}

// processImage analyzes one file and reads its capture time under one
// timeout. A decoder or metadata read that ignores cancellation keeps
// running in the background, but the worker slot is released.
func (p *Pipeline) processImage(ctx context.Context, path string) (types.Asset, error) {
	taskCtx := ctx
	if p.opts.AnalyzeTimeout > 0 {
		var cancel context.CancelFunc
		taskCtx, cancel = context.WithTimeout(ctx, p.opts.AnalyzeTimeout)
		defer cancel()
	}

	done := make(chan analyzeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logging.LogError("Panic while analyzing %s: %v\n%s", path, r, debug.Stack())
				done <- analyzeResult{err: fmt.Errorf("panic while analyzing %s: %v", path, r)}
			}
		}()
		analysis, err := p.analyzer.Analyze(taskCtx, path)
		if err == nil {
			analysis.CapturedAt = p.captureTime(path)
		}
		done <- analyzeResult{analysis: analysis, err: err}
	}()

	var res analyzeResult
	select {
	case res = <-done:
	case <-taskCtx.Done():
		if errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
			return types.Asset{}, fmt.Errorf("%s: %w after %v", path, ErrAnalyzeTimeout, p.opts.AnalyzeTimeout)
		}
		return types.Asset{}, taskCtx.Err()
	}
	if res.err != nil {
		return types.Asset{}, res.err
	}

	analysis := res.analysis
	analysis.Path = path
	return analysis.Asset(), nil
}

// captureTime reads the metadata timestamp; a reader error means absent
func (p *Pipeline) captureTime(path string) *int64 {
	if p.times == nil {
		return nil
	}
	ts, err := p.times.CaptureTime(path)
	if err != nil {
		logging.DebugLog("No capture time for %s: %v", path, err)
		return nil
	}
	return ts
}

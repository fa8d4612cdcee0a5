package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"imagecurator/imageprocessor"
	"imagecurator/logging"
	"imagecurator/scanner"
)

func newScanCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan <folder>",
		Short: "Index every image under a folder",
		Long: `Walks the folder, analyzes every image not yet in the catalog and records
its fingerprint, capture time and quality metrics as NEW. Files already in
the catalog are left untouched; files that fail to decode are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts, args[0])
		},
	}
	cmd.Flags().Int("workers", 0, "Parallel analyses (default ingest.worker_count)")
	cmd.Flags().Bool("no-progress", false, "Disable the progress bar")
	return cmd
}

func runScan(cmd *cobra.Command, opts *rootOptions, folder string) error {
	ctx := cmd.Context()

	a, err := opts.openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	ingestOpts := opts.cfg.IngestOptions()
	if workers := mustGetInt(cmd, "workers"); workers > 0 {
		ingestOpts.Workers = workers
	}
	ingestOpts.ShowProgress = !mustGetBool(cmd, "no-progress")

	times := imageprocessor.ChainReader{imageprocessor.ExifReader{}}
	if et, err := imageprocessor.NewExiftoolReader(); err != nil {
		logging.LogWarning("exiftool unavailable, RAW capture times will be missing: %v", err)
	} else {
		defer et.Close()
		times = append(times, et)
	}

	pipeline, err := scanner.NewPipeline(a.catalog, imageprocessor.NewGocvAnalyzer(), times, ingestOpts)
	if err != nil {
		return err
	}

	logging.Info("scan started", "folder", folder, "workers", ingestOpts.Workers,
		"timeout", ingestOpts.AnalyzeTimeout.String())
	start := time.Now()
	report, err := pipeline.Scan(ctx, folder)
	scanner.PrintCompletionStats(cmd.OutOrStdout(), report)
	if err != nil {
		if errors.Is(err, ctx.Err()) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Scan interrupted; analyzed files were saved.")
		}
		return err
	}
	logging.Info("scan finished", "folder", folder, "indexed", report.Indexed,
		"skipped", report.Skipped, "failed", report.Failed, "elapsed", time.Since(start).String())
	return nil
}

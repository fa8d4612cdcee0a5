package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog counts and the projected outcome of open clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			stats, err := a.catalog.Stats(ctx)
			if err != nil {
				return err
			}

			rows := [][]string{
				{"Photos indexed", strconv.Itoa(stats.TotalAssets)},
				{"  new", strconv.Itoa(stats.NewAssets)},
				{"  in clusters", strconv.Itoa(stats.ClusteredAssets)},
				{"  resolved", strconv.Itoa(stats.ResolvedAssets)},
				{"Open clusters", strconv.Itoa(stats.OpenClusters)},
				{"Photos in open clusters", strconv.Itoa(stats.FilesInClusters)},
				{"Projected discards", strconv.Itoa(stats.ProjectedDiscards)},
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable([]string{"Catalog", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))

			if run := stats.LastRun; run != nil {
				fmt.Fprintf(out, "Last clustering: %s (%s mode, threshold %d, radius %s, %s)\n",
					run.CreatedAt.Local().Format("2006-01-02 15:04:05"), run.Mode, run.Threshold,
					describeRadius(run.RadiusDays), run.Policy)
			}
			return nil
		},
	}
}

func newBlurryCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blurry",
		Short: "List photos whose sharpness falls below a threshold",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			maxSharpness := mustGetInt(cmd, "max-sharpness")
			assets, err := a.catalog.BlurCandidates(ctx, maxSharpness)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(assets) == 0 {
				fmt.Fprintf(out, "No photos below sharpness %d\n", maxSharpness)
				return nil
			}

			rows := make([][]string, 0, len(assets))
			for _, asset := range assets {
				rows = append(rows, []string{
					asset.Key,
					strconv.Itoa(asset.Sharpness),
					string(asset.Status),
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Path", "Sharpness", "Status"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d photos below sharpness %d\n", len(assets), maxSharpness)
			return nil
		},
	}
	cmd.Flags().Int("max-sharpness", 100, "Report photos with sharpness below this value")
	return cmd
}

package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"imagecurator/utils"
)

func newClustersCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clusters",
		Short: "List open clusters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			clusters, err := a.catalog.ListClusters(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(clusters) == 0 {
				fmt.Fprintln(out, "No open clusters. Run 'imagecurator cluster' after scanning.")
				return nil
			}

			rows := make([][]string, 0, len(clusters))
			for _, c := range clusters {
				rows = append(rows, []string{
					strconv.FormatInt(c.ID, 10),
					strconv.Itoa(len(c.Members)),
					c.WinnerKey,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"ID", "Photos", "Winner"}, rows,
				[]columnAlignment{alignRight, alignRight, alignLeft}))
			fmt.Fprintf(out, "%d open clusters\n", len(clusters))
			return nil
		},
	}
}

func newShowCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <cluster-id>",
		Short: "Show the members of a cluster with their scores",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := utils.ParseClusterID(args[0])
			if err != nil {
				return err
			}
			params, err := opts.cfg.ClusteringParams()
			if err != nil {
				return err
			}

			a, err := opts.openApp(ctx, false)
			if err != nil {
				return err
			}
			defer a.Close()

			cluster, err := a.catalog.GetCluster(ctx, id)
			if err != nil {
				return err
			}
			if cluster == nil {
				return fmt.Errorf("cluster %d not found", id)
			}

			rows := make([][]string, 0, len(cluster.Members))
			for _, key := range cluster.Members {
				asset, err := a.catalog.GetAsset(ctx, key)
				if err != nil {
					return err
				}
				marker := ""
				if key == cluster.WinnerKey {
					marker = "*"
				}
				if asset == nil {
					rows = append(rows, []string{marker, key, "-", "-", "-", "-", "-"})
					continue
				}
				rows = append(rows, []string{
					marker,
					asset.CurrentPath(),
					formatCaptureTime(asset.CapturedAt),
					strconv.Itoa(asset.Sharpness),
					fmt.Sprintf("%dx%d", asset.Width, asset.Height),
					strconv.Itoa(asset.Saturation),
					strconv.FormatFloat(params.Scorer.Score(*asset), 'f', 1, 64),
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Cluster %d (%d photos, * = winner)\n", cluster.ID, len(cluster.Members))
			fmt.Fprintln(out, renderTable(
				[]string{"", "Path", "Captured", "Sharpness", "Size", "Saturation", "Score"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

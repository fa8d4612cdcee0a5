package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagecurator/clustering"
	"imagecurator/utils"
)

func newClusterCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cluster",
		Short: "Regroup undecided photos into similarity clusters",
		Long: `Discards every open cluster and regroups all NEW and CLUSTERED photos.
With --global, previously resolved keepers take part too, so new shots can be
matched against photos already curated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCluster(cmd, opts)
		},
	}
	cmd.Flags().Bool("global", false, "Also match against RESOLVED keepers")
	cmd.Flags().String("threshold", "", "Max Hamming distance (default clustering.similarity_threshold)")
	cmd.Flags().Int("radius", 0, "Time radius in days, 0 disables (default clustering.time_radius_days)")
	cmd.Flags().String("policy", "", "Missing timestamp policy: permissive or strict")
	return cmd
}

func runCluster(cmd *cobra.Command, opts *rootOptions) error {
	ctx := cmd.Context()

	params, err := opts.cfg.ClusteringParams()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("threshold") {
		if params.Threshold, err = utils.ParseThreshold(mustGetString(cmd, "threshold")); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("radius") {
		params.RadiusDays = mustGetInt(cmd, "radius")
	}
	if cmd.Flags().Changed("policy") {
		if params.Policy, err = clustering.ParsePolicy(mustGetString(cmd, "policy")); err != nil {
			return err
		}
	}

	mode := clustering.ModeNew
	if mustGetBool(cmd, "global") {
		mode = clustering.ModeGlobal
	}

	a, err := opts.openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	engine, err := clustering.NewEngine(a.catalog, params)
	if err != nil {
		return err
	}
	summary, err := engine.Recluster(ctx, mode)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Considered %d photos (%s mode, threshold %d, radius %s, %s)\n",
		summary.Considered, mode, params.Threshold, describeRadius(params.RadiusDays), params.Policy)
	fmt.Fprintf(out, "Clusters: %d  Clustered photos: %d  Unique photos: %d\n",
		summary.Clusters, summary.Clustered, summary.Orphans)
	return nil
}

func describeRadius(days int) string {
	if days <= 0 {
		return "off"
	}
	return fmt.Sprintf("%dd", days)
}

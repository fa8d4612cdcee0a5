package cmd

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"imagecurator/resolution"
	"imagecurator/utils"
)

func newResolveCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve [cluster-id] [path]",
		Short: "Keep one photo of a cluster and discard the rest",
		Long: `Moves the chosen photo to the keepers folder, the other members to the
discards folder, and closes the cluster. Use --winner to keep the highest
scoring photo, or --all to resolve every open cluster that way.`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(cmd, opts, args)
		},
	}
	cmd.Flags().Bool("winner", false, "Keep the cluster's highest scoring photo")
	cmd.Flags().Bool("all", false, "Resolve every open cluster in favor of its winner")
	return cmd
}

func runResolve(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()
	all := mustGetBool(cmd, "all")
	winner := mustGetBool(cmd, "winner")

	switch {
	case all && len(args) > 0:
		return errors.New("--all takes no arguments")
	case !all && len(args) == 0:
		return errors.New("a cluster id is required unless --all is set")
	case winner && len(args) != 1:
		return errors.New("--winner takes only a cluster id")
	case !all && !winner && len(args) != 2:
		return errors.New("give the path to keep, or use --winner")
	}

	a, err := opts.openApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	resolver, err := resolution.NewResolver(a.catalog, nil, opts.cfg.Paths.KeepersDir, opts.cfg.Paths.DiscardsDir)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if all {
		report, err := resolver.ResolveAll(ctx)
		if report != nil {
			printBatchReport(out, report)
		}
		if err != nil {
			return err
		}
		if len(report.Failed) > 0 {
			return fmt.Errorf("%d clusters need attention", len(report.Failed))
		}
		return nil
	}

	id, err := utils.ParseClusterID(args[0])
	if err != nil {
		return err
	}
	var outcome *resolution.Outcome
	if winner {
		outcome, err = resolver.ResolveWinner(ctx, id)
	} else {
		outcome, err = resolver.Resolve(ctx, id, args[1])
	}
	if outcome != nil {
		fmt.Fprintf(out, "Cluster %d: kept %s, discarded %d\n", outcome.ClusterID, outcome.Kept, len(outcome.Discarded))
	}
	var partial *resolution.PartialResolutionError
	if errors.As(err, &partial) {
		for _, f := range partial.Failed {
			fmt.Fprintf(out, "  could not move %s: %v\n", f.Path, f.Err)
		}
	}
	return err
}

func printBatchReport(out io.Writer, report *resolution.BatchReport) {
	fmt.Fprintf(out, "Resolved %d clusters, discarded %d photos\n", report.Resolved, report.Discarded)
	ids := make([]int64, 0, len(report.Failed))
	for id := range report.Failed {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fmt.Fprintf(out, "  cluster %d: %v\n", id, report.Failed[id])
	}
}

func newDissolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "dissolve <cluster-id>",
		Short: "Close a cluster and keep every member as a distinct photo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := utils.ParseClusterID(args[0])
			if err != nil {
				return err
			}

			a, err := opts.openApp(ctx, true)
			if err != nil {
				return err
			}
			defer a.Close()

			resolver, err := resolution.NewResolver(a.catalog, nil, opts.cfg.Paths.KeepersDir, opts.cfg.Paths.DiscardsDir)
			if err != nil {
				return err
			}
			if err := resolver.Dissolve(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cluster %d dissolved\n", id)
			return nil
		},
	}
}

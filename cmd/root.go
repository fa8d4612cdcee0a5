package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"imagecurator/config"
	"imagecurator/logging"
	"imagecurator/signalhandler"
)

// skipConfigAnnotation marks commands that must run without a loaded config
const skipConfigAnnotation = "imagecurator/skip-config"

// rootOptions carries state shared by every subcommand
type rootOptions struct {
	configPath string
	logLevel   string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "imagecurator",
		Short: "Group near-duplicate photos and keep the best shot",
		Long: `imagecurator indexes a photo library, groups near-duplicate shots taken
close together in time, and moves the best frame of each group to a keepers
folder and the rest to a discards folder.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			logging.CloseLogger()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to config file (default ~/.config/imagecurator/config.toml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newScanCmd(opts),
		newClusterCmd(opts),
		newClustersCmd(opts),
		newShowCmd(opts),
		newResolveCmd(opts),
		newDissolveCmd(opts),
		newStatsCmd(opts),
		newBlurryCmd(opts),
		newConfigCmd(opts),
	)
	return rootCmd
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfigAnnotation] == "true" {
			return nil
		}
	}

	// .env file is optional, don't fail if not found
	if err := config.LoadDotEnv(); err != nil {
		return err
	}

	cfg, _, _, err := config.Load(o.configPath)
	if err != nil {
		return err
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	o.cfg = cfg

	if err := logging.SetupLogger(cfg.LoggingOptions()); err != nil {
		return fmt.Errorf("setup logging: %w", err)
	}
	return nil
}

// Execute runs the CLI with a context cancelled on SIGINT/SIGTERM
func Execute() {
	ctx, stop := signalhandler.Context(context.Background())
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		logging.CloseLogger()
		stop()
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"imagecurator/config"
	"imagecurator/utils"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	configCmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage the configuration file",
		Annotations: map[string]string{skipConfigAnnotation: "true"},
	}

	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := opts.configPath
			if len(args) == 1 {
				path = args[0]
			}
			var err error
			if path == "" {
				path, err = config.DefaultConfigPath()
			} else {
				path, err = utils.ExpandPath(path)
			}
			if err != nil {
				return err
			}
			if err := config.CreateSample(path); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote sample configuration to %s\n", path)
			return nil
		},
	}
	configCmd.AddCommand(initCmd)
	return configCmd
}

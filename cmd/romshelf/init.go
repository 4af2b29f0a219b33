package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long:  "Writes the default config.toml to path, or to the XDG config directory when no path is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.DefaultPath()
			if len(args) > 0 {
				path = args[0]
			}

			if force {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					return fmt.Errorf("remove existing config: %w", err)
				}
			}
			if err := config.WriteDefault(path); err != nil {
				return fmt.Errorf("%w (use --force to overwrite)", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	return cmd
}

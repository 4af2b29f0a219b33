package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	testCmd := &cobra.Command{
		Use:   "test [path]",
		Short: "Validate configuration file",
		Long:  "Validates config.toml syntax, required fields, and environment variable substitution.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.configPath = args[0]
			}
			out := cmd.OutOrStdout()

			cfg, err := opts.loadConfig()
			if err != nil {
				var configErr *config.ConfigError
				if errors.As(err, &configErr) {
					printConfigErrors(out, configErr)
					return fmt.Errorf("configuration invalid")
				}
				return fmt.Errorf("failed to load config: %w", err)
			}

			printConfigSummary(out, cfg)
			fmt.Fprintln(out, "\nConfiguration valid!")
			return nil
		},
	}

	configCmd.AddCommand(testCmd)
	return configCmd
}

func printConfigErrors(w io.Writer, e *config.ConfigError) {
	if len(e.Missing) > 0 {
		fmt.Fprintln(w, "Missing environment variables:")
		for _, m := range e.Missing {
			fmt.Fprintf(w, "  - %s\n", m)
		}
		fmt.Fprintln(w)
	}

	if len(e.Errors) > 0 {
		fmt.Fprintln(w, "Validation errors:")
		for _, err := range e.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
		fmt.Fprintln(w)
	}
}

func printConfigSummary(w io.Writer, cfg *config.Config) {
	systems := "all"
	if len(cfg.Systems.Enabled) > 0 {
		systems = strings.Join(cfg.Systems.Enabled, ", ")
	}
	inbox := "disabled"
	if cfg.Inbox.Enabled {
		inbox = fmt.Sprintf("%s (settle %s)", cfg.Inbox.Path, cfg.Inbox.Settle)
	}

	fmt.Fprintln(w, "Configuration Summary:")
	fmt.Fprintf(w, "  Log level:  %s\n", cfg.Server.LogLevel)
	fmt.Fprintf(w, "  Database:   %s\n", cfg.Database.Path)
	fmt.Fprintf(w, "  Library:    %s\n", cfg.Library.Root)
	fmt.Fprintf(w, "  Systems:    %s\n", systems)
	fmt.Fprintf(w, "  Inbox:      %s\n", inbox)
	fmt.Fprintf(w, "  Fetch:      %d concurrent, %s timeout\n", cfg.Import.FetchConcurrency, cfg.Import.FetchTimeout)
	fmt.Fprintf(w, "  Artwork:    %t\n", cfg.Artwork.Enabled)
	if cfg.Events.Retention > 0 {
		fmt.Fprintf(w, "  Events:     kept %s, pruned at %q\n", cfg.Events.Retention, cfg.Events.PruneSchedule)
	} else {
		fmt.Fprintln(w, "  Events:     kept forever")
	}
}

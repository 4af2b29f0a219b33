package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/config"
	"github.com/vmunix/romshelf/internal/server"
)

// options holds the persistent flags shared by every command.
type options struct {
	configPath string
	jsonOutput bool
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "romshelf",
		Short: "Import ROMs and controller skins into a local library",
		Long: `romshelf - import ROMs and controller skins into a local library

Accepts local files, zip archives and http(s) URLs. Files are
identified by content hash, so importing the same game twice is a no-op.

Run 'romshelfd' to watch an inbox directory instead.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Path to config file (default: discovered)")
	rootCmd.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "Output as JSON")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Log at the configured level instead of warn")

	rootCmd.Version = version
	rootCmd.SetVersionTemplate("romshelf {{.Version}}\n")

	rootCmd.AddCommand(
		newInitCmd(),
		newConfigCmd(opts),
		newImportCmd(opts),
		newGamesCmd(opts),
		newSkinsCmd(opts),
		newHistoryCmd(opts),
		newArtworkCmd(opts),
		newServeCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "romshelf %s\n", version)
		},
	}
}

// loadConfig loads the --config file, or the discovered one.
func (o *options) loadConfig() (*config.Config, error) {
	path := o.configPath
	if path == "" {
		found, err := config.Discover()
		if err != nil {
			return nil, fmt.Errorf("%w (run 'romshelf init' to create one)", err)
		}
		path = found
	}
	return config.Load(path)
}

// openApp loads config and wires the library. Callers must Close the app.
func (o *options) openApp(cmd *cobra.Command, consumeSources bool) (*server.App, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, err
	}
	level := "warn"
	if o.verbose {
		level = cfg.Server.LogLevel
	}
	return server.Open(cfg, consumeSources, server.NewLogger(cmd.ErrOrStderr(), level))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// closeApp closes the app, keeping the first error.
func closeApp(app *server.App, err *error) {
	if cerr := app.Close(); cerr != nil && *err == nil {
		*err = cerr
	}
}

var errImportFailed = errors.New("import failed")

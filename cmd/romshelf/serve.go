package main

import (
	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/server"
)

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Watch the inbox in the foreground",
		Long:  "Runs the inbox watcher until interrupted. Same as romshelfd; imported inbox files are moved into the library.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			logger := server.NewLogger(cmd.ErrOrStderr(), cfg.Server.LogLevel)

			app, err := server.Open(cfg, true, logger)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			return server.NewRunner(app, logger).Run(cmd.Context())
		},
	}
}

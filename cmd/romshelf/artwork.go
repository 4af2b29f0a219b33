package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/artwork"
	"github.com/vmunix/romshelf/internal/server"
)

func catalogFor(app *server.App) *artwork.Catalog {
	if app.Artwork != nil {
		return app.Artwork
	}
	return artwork.NewCatalog(app.DB, nil)
}

func newArtworkCmd(opts *options) *cobra.Command {
	artworkCmd := &cobra.Command{
		Use:   "artwork",
		Short: "Manage the artwork catalog",
	}

	var (
		system   string
		title    string
		identity string
		url      string
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add or update a catalog entry",
		Long:  "Adds a known release to the catalog. Imports match it by content identity, or by fuzzy title within the system.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			if _, ok := app.Registry.Get(system); !ok {
				return fmt.Errorf("unknown system %q", system)
			}
			entry := &artwork.Entry{System: system, Title: title, URL: url}
			if identity != "" {
				entry.Identity = &identity
			}
			if err := catalogFor(app).Add(entry); err != nil {
				return err
			}

			if opts.jsonOutput {
				return printJSON(cmd.OutOrStdout(), entry)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s: %s (#%d)\n", entry.System, entry.Title, entry.ID)
			return nil
		},
	}
	addCmd.Flags().StringVar(&system, "system", "", "System ID (required)")
	addCmd.Flags().StringVar(&title, "title", "", "Release title (required)")
	addCmd.Flags().StringVar(&url, "url", "", "Artwork URL (required)")
	addCmd.Flags().StringVar(&identity, "identity", "", "SHA-1 of the canonical dump")
	_ = addCmd.MarkFlagRequired("system")
	_ = addCmd.MarkFlagRequired("title")
	_ = addCmd.MarkFlagRequired("url")

	var listSystem string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			entries, err := catalogFor(app).List(listSystem)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, entries)
			}
			for _, e := range entries {
				fmt.Fprintf(out, "%-8s  %-40s  %s\n", e.System, truncate(e.Title, 40), e.URL)
			}
			return nil
		},
	}
	listCmd.Flags().StringVarP(&listSystem, "system", "s", "", "Filter by system ID")

	artworkCmd.AddCommand(addCmd, listCmd)
	return artworkCmd
}

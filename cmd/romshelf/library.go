package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/importer"
	"github.com/vmunix/romshelf/internal/library"
)

type gameOutput struct {
	Identity     string    `json:"identity"`
	System       string    `json:"system"`
	Name         string    `json:"name"`
	Filename     string    `json:"filename"`
	ArtworkURL   *string   `json:"artwork_url,omitempty"`
	CollectionID *int64    `json:"collection_id,omitempty"`
	AddedAt      time.Time `json:"added_at"`
}

type skinOutput struct {
	Identity     string    `json:"identity"`
	System       string    `json:"system"`
	Identifier   string    `json:"identifier"`
	Name         string    `json:"name"`
	Filename     string    `json:"filename"`
	CollectionID *int64    `json:"collection_id,omitempty"`
	AddedAt      time.Time `json:"added_at"`
}

type listOutput[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func toGameOutput(g *library.Game) gameOutput {
	return gameOutput{
		Identity:     string(g.Identity),
		System:       g.System,
		Name:         g.Name,
		Filename:     g.Filename,
		ArtworkURL:   g.ArtworkURL,
		CollectionID: g.CollectionID,
		AddedAt:      g.AddedAt,
	}
}

func toSkinOutput(s *library.Skin) skinOutput {
	return skinOutput{
		Identity:     string(s.Identity),
		System:       s.System,
		Identifier:   s.Identifier,
		Name:         s.Name,
		Filename:     s.Filename,
		CollectionID: s.CollectionID,
		AddedAt:      s.AddedAt,
	}
}

func newGamesCmd(opts *options) *cobra.Command {
	var (
		system string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "games",
		Short: "List games in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			filter := library.GameFilter{Limit: limit}
			if system != "" {
				filter.System = &system
			}
			games, total, err := app.Library.ListGames(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				items := make([]gameOutput, 0, len(games))
				for _, g := range games {
					items = append(items, toGameOutput(g))
				}
				return printJSON(out, listOutput[gameOutput]{Items: items, Total: total})
			}
			printGames(out, games, total)
			return nil
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "", "Filter by system ID (e.g. gba)")
	cmd.Flags().IntVarP(&limit, "limit", "l", 0, "Maximum number of games (0 = all)")
	cmd.AddCommand(newRemoveCmd(opts, importer.KindGames))
	return cmd
}

func printGames(w io.Writer, games []*library.Game, total int) {
	if len(games) == 0 {
		fmt.Fprintln(w, "No games.")
		return
	}
	fmt.Fprintf(w, "%-8s  %-8s  %-40s  %s\n", "ID", "SYSTEM", "NAME", "ADDED")
	for _, g := range games {
		fmt.Fprintf(w, "%-8s  %-8s  %-40s  %s\n", g.Identity.Short(), g.System, truncate(g.Name, 40), formatTime(g.AddedAt))
	}
	if total > len(games) {
		fmt.Fprintf(w, "\nShowing %d of %d games\n", len(games), total)
	}
}

func newSkinsCmd(opts *options) *cobra.Command {
	var system string

	cmd := &cobra.Command{
		Use:   "skins",
		Short: "List controller skins in the library",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			filter := library.SkinFilter{}
			if system != "" {
				filter.System = &system
			}
			skins, total, err := app.Library.ListSkins(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				items := make([]skinOutput, 0, len(skins))
				for _, s := range skins {
					items = append(items, toSkinOutput(s))
				}
				return printJSON(out, listOutput[skinOutput]{Items: items, Total: total})
			}
			if len(skins) == 0 {
				fmt.Fprintln(out, "No skins.")
				return nil
			}
			fmt.Fprintf(out, "%-8s  %-8s  %-30s  %s\n", "ID", "SYSTEM", "NAME", "IDENTIFIER")
			for _, s := range skins {
				fmt.Fprintf(out, "%-8s  %-8s  %-30s  %s\n", s.Identity.Short(), s.System, truncate(s.Name, 30), s.Identifier)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&system, "system", "s", "", "Filter by system ID")
	cmd.AddCommand(newRemoveCmd(opts, importer.KindSkins))
	return cmd
}

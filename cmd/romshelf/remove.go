package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/importer"
	"github.com/vmunix/romshelf/internal/library"
	"github.com/vmunix/romshelf/internal/server"
)

var errAmbiguousIdentity = errors.New("ambiguous identity")

type removeOutput struct {
	Removed []string `json:"removed"`
}

// newRemoveCmd builds "games rm" and "skins rm". Identities may be given
// as any unique prefix, such as the short form shown in listings.
func newRemoveCmd(opts *options, kind importer.BatchKind) *cobra.Command {
	noun := "game"
	if kind == importer.KindSkins {
		noun = "skin"
	}

	return &cobra.Command{
		Use:   "rm <identity>...",
		Short: fmt.Sprintf("Remove %ss and their files from the library", noun),
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			known, err := identities(app, kind)
			if err != nil {
				return err
			}

			removed := make([]string, 0, len(args))
			for _, arg := range args {
				id, err := matchIdentity(arg, known)
				if err != nil {
					return err
				}
				if err := app.Importer.Remove(cmd.Context(), kind, id); err != nil {
					return err
				}
				removed = append(removed, string(id))
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				return printJSON(out, removeOutput{Removed: removed})
			}
			for _, id := range removed {
				fmt.Fprintf(out, "Removed %s %s\n", noun, library.Identity(id).Short())
			}
			return nil
		},
	}
}

func identities(app *server.App, kind importer.BatchKind) ([]library.Identity, error) {
	var ids []library.Identity
	if kind == importer.KindSkins {
		skins, _, err := app.Library.ListSkins(library.SkinFilter{})
		if err != nil {
			return nil, err
		}
		for _, s := range skins {
			ids = append(ids, s.Identity)
		}
		return ids, nil
	}
	games, _, err := app.Library.ListGames(library.GameFilter{})
	if err != nil {
		return nil, err
	}
	for _, g := range games {
		ids = append(ids, g.Identity)
	}
	return ids, nil
}

// matchIdentity resolves a full identity or a unique prefix of one.
func matchIdentity(prefix string, known []library.Identity) (library.Identity, error) {
	prefix = strings.ToLower(prefix)
	var found []library.Identity
	for _, id := range known {
		if strings.HasPrefix(string(id), prefix) {
			found = append(found, id)
		}
	}
	switch len(found) {
	case 0:
		return "", fmt.Errorf("%s: %w", prefix, library.ErrNotFound)
	case 1:
		return found[0], nil
	default:
		return "", fmt.Errorf("%s matches %d entries: %w", prefix, len(found), errAmbiguousIdentity)
	}
}

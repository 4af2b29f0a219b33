package main

import (
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/importer"
)

// importOutput is the --json shape of an import result.
type importOutput struct {
	BatchID string              `json:"batch_id"`
	Kind    string              `json:"kind"`
	Games   []gameOutput        `json:"games"`
	Skins   []skinOutput        `json:"skins"`
	Created []string            `json:"created"`
	Errors  []importErrorOutput `json:"errors"`
}

type importErrorOutput struct {
	Kind      string   `json:"kind"`
	Locations []string `json:"locations"`
	Error     string   `json:"error"`
}

func newImportCmd(opts *options) *cobra.Command {
	var skins bool

	cmd := &cobra.Command{
		Use:   "import <path-or-url>...",
		Short: "Import games or skins",
		Long: `Imports one batch of references. Each reference may be a local file,
a zip archive (flattened; only top-level entries are considered) or
an http(s) URL. Duplicates of existing entries are reported as imported.

Exits non-zero only when nothing was imported and at least one reference failed.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			kind := importer.KindGames
			if skins {
				kind = importer.KindSkins
			}
			batch := importer.NewBatch(kind, absLocations(args)...)
			res := app.Importer.Import(cmd.Context(), batch)

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				if err := printJSON(out, toImportOutput(res)); err != nil {
					return err
				}
			} else {
				printImportResult(out, res)
			}

			if res.Failed() {
				return errImportFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&skins, "skins", false, "Import controller skins instead of games")
	return cmd
}

// absLocations makes local paths absolute so history records where files came from.
func absLocations(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = a
		if importer.NewReference(a).IsRemote() {
			continue
		}
		if abs, err := filepath.Abs(a); err == nil {
			out[i] = abs
		}
	}
	return out
}

func toImportOutput(res *importer.Result) importOutput {
	o := importOutput{
		BatchID: res.BatchID,
		Kind:    string(res.Kind),
		Games:   make([]gameOutput, 0, len(res.Games)),
		Skins:   make([]skinOutput, 0, len(res.Skins)),
		Created: make([]string, 0, len(res.Created)),
		Errors:  make([]importErrorOutput, 0, len(res.Errors)),
	}
	for _, g := range res.Games {
		o.Games = append(o.Games, toGameOutput(g))
	}
	for _, s := range res.Skins {
		o.Skins = append(o.Skins, toSkinOutput(s))
	}
	for _, id := range res.Created {
		o.Created = append(o.Created, string(id))
	}
	for _, e := range res.Errors {
		msg := ""
		if e.Cause != nil {
			msg = e.Cause.Error()
		}
		o.Errors = append(o.Errors, importErrorOutput{
			Kind:      e.Kind.String(),
			Locations: e.Locations(),
			Error:     msg,
		})
	}
	return o
}

func printImportResult(w io.Writer, res *importer.Result) {
	created := make(map[string]bool, len(res.Created))
	for _, id := range res.Created {
		created[string(id)] = true
	}
	mark := func(id string) string {
		if created[id] {
			return "+"
		}
		return "="
	}

	for _, g := range res.Games {
		fmt.Fprintf(w, "%s %-8s %-40s %s\n", mark(string(g.Identity)), g.System, truncate(g.Name, 40), g.Identity.Short())
	}
	for _, s := range res.Skins {
		fmt.Fprintf(w, "%s %-8s %-40s %s\n", mark(string(s.Identity)), s.System, truncate(s.Name, 40), s.Identity.Short())
	}
	for _, e := range res.Errors {
		for _, loc := range e.Locations() {
			if e.Cause != nil {
				fmt.Fprintf(w, "! %-16s %s: %v\n", e.Kind, loc, e.Cause)
			} else {
				fmt.Fprintf(w, "! %-16s %s\n", e.Kind, loc)
			}
		}
	}

	fmt.Fprintf(w, "\n%d imported (%d new), %d failed\n",
		res.Imported(), len(res.Created), failedCount(res))
}

func failedCount(res *importer.Result) int {
	n := 0
	for _, e := range res.Errors {
		n += len(e.Refs)
	}
	return n
}

func truncate(s string, n int) string {
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-3]) + "..."
}

// formatTime renders a timestamp relative to now ("3 minutes ago").
func formatTime(t time.Time) string {
	return humanize.Time(t)
}

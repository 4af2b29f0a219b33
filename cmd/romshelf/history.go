package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/vmunix/romshelf/internal/importer"
)

type historyOutput struct {
	ID        int64           `json:"id"`
	BatchID   string          `json:"batch_id"`
	Identity  string          `json:"identity,omitempty"`
	Location  string          `json:"location"`
	Event     string          `json:"event"`
	Data      json.RawMessage `json:"data"`
	CreatedAt time.Time       `json:"created_at"`
}

func newHistoryCmd(opts *options) *cobra.Command {
	var (
		limit   int
		batchID string
		event   string
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show import history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			app, err := opts.openApp(cmd, false)
			if err != nil {
				return err
			}
			defer closeApp(app, &err)

			filter := importer.HistoryFilter{Limit: limit}
			if batchID != "" {
				filter.BatchID = &batchID
			}
			if event != "" {
				filter.Event = &event
			}
			entries, err := app.History.List(filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if opts.jsonOutput {
				items := make([]historyOutput, 0, len(entries))
				for _, h := range entries {
					items = append(items, historyOutput{
						ID:        h.ID,
						BatchID:   h.BatchID,
						Identity:  h.Identity,
						Location:  h.Location,
						Event:     h.Event,
						Data:      json.RawMessage(h.Data),
						CreatedAt: h.CreatedAt,
					})
				}
				return printJSON(out, items)
			}

			if len(entries) == 0 {
				fmt.Fprintln(out, "No history.")
				return nil
			}
			fmt.Fprintf(out, "%-16s  %-9s  %-8s  %s\n", "WHEN", "EVENT", "BATCH", "LOCATION")
			for _, h := range entries {
				fmt.Fprintf(out, "%-16s  %-9s  %-8s  %s\n", formatTime(h.CreatedAt), h.Event, shortID(h.BatchID), h.Location)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of entries")
	cmd.Flags().StringVar(&batchID, "batch", "", "Only entries from this batch")
	cmd.Flags().StringVar(&event, "event", "", "Only entries of this event (imported, duplicate, failed, removed)")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

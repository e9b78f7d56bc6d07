package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"stemsplit/internal/history"
)

const defaultHistoryLimit = 20

type historyEntryJSON struct {
	RunID      string `json:"run_id"`
	SongsDir   string `json:"songs_dir"`
	Folder     string `json:"folder"`
	Outcome    string `json:"outcome"`
	SourcePath string `json:"source_path,omitempty"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at"`
	DurationMS int64  `json:"duration_ms"`
}

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var asJSON bool
	var runID string
	var folder string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent folder outcomes",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			store, err := history.Open(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := selectHistory(cmd, store, limit, runID, folder)
			if err != nil {
				return err
			}
			if asJSON {
				payload := make([]historyEntryJSON, 0, len(entries))
				for _, e := range entries {
					payload = append(payload, historyEntryJSON{
						RunID:      e.RunID,
						SongsDir:   e.SongsDir,
						Folder:     e.Folder,
						Outcome:    string(e.Outcome),
						SourcePath: e.SourcePath,
						Error:      e.Error,
						StartedAt:  e.StartedAt.UTC().Format(time.RFC3339),
						FinishedAt: e.FinishedAt.UTC().Format(time.RFC3339),
						DurationMS: e.Duration().Milliseconds(),
					})
				}
				return writeJSON(cmd, payload)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No runs recorded yet")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{
					e.FinishedAt.Local().Format("2006-01-02 15:04"),
					e.Folder,
					string(e.Outcome),
					formatDuration(e.Duration()),
					shortRunID(e.RunID),
					truncate(e.Error, 60),
				})
			}
			headers := []string{"Finished", "Folder", "Outcome", "Took", "Run", "Error"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft, alignLeft}
			fmt.Fprintln(out, renderTable("", headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", defaultHistoryLimit, "Number of entries to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	cmd.Flags().StringVar(&runID, "run", "", "Show every folder recorded by one run")
	cmd.Flags().StringVar(&folder, "folder", "", "Show the latest outcome for one folder")
	cmd.MarkFlagsMutuallyExclusive("run", "folder")
	return cmd
}

func selectHistory(cmd *cobra.Command, store *history.Store, limit int, runID, folder string) ([]history.Entry, error) {
	ctx := cmd.Context()
	switch {
	case strings.TrimSpace(runID) != "":
		return store.ForRun(ctx, strings.TrimSpace(runID))
	case strings.TrimSpace(folder) != "":
		entry, err := store.LastOutcome(ctx, strings.TrimSpace(folder))
		if err != nil || entry == nil {
			return nil, err
		}
		return []history.Entry{*entry}, nil
	default:
		return store.Recent(ctx, limit)
	}
}

func shortRunID(id string) string {
	id = strings.TrimSpace(id)
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

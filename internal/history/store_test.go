package history_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"stemsplit/internal/history"
	"stemsplit/internal/testsupport"
)

func TestRecordAndRecent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	entries := []history.Entry{
		{RunID: "run-a", SongsDir: "/songs", Folder: "Track1", Outcome: history.OutcomeSeparated, SourcePath: "/songs/Track1/Track1.mp3", StartedAt: started, FinishedAt: started.Add(90 * time.Second)},
		{RunID: "run-a", SongsDir: "/songs", Folder: "Track2", Outcome: history.OutcomeComplete, StartedAt: started.Add(2 * time.Minute)},
		{RunID: "run-a", SongsDir: "/songs", Folder: "Track3", Outcome: history.OutcomeFailed, Error: "exit status 1", StartedAt: started.Add(3 * time.Minute)},
	}
	for _, entry := range entries {
		if err := store.Record(ctx, entry); err != nil {
			t.Fatalf("Record %s: %v", entry.Folder, err)
		}
	}

	recent, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(recent))
	}
	if recent[0].Folder != "Track3" || recent[1].Folder != "Track2" {
		t.Fatalf("expected newest first, got %s then %s", recent[0].Folder, recent[1].Folder)
	}
	if recent[0].Error != "exit status 1" {
		t.Fatalf("unexpected error message: %q", recent[0].Error)
	}
	if recent[1].SourcePath != "" {
		t.Fatalf("expected empty source path, got %q", recent[1].SourcePath)
	}
	if !recent[1].FinishedAt.Equal(recent[1].StartedAt) {
		t.Fatalf("expected finished time to default to start time")
	}

	run, err := store.ForRun(ctx, "run-a")
	if err != nil {
		t.Fatalf("ForRun: %v", err)
	}
	if len(run) != 3 || run[0].Folder != "Track1" {
		t.Fatalf("unexpected run entries: %+v", run)
	}
	if got := run[0].Duration(); got != 90*time.Second {
		t.Fatalf("unexpected duration: %v", got)
	}
}

func TestRecordRequiresRunAndFolder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)

	if err := store.Record(context.Background(), history.Entry{Folder: "Track1"}); err == nil {
		t.Fatal("expected error without run id")
	}
	if err := store.Record(context.Background(), history.Entry{RunID: "run"}); err == nil {
		t.Fatal("expected error without folder")
	}
}

func TestLastOutcome(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	missing, err := store.LastOutcome(ctx, "Track1")
	if err != nil {
		t.Fatalf("LastOutcome: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown folder, got %+v", missing)
	}

	for _, outcome := range []history.Outcome{history.OutcomeFailed, history.OutcomeSeparated} {
		if err := store.Record(ctx, history.Entry{RunID: "run", Folder: "Track1", Outcome: outcome}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	last, err := store.LastOutcome(ctx, "Track1")
	if err != nil {
		t.Fatalf("LastOutcome: %v", err)
	}
	if last == nil || last.Outcome != history.OutcomeSeparated {
		t.Fatalf("expected separated outcome, got %+v", last)
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	store.Close()

	db, err := sql.Open("sqlite", cfg.HistoryPath())
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	_, err = history.Open(cfg)
	if !errors.Is(err, history.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

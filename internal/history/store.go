package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"stemsplit/internal/config"
)

// Store manages run history persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Recorder is the write side of the store used by the workflow.
type Recorder interface {
	Record(ctx context.Context, entry Entry) error
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

const entryColumns = "id, run_id, songs_dir, folder, outcome, source_path, error_message, started_at, finished_at"

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code() == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open initializes or connects to the history database under the state directory.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record inserts a folder outcome.
func (s *Store) Record(ctx context.Context, entry Entry) error {
	ctx = ensureContext(ctx)
	if strings.TrimSpace(entry.RunID) == "" {
		return errors.New("record history: run id is required")
	}
	if strings.TrimSpace(entry.Folder) == "" {
		return errors.New("record history: folder is required")
	}
	if entry.StartedAt.IsZero() {
		entry.StartedAt = time.Now()
	}
	if entry.FinishedAt.IsZero() {
		entry.FinishedAt = entry.StartedAt
	}

	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(
			ctx,
			`INSERT INTO folder_runs (
                run_id, songs_dir, folder, outcome, source_path, error_message, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			entry.RunID,
			entry.SongsDir,
			entry.Folder,
			string(entry.Outcome),
			nullableString(entry.SourcePath),
			nullableString(entry.Error),
			entry.StartedAt.UTC().Format(time.RFC3339Nano),
			entry.FinishedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("insert history entry: %w", err)
		}
		return nil
	})
}

// Recent returns the newest entries first, at most limit of them.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	ctx = ensureContext(ctx)
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM folder_runs ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// ForRun returns a run's entries in the order they were recorded.
func (s *Store) ForRun(ctx context.Context, runID string) ([]Entry, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM folder_runs WHERE run_id = ? ORDER BY id ASC", runID)
	if err != nil {
		return nil, fmt.Errorf("query run history: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// LastOutcome returns the most recent entry for a folder, or nil when the
// folder was never recorded.
func (s *Store) LastOutcome(ctx context.Context, folder string) (*Entry, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM folder_runs WHERE folder = ? ORDER BY id DESC LIMIT 1", folder)
	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return entry, nil
}

package history

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return entries, nil
}

func scanEntry(scanner interface{ Scan(dest ...any) error }) (*Entry, error) {
	var (
		id          int64
		runID       string
		songsDir    string
		folder      string
		outcome     string
		sourcePath  sql.NullString
		errMessage  sql.NullString
		startedRaw  string
		finishedRaw string
	)
	if err := scanner.Scan(
		&id,
		&runID,
		&songsDir,
		&folder,
		&outcome,
		&sourcePath,
		&errMessage,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return nil, err
	}

	entry := &Entry{
		ID:       id,
		RunID:    runID,
		SongsDir: songsDir,
		Folder:   folder,
		Outcome:  Outcome(outcome),
	}
	if sourcePath.Valid {
		entry.SourcePath = sourcePath.String
	}
	if errMessage.Valid {
		entry.Error = errMessage.String
	}
	if started, err := parseTimeString(startedRaw); err == nil {
		entry.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		entry.FinishedAt = finished
	}
	return entry, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

package history

import "time"

// Outcome describes what a run did with one song folder.
type Outcome string

const (
	OutcomeSeparated     Outcome = "separated"
	OutcomeComplete      Outcome = "complete"
	OutcomeExcluded      Outcome = "excluded"
	OutcomeMissingSource Outcome = "missing_source"
	OutcomeFailed        Outcome = "failed"
	OutcomeDryRun        Outcome = "dry_run"
)

// Entry is one recorded folder outcome.
type Entry struct {
	ID         int64
	RunID      string
	SongsDir   string
	Folder     string
	Outcome    Outcome
	SourcePath string
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration reports how long the folder took.
func (e Entry) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.Before(e.StartedAt) {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

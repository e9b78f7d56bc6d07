package workflow

import "time"

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total         int
	Current       int
	Separated     int
	Complete      int
	Excluded      int
	NotDirectory  int
	MissingSource int
	Failed        int
	DryRun        int
	Interrupted   bool
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration returns wall time for the run.
func (s RunStats) Duration() time.Duration {
	if s.StartedAt.IsZero() || s.FinishedAt.Before(s.StartedAt) {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

// Skipped counts entries that needed no engine call.
func (s RunStats) Skipped() int {
	return s.Complete + s.Excluded + s.NotDirectory + s.MissingSource
}

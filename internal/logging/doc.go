// Package logging assembles structured slog loggers and formatting helpers used
// across stemsplit.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so workflow code can tag log
// lines with the run ID, song folder, and stage automatically. The console
// handler colors level labels only when it writes to a terminal and NO_COLOR
// is unset; log files always receive plain text.
//
// A no-op logger is provided for tests and wiring code that cannot fail.
package logging

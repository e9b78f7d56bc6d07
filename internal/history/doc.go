// Package history persists per-folder separation outcomes in SQLite.
//
// Every batch run is identified by a UUID. The workflow records one Entry per
// song folder it visits (separated, already complete, excluded, missing
// source, failed, or dry run) so operators can answer "what happened to this
// folder last night" without re-reading console logs. The `stemsplit history`
// command renders the most recent entries.
//
// The store is optional: the workflow accepts a nil Recorder and the history
// section of the config can disable it entirely.
package history

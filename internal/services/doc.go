// Package services defines shared utilities consumed by the separation
// workflow and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, song folder names, and stage names
//     for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent history outcomes (failed vs missing source).
//
// Use these helpers when wiring new workflow logic so error handling and
// observability stay uniform across the run.
package services

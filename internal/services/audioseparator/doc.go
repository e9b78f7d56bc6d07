// Package audioseparator drives the python-audio-separator command-line tool
// that splits a song into vocal and instrumental stems.
//
// This package handles:
//   - Building the audio-separator command line, optionally through uvx
//   - Downloading the model once per process before the first separation
//   - Running a separation with per-call output directory and stem names
//   - Verifying that the requested stem files were written
//
// A single Service is shared across every folder in a run. The command runner
// can be replaced for tests.
package audioseparator

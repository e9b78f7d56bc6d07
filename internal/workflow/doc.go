// Package workflow walks a songs directory and separates every folder that
// still needs stems.
//
// The Runner enumerates the immediate entries of the songs root in name
// order and, for each one, applies the exclusion list, skips non-directories,
// consults the completion detector unless force mode is on, then resolves the
// source audio, invokes the separator, and merges the marker lines into the
// folder's sidecar. Folders are processed strictly one at a time because the
// separation engine wants exclusive use of the accelerator.
//
// Engine failures abort the run unless ContinueOnError is set, in which case
// the folder is counted as failed and the walk continues. Every folder outcome
// is optionally written to the run history.
package workflow

// Package config loads, normalizes, and validates stemsplit configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STEMSPLIT_SEPARATOR_MODEL. The Config type centralizes every knob the CLI
// and the separation workflow need, so songs directories, the separator
// command line, and sidecar conventions are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical extension lists, and clear validation errors.
package config

// Package main hosts the stemsplit CLI entrypoint and command graph.
//
// The root command walks a songs directory and separates every folder that
// still lacks vocal and instrumental stems. Subcommands check the engine
// binaries, show the run history, and scaffold configuration. Configuration
// resolution and logger setup live here so the internal packages stay free of
// terminal concerns.
package main

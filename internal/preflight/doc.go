// Package preflight provides readiness checks for the filesystem paths and
// binaries a separation run depends on.
//
// These checks run in two contexts:
//   - The root command calls RunAll before walking the songs directory. If
//     any check fails the run stops before the engine is started.
//   - The "stemsplit check" command renders every result as a status line.
package preflight

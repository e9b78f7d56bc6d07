package preflight

import (
	"context"
	"fmt"
	"strings"

	"stemsplit/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the directory and binary checks for a run over songsDir.
// An empty songsDir skips the songs directory check. Binaries are skipped in
// dry-run mode since the engine is never started.
func RunAll(ctx context.Context, cfg *config.Config, songsDir string, dryRun bool) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if strings.TrimSpace(songsDir) != "" {
		results = append(results, CheckDirectoryAccess("Songs directory", songsDir))
	}
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	if cfg.Separator.ModelDir != "" {
		results = append(results, CheckDirectoryAccess("Model directory", cfg.Separator.ModelDir))
	}

	if !dryRun {
		for _, status := range CheckSystemDeps(ctx, cfg) {
			if status.Optional {
				continue
			}
			result := Result{Name: status.Name, Passed: status.Available, Detail: status.Path}
			if !status.Available {
				result.Detail = status.Detail
			}
			results = append(results, result)
		}
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}

// Summary joins failed results into one line for error messages.
func Summary(failed []Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return strings.Join(parts, "; ")
}

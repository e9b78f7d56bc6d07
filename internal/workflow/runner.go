package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"stemsplit/internal/config"
	"stemsplit/internal/exclusions"
	"stemsplit/internal/history"
	"stemsplit/internal/logging"
	"stemsplit/internal/services"
	"stemsplit/internal/services/audioseparator"
	"stemsplit/internal/songs"
)

// Separator is the engine boundary the runner drives.
type Separator interface {
	Separate(ctx context.Context, job audioseparator.Job) (audioseparator.Result, error)
}

// Options are the per-invocation switches.
type Options struct {
	SongsDir        string
	Force           bool
	DryRun          bool
	ContinueOnError bool
	RunID           string
}

// Runner processes one songs directory.
type Runner struct {
	cfg        *config.Config
	opts       Options
	logger     *slog.Logger
	exclusions exclusions.Set
	separator  Separator
	recorder   history.Recorder
}

// NewRunner wires a runner. recorder may be nil.
func NewRunner(cfg *config.Config, opts Options, separator Separator, excluded exclusions.Set, recorder history.Recorder, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		exclusions: excluded,
		separator:  separator,
		recorder:   recorder,
	}
}

// Run walks the songs directory once. It returns an error when the directory
// is unusable, when the context is cancelled, or when a folder fails and
// ContinueOnError is off.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	stats := RunStats{StartedAt: time.Now()}
	ctx = services.WithRunID(ctx, r.opts.RunID)
	root := r.opts.SongsDir

	info, err := os.Stat(root)
	if err != nil {
		return stats, services.Wrap(services.ErrNotFound, "discover", "songs directory", root+" does not exist", err)
	}
	if !info.IsDir() {
		return stats, services.Wrap(services.ErrValidation, "discover", "songs directory", root+" is not a directory", nil)
	}

	entries, err := Discover(root)
	if err != nil {
		return stats, services.Wrap(services.ErrConfiguration, "discover", "songs directory", "", err)
	}
	stats.Total = len(entries)
	if stats.Total == 0 {
		logging.WarnWithContext(r.logger, "no entries found in songs directory", "songs_empty",
			logging.String("songs_dir", root),
			logging.String(logging.FieldImpact, "nothing to separate"),
			logging.String(logging.FieldErrorHint, "check the songs directory path"),
		)
		stats.FinishedAt = time.Now()
		return stats, nil
	}

	r.logBatchHeader(&stats)

	var runErr error
	for i, entry := range entries {
		if ctx.Err() != nil {
			r.logger.Warn("interrupted, stopping before next folder",
				logging.Int("remaining", stats.Total-i),
			)
			stats.Interrupted = true
			runErr = ctx.Err()
			break
		}
		stats.Current = i + 1

		if err := r.processEntry(ctx, entry, &stats); err != nil {
			if ctx.Err() != nil {
				stats.Interrupted = true
				runErr = ctx.Err()
				break
			}
			if !r.opts.ContinueOnError {
				runErr = fmt.Errorf("%s: %w", entry.Name, err)
				break
			}
		}
	}

	stats.FinishedAt = time.Now()
	r.logSummary(&stats)
	return stats, runErr
}

// processEntry handles one root entry: exclude → type check → detect → separate.
func (r *Runner) processEntry(ctx context.Context, entry Entry, stats *RunStats) error {
	ctx = services.WithFolder(ctx, entry.Name)
	logger := logging.WithContext(ctx, r.logger).With(logging.String("progress", r.progress(stats)))
	started := time.Now()

	if r.exclusions.Contains(entry.Name) {
		logger.Info("skipping excluded folder")
		stats.Excluded++
		r.record(ctx, entry, history.OutcomeExcluded, "", nil, started)
		return nil
	}

	if !entry.IsDir {
		logger.Debug("skipping non-directory entry")
		stats.NotDirectory++
		return nil
	}

	folder := songs.NewFolder(entry.Path)
	exts := r.cfg.Songs.AudioExtensions

	if !r.opts.Force {
		completion, err := songs.Detect(folder, exts)
		if err != nil {
			return r.fail(ctx, logger, entry, "detect", "", err, started, stats)
		}
		if completion.Complete() {
			logger.Info("skipping already separated folder")
			stats.Complete++
			r.record(ctx, entry, history.OutcomeComplete, "", nil, started)
			return nil
		}
		logger.Debug("folder needs separation", logging.String("missing", strings.Join(completion.Missing(), ", ")))
	}

	source, err := songs.ResolveSource(folder, exts)
	if err != nil {
		if !errors.Is(err, songs.ErrNoSource) {
			return r.fail(ctx, logger, entry, "resolve", "", err, started, stats)
		}
		logging.WarnWithContext(logger, "no audio file found, skipping folder", "source_missing",
			logging.String("expected", folder.Name+".{"+strings.Join(exts, ",")+"}"),
			logging.String(logging.FieldImpact, "folder left without stems"),
			logging.String(logging.FieldErrorHint, "add "+folder.Name+"."+firstOr(exts, "mp3")+" or exclude the folder"),
		)
		stats.MissingSource++
		r.record(ctx, entry, history.OutcomeMissingSource, "", services.Wrap(services.ErrNotFound, "resolve", "source", "", err), started)
		return nil
	}

	if r.opts.DryRun {
		logger.Info("would separate folder", logging.String(logging.FieldSource, source))
		stats.DryRun++
		r.record(ctx, entry, history.OutcomeDryRun, source, nil, started)
		return nil
	}

	logger.Info("processing folder", logging.String(logging.FieldSource, source))

	sepCtx := services.WithStage(ctx, "separate")
	job := audioseparator.Job{
		Input:     source,
		OutputDir: folder.Path,
		Outputs:   folder.OutputNames(),
	}
	if _, err := r.separator.Separate(sepCtx, job); err != nil {
		return r.fail(sepCtx, logger, entry, "separate", source, err, started, stats)
	}

	sidecarCtx := services.WithStage(ctx, "sidecar")
	changed, err := songs.UpdateSidecar(folder, r.cfg.Sidecar.MarkerExtension)
	if err != nil {
		return r.fail(sidecarCtx, logger, entry, "sidecar", source, err, started, stats)
	}

	stats.Separated++
	logger.Info("folder separated",
		logging.Bool("sidecar_updated", changed),
		logging.Duration("stage_duration", time.Since(started).Round(time.Millisecond)),
	)
	r.record(ctx, entry, history.OutcomeSeparated, source, nil, started)
	return nil
}

func (r *Runner) fail(ctx context.Context, logger *slog.Logger, entry Entry, stage, source string, err error, started time.Time, stats *RunStats) error {
	stats.Failed++
	r.record(ctx, entry, services.OutcomeFor(err), source, err, started)
	if ctx.Err() != nil {
		return err
	}

	impact := "run aborted"
	if r.opts.ContinueOnError {
		impact = "folder skipped, run continues"
	}
	logging.ErrorWithContext(logger, "folder failed", "folder_failure",
		logging.String(logging.FieldStage, stage),
		logging.String(logging.FieldImpact, impact),
		logging.String(logging.FieldErrorHint, "run with --verbose to see the separator output"),
		logging.Error(err),
	)
	return err
}

func (r *Runner) record(ctx context.Context, entry Entry, outcome history.Outcome, source string, err error, started time.Time) {
	if r.recorder == nil || r.opts.RunID == "" {
		return
	}
	rec := history.Entry{
		RunID:      r.opts.RunID,
		SongsDir:   r.opts.SongsDir,
		Folder:     entry.Name,
		Outcome:    outcome,
		SourcePath: source,
		StartedAt:  started,
		FinishedAt: time.Now(),
	}
	if err != nil {
		rec.Error = err.Error()
	}
	// A cancelled run still records the folder it was on.
	if recErr := r.recorder.Record(context.WithoutCancel(ctx), rec); recErr != nil {
		logging.WarnWithContext(r.logger, "failed to record history", "history_write_failed",
			logging.String(logging.FieldFolder, entry.Name),
			logging.String(logging.FieldImpact, "run history incomplete"),
			logging.Error(recErr),
		)
	}
}

func (r *Runner) progress(stats *RunStats) string {
	return fmt.Sprintf("%d/%d", stats.Current, stats.Total)
}

func (r *Runner) logBatchHeader(stats *RunStats) {
	attrs := []logging.Attr{
		logging.String("songs_dir", r.opts.SongsDir),
		logging.Int("entries", stats.Total),
		logging.Int("excluded_names", r.exclusions.Len()),
	}
	if r.opts.Force {
		attrs = append(attrs, logging.Bool("force", true))
	}
	if r.opts.DryRun {
		attrs = append(attrs, logging.Bool("dry_run", true))
	}
	if r.opts.ContinueOnError {
		attrs = append(attrs, logging.Bool("continue_on_error", true))
	}
	r.logger.Info(fmt.Sprintf("found %d entries, starting separation", stats.Total), logging.Args(attrs...)...)
}

func (r *Runner) logSummary(stats *RunStats) {
	attrs := []logging.Attr{
		logging.Int("separated", stats.Separated),
		logging.Int("complete", stats.Complete),
		logging.Int("excluded", stats.Excluded),
		logging.Int("missing_source", stats.MissingSource),
		logging.Int("failed", stats.Failed),
		logging.Duration("duration", stats.Duration().Round(time.Second)),
	}
	if stats.DryRun > 0 {
		attrs = append(attrs, logging.Int("dry_run", stats.DryRun))
	}
	if stats.Interrupted {
		attrs = append(attrs, logging.Bool("interrupted", true))
	}
	r.logger.Info("batch complete", logging.Args(attrs...)...)
}

func firstOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return values[0]
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"stemsplit/internal/config"
	"stemsplit/internal/exclusions"
	"stemsplit/internal/history"
	"stemsplit/internal/logging"
	"stemsplit/internal/notifications"
	"stemsplit/internal/preflight"
	"stemsplit/internal/runlock"
	"stemsplit/internal/services"
	"stemsplit/internal/services/audioseparator"
	"stemsplit/internal/workflow"
)

var errNoInput = errors.New("no input directory specified")

type runFlags struct {
	force           bool
	dryRun          bool
	exclusions      string
	continueOnError bool
	verbose         bool
}

func runSeparation(cmd *cobra.Command, cmdCtx *commandContext, flags runFlags, args []string) error {
	cfg, err := cmdCtx.ensureConfig()
	if err != nil {
		return err
	}

	songsDir, err := resolveSongsDir(cfg, args)
	if err != nil {
		if errors.Is(err, errNoInput) {
			stderr := cmd.ErrOrStderr()
			fmt.Fprintln(stderr, "No input directory specified.")
			fmt.Fprint(stderr, cmd.UsageString())
		}
		return err
	}

	if flags.verbose {
		cfg.Logging.Level = "debug"
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	runID := uuid.NewString()
	logger = logging.WithRunID(logger, runID)

	if info, statErr := os.Stat(songsDir); statErr != nil || !info.IsDir() {
		logging.ErrorWithContext(logger, "songs directory not usable", "songs_dir_missing",
			logging.String("songs_dir", songsDir),
			logging.String(logging.FieldImpact, "no folders were processed"),
			logging.String(logging.FieldErrorHint, "pass an existing directory or set songs.fallback_dir"),
		)
		return fmt.Errorf("songs directory %s does not exist or is not a directory", songsDir)
	}

	if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg, songsDir, flags.dryRun)); len(failed) > 0 {
		return services.Wrap(services.ErrConfiguration, "preflight", "", preflight.Summary(failed)+" (run `stemsplit check`)", nil)
	}

	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() {
		_ = lock.Release()
	}()

	exclusionsPath := strings.TrimSpace(flags.exclusions)
	if exclusionsPath == "" {
		exclusionsPath = cfg.Songs.ExclusionsFile
	}
	excluded, err := exclusions.Load(exclusionsPath)
	if err != nil {
		return err
	}
	if excluded.Len() > 0 {
		logger.Info("loaded exclusions",
			logging.String("path", exclusionsPath),
			logging.Int("count", excluded.Len()),
		)
	}

	var recorder history.Recorder
	if cfg.History.Enabled {
		store, err := history.Open(cfg)
		if err != nil {
			return err
		}
		defer store.Close()
		recorder = store
	}

	separator := audioseparator.NewService(audioseparator.ConfigFrom(cfg, flags.verbose), logger)
	runner := workflow.NewRunner(cfg, workflow.Options{
		SongsDir:        songsDir,
		Force:           flags.force,
		DryRun:          flags.dryRun,
		ContinueOnError: flags.continueOnError || cfg.Workflow.ContinueOnError,
		RunID:           runID,
	}, separator, excluded, recorder, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stats, runErr := runner.Run(ctx)
	if stats.Total > 0 {
		fmt.Fprintln(cmd.OutOrStdout(), renderRunSummary(stats))
	}
	notifyBatch(cmd.Context(), notifications.NewService(cfg), logger, songsDir, flags.dryRun, stats, runErr)
	return runErr
}

// notifyBatch publishes the run outcome. Interrupted and dry runs stay quiet.
func notifyBatch(ctx context.Context, notifier notifications.Service, logger *slog.Logger, songsDir string, dryRun bool, stats workflow.RunStats, runErr error) {
	if dryRun || stats.Interrupted || errors.Is(runErr, context.Canceled) {
		return
	}
	var err error
	switch {
	case runErr != nil:
		err = notifier.NotifyBatchFailed(ctx, songsDir, runErr)
	case stats.Separated > 0 || stats.Failed > 0:
		err = notifier.NotifyBatchCompleted(ctx, notifications.BatchSummary{
			SongsDir:  songsDir,
			Separated: stats.Separated,
			Skipped:   stats.Skipped(),
			Failed:    stats.Failed,
			Duration:  stats.Duration(),
		})
	}
	if err != nil {
		logging.WarnWithContext(logger, "batch notification failed", "notification_failed",
			logging.String(logging.FieldImpact, "no ntfy alert for this run"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
}

// resolveSongsDir picks the positional argument, then songs.fallback_dir.
func resolveSongsDir(cfg *config.Config, args []string) (string, error) {
	if len(args) > 0 && strings.TrimSpace(args[0]) != "" {
		abs, err := filepath.Abs(args[0])
		if err != nil {
			return "", fmt.Errorf("resolve songs directory: %w", err)
		}
		return abs, nil
	}
	if cfg.Songs.FallbackDir != "" {
		return cfg.Songs.FallbackDir, nil
	}
	return "", errNoInput
}

func renderRunSummary(stats workflow.RunStats) string {
	rows := [][]string{
		{"Separated", strconv.Itoa(stats.Separated)},
		{"Already complete", strconv.Itoa(stats.Complete)},
		{"Excluded", strconv.Itoa(stats.Excluded)},
		{"Missing source", strconv.Itoa(stats.MissingSource)},
		{"Not a folder", strconv.Itoa(stats.NotDirectory)},
		{"Failed", strconv.Itoa(stats.Failed)},
	}
	if stats.DryRun > 0 {
		rows = append(rows, []string{"Would separate", strconv.Itoa(stats.DryRun)})
	}
	title := fmt.Sprintf("Processed %d/%d entries in %s", stats.Current, stats.Total, formatDuration(stats.Duration()))
	if stats.Interrupted {
		title += " (interrupted)"
	}
	return renderTable(title, []string{"Outcome", "Count"}, rows, []columnAlignment{alignLeft, alignRight})
}

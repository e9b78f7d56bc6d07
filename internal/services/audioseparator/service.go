package audioseparator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"stemsplit/internal/logging"
	"stemsplit/internal/services"
)

// CommandRunner executes name with args and returns its combined output.
type CommandRunner func(ctx context.Context, name string, args ...string) (string, error)

// Job describes one separation.
type Job struct {
	// Input is the source audio file.
	Input string
	// OutputDir receives the stems.
	OutputDir string
	// Outputs maps stem names ("Vocals", "Instrumental") to output base names.
	Outputs map[string]string
}

// Result lists the stem files a separation produced.
type Result struct {
	Files map[string]string
}

// Service runs audio-separator. It is safe to reuse across jobs.
type Service struct {
	cfg    Config
	logger *slog.Logger
	runner CommandRunner

	mu     sync.Mutex
	loaded bool
}

// NewService creates a separator service with the given configuration.
func NewService(cfg Config, logger *slog.Logger) *Service {
	s := &Service{
		cfg:    cfg.withDefaults(),
		logger: logging.NewComponentLogger(logger, "audio-separator"),
	}
	s.runner = s.execRunner
	return s
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner CommandRunner) {
	if runner == nil {
		runner = s.execRunner
	}
	s.runner = runner
}

// Model returns the configured model name for logging.
func (s *Service) Model() string {
	if s.cfg.Model != "" {
		return s.cfg.Model
	}
	return "default"
}

// Binary returns the executable that is launched.
func (s *Service) Binary() string {
	if s.cfg.UseUVX {
		return s.cfg.UVXCommand
	}
	return s.cfg.Command
}

// Load downloads the configured model. It runs at most once successfully per
// Service; a failed attempt is retried on the next call.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	args := append(s.modelArgs(), "--download_model_only")
	s.logger.Info("loading separation model", logging.String("model", s.Model()))
	if err := s.run(ctx, "load", args); err != nil {
		return err
	}
	s.loaded = true
	return nil
}

// Separate runs one job synchronously, loading the model first if needed,
// and verifies that every requested stem exists afterwards.
func (s *Service) Separate(ctx context.Context, job Job) (Result, error) {
	if strings.TrimSpace(job.Input) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "separate", "job", "input path required", nil)
	}
	if strings.TrimSpace(job.OutputDir) == "" {
		return Result{}, services.Wrap(services.ErrValidation, "separate", "job", "output directory required", nil)
	}
	if len(job.Outputs) == 0 {
		return Result{}, services.Wrap(services.ErrValidation, "separate", "job", "output names required", nil)
	}
	if info, err := os.Stat(job.OutputDir); err != nil || !info.IsDir() {
		return Result{}, services.Wrap(services.ErrNotFound, "separate", "job", "output directory missing: "+job.OutputDir, err)
	}

	if err := s.Load(ctx); err != nil {
		return Result{}, err
	}

	args, err := s.buildArgs(job)
	if err != nil {
		return Result{}, err
	}
	if err := s.run(ctx, "separate", args); err != nil {
		return Result{}, err
	}

	ext := s.cfg.OutputExtension()
	result := Result{Files: make(map[string]string, len(job.Outputs))}
	for _, stem := range sortedKeys(job.Outputs) {
		path := filepath.Join(job.OutputDir, job.Outputs[stem]+"."+ext)
		if _, err := os.Stat(path); err != nil {
			return Result{}, services.Wrap(services.ErrExternalTool, "separate", "verify output",
				fmt.Sprintf("%s stem not written", stem), err)
		}
		result.Files[stem] = path
	}
	return result, nil
}

// buildArgs constructs the tool arguments for a separation.
func (s *Service) buildArgs(job Job) ([]string, error) {
	names, err := json.Marshal(job.Outputs)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "separate", "encode output names", "", err)
	}
	args := []string{
		job.Input,
		"--output_dir", job.OutputDir,
		"--output_format", s.cfg.OutputFormat,
		"--custom_output_names", string(names),
	}
	return append(args, s.modelArgs()...), nil
}

func (s *Service) modelArgs() []string {
	var args []string
	if s.cfg.Model != "" {
		args = append(args, "--model_filename", s.cfg.Model)
	}
	if s.cfg.ModelDir != "" {
		args = append(args, "--model_file_dir", s.cfg.ModelDir)
	}
	return args
}

// CommandLine returns the executable and full argument list for tool args,
// adding the uvx prefix when enabled.
func (s *Service) CommandLine(args []string) (string, []string) {
	if !s.cfg.UseUVX {
		return s.cfg.Command, args
	}
	full := make([]string, 0, len(args)+3)
	full = append(full, "--from", s.cfg.Package, filepath.Base(s.cfg.Command))
	return s.cfg.UVXCommand, append(full, args...)
}

func (s *Service) run(ctx context.Context, op string, args []string) error {
	name, full := s.CommandLine(args)
	s.logger.Debug("running audio-separator",
		logging.String("operation", op),
		logging.String("command", name+" "+strings.Join(full, " ")),
	)
	output, err := s.runner(ctx, name, full...)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("audio-separator %s: %w", op, ctxErr)
	}
	marker := services.ErrExternalTool
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		marker = services.ErrConfiguration
	}
	return services.Wrap(marker, op, name, Tail(output, OutputTailLines), err)
}

func (s *Service) execRunner(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	var buf bytes.Buffer
	var out io.Writer = &buf
	if s.cfg.Verbose {
		out = io.MultiWriter(&buf, os.Stderr)
	}
	cmd.Stdout = out
	cmd.Stderr = out

	err := cmd.Run()
	return buf.String(), err
}

// Tail returns the last n non-empty lines of output, joined by newlines.
func Tail(output string, n int) string {
	trimmed := strings.TrimSpace(output)
	if trimmed == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

package audioseparator_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"stemsplit/internal/services"
	"stemsplit/internal/services/audioseparator"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	calls  []call
	fail   error
	output string
	write  bool
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) (string, error) {
	f.calls = append(f.calls, call{name: name, args: append([]string(nil), args...)})
	if f.fail != nil {
		return f.output, f.fail
	}
	if f.write {
		writeStems(args)
	}
	return f.output, nil
}

// writeStems emulates the tool by creating the custom-named outputs.
func writeStems(args []string) {
	var dir, names, format string
	for i := 0; i < len(args)-1; i++ {
		switch args[i] {
		case "--output_dir":
			dir = args[i+1]
		case "--custom_output_names":
			names = args[i+1]
		case "--output_format":
			format = strings.ToLower(args[i+1])
		}
	}
	if dir == "" || names == "" {
		return
	}
	var outputs map[string]string
	if err := json.Unmarshal([]byte(names), &outputs); err != nil {
		return
	}
	for _, base := range outputs {
		_ = os.WriteFile(filepath.Join(dir, base+"."+format), []byte("stem"), 0o644)
	}
}

func flagValue(args []string, flag string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == flag {
			return args[i+1]
		}
	}
	return ""
}

func newJob(t *testing.T) audioseparator.Job {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "Track1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	input := filepath.Join(dir, "Track1.mp3")
	if err := os.WriteFile(input, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}
	return audioseparator.Job{
		Input:     input,
		OutputDir: dir,
		Outputs:   map[string]string{"Vocals": "Track1 [VOC]", "Instrumental": "Track1 [INSTR]"},
	}
}

func TestSeparateBuildsCommandLine(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{
		Model:    "UVR-MDX-NET-Inst_HQ_3.onnx",
		ModelDir: "/models",
	}, nil)
	runner := &fakeRunner{write: true}
	svc.WithCommandRunner(runner.run)
	job := newJob(t)

	result, err := svc.Separate(context.Background(), job)
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected load and separate calls, got %d", len(runner.calls))
	}

	load := runner.calls[0]
	if load.name != "audio-separator" {
		t.Fatalf("unexpected binary: %s", load.name)
	}
	if !strings.Contains(strings.Join(load.args, " "), "--download_model_only") {
		t.Fatalf("expected model download on first call, got %v", load.args)
	}

	sep := runner.calls[1]
	if sep.args[0] != job.Input {
		t.Fatalf("expected input first, got %v", sep.args)
	}
	if flagValue(sep.args, "--output_dir") != job.OutputDir {
		t.Fatalf("unexpected output dir: %v", sep.args)
	}
	if flagValue(sep.args, "--output_format") != "WAV" {
		t.Fatalf("expected WAV output format: %v", sep.args)
	}
	if flagValue(sep.args, "--model_filename") != "UVR-MDX-NET-Inst_HQ_3.onnx" || flagValue(sep.args, "--model_file_dir") != "/models" {
		t.Fatalf("expected model flags: %v", sep.args)
	}
	var names map[string]string
	if err := json.Unmarshal([]byte(flagValue(sep.args, "--custom_output_names")), &names); err != nil {
		t.Fatalf("decode output names: %v", err)
	}
	if names["Vocals"] != "Track1 [VOC]" || names["Instrumental"] != "Track1 [INSTR]" {
		t.Fatalf("unexpected output names: %v", names)
	}

	if got := result.Files["Vocals"]; got != filepath.Join(job.OutputDir, "Track1 [VOC].wav") {
		t.Fatalf("unexpected vocals path: %s", got)
	}
}

func TestLoadRunsOnce(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{}, nil)
	runner := &fakeRunner{write: true}
	svc.WithCommandRunner(runner.run)

	for i := 0; i < 3; i++ {
		if _, err := svc.Separate(context.Background(), newJob(t)); err != nil {
			t.Fatalf("Separate %d: %v", i, err)
		}
	}
	loads := 0
	for _, c := range runner.calls {
		for _, arg := range c.args {
			if arg == "--download_model_only" {
				loads++
			}
		}
	}
	if loads != 1 {
		t.Fatalf("expected one model download, got %d", loads)
	}
	if len(runner.calls) != 4 {
		t.Fatalf("expected 4 calls, got %d", len(runner.calls))
	}
}

func TestLoadRetriesAfterFailure(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{}, nil)
	runner := &fakeRunner{fail: errors.New("exit status 1")}
	svc.WithCommandRunner(runner.run)

	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("expected load failure")
	}
	runner.fail = nil
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("expected second load to succeed: %v", err)
	}
	if len(runner.calls) != 2 {
		t.Fatalf("expected load to be attempted twice, got %d", len(runner.calls))
	}
}

func TestSeparateThroughUVX(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{
		UseUVX:       true,
		Package:      audioseparator.GPUPackage,
		OutputFormat: "flac",
	}, nil)
	runner := &fakeRunner{write: true}
	svc.WithCommandRunner(runner.run)

	result, err := svc.Separate(context.Background(), newJob(t))
	if err != nil {
		t.Fatalf("Separate: %v", err)
	}
	sep := runner.calls[1]
	if sep.name != "uvx" {
		t.Fatalf("expected uvx launcher, got %s", sep.name)
	}
	if got := strings.Join(sep.args[:3], " "); got != "--from audio-separator[gpu] audio-separator" {
		t.Fatalf("unexpected uvx prefix: %q", got)
	}
	if flagValue(sep.args, "--output_format") != "FLAC" {
		t.Fatalf("expected upper-cased format: %v", sep.args)
	}
	if !strings.HasSuffix(result.Files["Instrumental"], "Track1 [INSTR].flac") {
		t.Fatalf("unexpected instrumental path: %v", result.Files)
	}
}

func TestSeparateFailureIncludesOutputTail(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{}, nil)
	var lines []string
	for i := 0; i < 30; i++ {
		lines = append(lines, "line "+strings.Repeat("x", i%3)+string(rune('a'+i%26)))
	}
	lines = append(lines, "RuntimeError: CUDA out of memory")
	runner := &fakeRunner{output: strings.Join(lines, "\n")}
	svc.WithCommandRunner(runner.run)
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	runner.fail = errors.New("exit status 1")

	_, err := svc.Separate(context.Background(), newJob(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected output tail in error, got %v", err)
	}
	if strings.Contains(err.Error(), lines[0]) {
		t.Fatalf("expected only the last %d lines, got %v", audioseparator.OutputTailLines, err)
	}
}

func TestSeparateMissingStem(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{}, nil)
	runner := &fakeRunner{}
	svc.WithCommandRunner(runner.run)

	_, err := svc.Separate(context.Background(), newJob(t))
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error for missing stems, got %v", err)
	}
}

func TestSeparateValidatesJob(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{}, nil)
	runner := &fakeRunner{}
	svc.WithCommandRunner(runner.run)

	cases := map[string]audioseparator.Job{
		"no input":      {OutputDir: t.TempDir(), Outputs: map[string]string{"Vocals": "v"}},
		"no output dir": {Input: "in.mp3", Outputs: map[string]string{"Vocals": "v"}},
		"no outputs":    {Input: "in.mp3", OutputDir: t.TempDir()},
	}
	for name, job := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Separate(context.Background(), job); !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(runner.calls) != 0 {
		t.Fatalf("expected no tool calls for invalid jobs, got %d", len(runner.calls))
	}
}

func TestSeparateCancelled(t *testing.T) {
	svc := audioseparator.NewService(audioseparator.Config{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	svc.WithCommandRunner(func(ctx context.Context, name string, args ...string) (string, error) {
		cancel()
		return "", errors.New("signal: killed")
	})

	_, err := svc.Separate(ctx, newJob(t))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTail(t *testing.T) {
	if got := audioseparator.Tail("a\nb\nc\n", 2); got != "b\nc" {
		t.Fatalf("unexpected tail: %q", got)
	}
	if got := audioseparator.Tail("  ", 5); got != "" {
		t.Fatalf("expected empty tail, got %q", got)
	}
}

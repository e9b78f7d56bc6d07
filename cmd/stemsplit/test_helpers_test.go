package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"stemsplit/internal/config"
	"stemsplit/internal/testsupport"
)

// fakeSeparatorScript writes "<folder> [VOC].wav" and "<folder> [INSTR].wav"
// into --output_dir, mirroring what audio-separator does with custom names.
const fakeSeparatorScript = `#!/bin/sh
out=""
while [ $# -gt 0 ]; do
  case "$1" in
    --output_dir) out="$2"; shift ;;
  esac
  shift
done
[ -z "$out" ] && exit 0
name=$(basename "$out")
printf 'vocals' > "$out/$name [VOC].wav"
printf 'instrumental' > "$out/$name [INSTR].wav"
`

const failingSeparatorScript = `#!/bin/sh
for a in "$@"; do
  [ "$a" = "--download_model_only" ] && exit 0
done
echo "loading model"
echo "RuntimeError: CUDA out of memory" >&2
exit 1
`

type cliTestEnv struct {
	cfg        *config.Config
	baseDir    string
	songsDir   string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg"))
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("NO_COLOR", "1")

	env := &cliTestEnv{
		cfg:        cfg,
		baseDir:    base,
		songsDir:   filepath.Join(base, "Songs"),
		configPath: filepath.Join(base, "stemsplit.toml"),
	}
	if err := os.MkdirAll(env.songsDir, 0o755); err != nil {
		t.Fatalf("mkdir songs: %v", err)
	}
	env.useSeparator(t, fakeSeparatorScript)
	return env
}

func (e *cliTestEnv) useSeparator(t *testing.T, script string) {
	t.Helper()
	path := filepath.Join(e.baseDir, "bin", "fake-separator")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir bin: %v", err)
	}
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write separator stub: %v", err)
	}
	e.cfg.Separator.Command = path
	e.writeConfig(t)
}

func (e *cliTestEnv) writeConfig(t *testing.T) {
	t.Helper()
	data, err := toml.Marshal(e.cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(e.configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"stemsplit/internal/logging"
	"stemsplit/internal/runlock"
	"stemsplit/internal/services"
	"stemsplit/internal/testsupport"
)

func TestRunSeparatesAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := testsupport.SongFolder(t, env.songsDir, "Track1", "#TITLE:Track1\nLa la la\n", "Track1.mp3")

	out, _, err := runCLI(t, []string{env.songsDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Separated")

	want := "#TITLE:Track1\n#VOCALS: Track1 [VOC].wav\n#INSTRUMENTAL: Track1 [INSTR].wav\nLa la la\n"
	if got := testsupport.ReadText(t, filepath.Join(dir, "Track1.txt")); got != want {
		t.Fatalf("unexpected sidecar: %q", got)
	}

	// A second pass finds the folder complete and leaves it alone.
	if _, _, err := runCLI(t, []string{env.songsDir}, env.configPath); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := testsupport.ReadText(t, filepath.Join(dir, "Track1.txt")); got != want {
		t.Fatalf("sidecar changed on second run: %q", got)
	}

	out, _, err = runCLI(t, []string{"history", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	var entries []historyEntryJSON
	if err := json.Unmarshal([]byte(out), &entries); err != nil {
		t.Fatalf("decode history: %v\n%s", err, out)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(entries))
	}
	if entries[0].Outcome != "complete" || entries[1].Outcome != "separated" {
		t.Fatalf("unexpected outcomes: %+v", entries)
	}
	if entries[0].RunID == entries[1].RunID {
		t.Fatal("expected a distinct run id per invocation")
	}

	out, _, err = runCLI(t, []string{"history", "--limit", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("history table: %v", err)
	}
	requireContains(t, out, "Track1")
	requireContains(t, out, "complete")

	out, _, err = runCLI(t, []string{"history", "--json", "--run", entries[1].RunID}, env.configPath)
	if err != nil {
		t.Fatalf("history --run: %v", err)
	}
	var runEntries []historyEntryJSON
	if err := json.Unmarshal([]byte(out), &runEntries); err != nil {
		t.Fatalf("decode run history: %v\n%s", err, out)
	}
	if len(runEntries) != 1 || runEntries[0].Outcome != "separated" {
		t.Fatalf("unexpected entries for first run: %+v", runEntries)
	}

	out, _, err = runCLI(t, []string{"history", "--json", "--folder", "Track1"}, env.configPath)
	if err != nil {
		t.Fatalf("history --folder: %v", err)
	}
	var folderEntries []historyEntryJSON
	if err := json.Unmarshal([]byte(out), &folderEntries); err != nil {
		t.Fatalf("decode folder history: %v\n%s", err, out)
	}
	if len(folderEntries) != 1 || folderEntries[0].Outcome != "complete" {
		t.Fatalf("expected latest Track1 outcome complete, got %+v", folderEntries)
	}

	out, _, err = runCLI(t, []string{"history", "--folder", "Track9"}, env.configPath)
	if err != nil {
		t.Fatalf("history unknown folder: %v", err)
	}
	requireContains(t, out, "No runs recorded yet")
}

func TestRunWithoutInputDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	_, stderr, err := runCLI(t, nil, env.configPath)
	if !errors.Is(err, errNoInput) {
		t.Fatalf("expected errNoInput, got %v", err)
	}
	requireContains(t, stderr, "No input directory specified.")
	requireContains(t, stderr, "Usage:")
}

func TestRunUsesFallbackDirectory(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Songs.FallbackDir = env.songsDir
	env.writeConfig(t)
	testsupport.SongFolder(t, env.songsDir, "Track1", "", "Track1.mp3")

	out, _, err := runCLI(t, []string{"--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Would separate")
}

func TestRunMissingSongsDirectory(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{filepath.Join(env.baseDir, "nope")}, env.configPath)
	if err == nil {
		t.Fatal("expected error for missing songs directory")
	}
	requireContains(t, err.Error(), "does not exist")

	logged := testsupport.ReadText(t, filepath.Join(env.cfg.Paths.LogDir, logging.LogFileName))
	requireContains(t, logged, "songs directory not usable")
	requireContains(t, logged, "songs_dir_missing")
}

func TestRunDryRunLeavesFoldersUntouched(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := testsupport.SongFolder(t, env.songsDir, "Track1", "lyrics\n", "Track1.mp3")

	if _, _, err := runCLI(t, []string{"-n", env.songsDir}, env.configPath); err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "Track1 [VOC].wav")); err == nil {
		t.Fatal("dry run must not create stems")
	}
	if got := testsupport.ReadText(t, filepath.Join(dir, "Track1.txt")); got != "lyrics\n" {
		t.Fatalf("dry run changed sidecar: %q", got)
	}
}

func TestRunHonoursExclusionsFlag(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := testsupport.SongFolder(t, env.songsDir, "Track1", "", "Track1.mp3")
	exclusionsPath := filepath.Join(env.baseDir, "skip.txt")
	testsupport.WriteText(t, exclusionsPath, "Track1\n")

	out, _, err := runCLI(t, []string{"-e", exclusionsPath, env.songsDir}, env.configPath)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	requireContains(t, out, "Excluded")
	if _, err := os.Stat(filepath.Join(dir, "Track1 [VOC].wav")); err == nil {
		t.Fatal("excluded folder must not be separated")
	}
}

func TestRunFailsWhenLockHeld(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SongFolder(t, env.songsDir, "Track1", "", "Track1.mp3")

	lock, err := runlock.Acquire(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lock.Release()

	_, _, err = runCLI(t, []string{env.songsDir}, env.configPath)
	if !errors.Is(err, runlock.ErrHeld) {
		t.Fatalf("expected lock held error, got %v", err)
	}
}

func TestRunAbortsOnEngineFailure(t *testing.T) {
	env := setupCLITestEnv(t)
	env.useSeparator(t, failingSeparatorScript)
	testsupport.SongFolder(t, env.songsDir, "A", "", "A.mp3")
	second := testsupport.SongFolder(t, env.songsDir, "B", "", "B.mp3")

	_, _, err := runCLI(t, []string{env.songsDir}, env.configPath)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
	requireContains(t, err.Error(), "CUDA out of memory")
	if got := testsupport.ReadText(t, filepath.Join(second, "B.txt")); got != "" {
		t.Fatalf("later folder must be untouched, sidecar=%q", got)
	}

	// With --continue-on-error the run finishes and exits cleanly.
	out, _, err := runCLI(t, []string{"--continue-on-error", env.songsDir}, env.configPath)
	if err != nil {
		t.Fatalf("continue-on-error run: %v", err)
	}
	requireContains(t, out, "Failed")
}

func TestCheckCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	requireContains(t, out, "[OK]")
	requireContains(t, out, "FFmpeg")

	env.cfg.Separator.Command = filepath.Join(env.baseDir, "bin", "missing-separator")
	env.writeConfig(t)
	out, _, err = runCLI(t, []string{"check"}, env.configPath)
	if err == nil {
		t.Fatal("expected check to fail with missing separator")
	}
	requireContains(t, out, "[ERROR]")
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected init to refuse overwriting without --overwrite")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestRunPublishesNotification(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()
	}))
	defer srv.Close()

	env := setupCLITestEnv(t)
	env.cfg.Notifications.NtfyTopic = srv.URL
	env.writeConfig(t)
	testsupport.SongFolder(t, env.songsDir, "Track1", "", "Track1.mp3")

	if _, _, err := runCLI(t, []string{env.songsDir}, env.configPath); err != nil {
		t.Fatalf("run: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(bodies) != 1 {
		t.Fatalf("expected one notification, got %d", len(bodies))
	}
	requireContains(t, bodies[0], "Separated 1 song in Songs")
}

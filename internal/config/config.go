package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directories owned by stemsplit itself.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
}

// Songs describes how song folders are discovered and which audio files count.
type Songs struct {
	// FallbackDir is used when no songs directory is given on the command
	// line. Empty means the CLI warns and exits instead.
	FallbackDir     string   `toml:"fallback_dir"`
	ExclusionsFile  string   `toml:"exclusions_file"`
	// AudioExtensions is ordered by source priority and doubles as the set of
	// extensions recognized on stems and sidecar markers.
	AudioExtensions []string `toml:"audio_extensions"`
}

// Separator contains configuration for the external audio-separator tool.
type Separator struct {
	Command      string `toml:"command"`
	UseUVX       bool   `toml:"use_uvx"`
	UVXCommand   string `toml:"uvx_command"`
	Package      string `toml:"package"`
	CUDAEnabled  bool   `toml:"cuda_enabled"`
	Model        string `toml:"model"`
	ModelDir     string `toml:"model_dir"`
	OutputFormat string `toml:"output_format"`
}

// Sidecar contains configuration for the per-folder <name>.txt file.
type Sidecar struct {
	// MarkerExtension is written into #VOCALS/#INSTRUMENTAL lines regardless
	// of the source file's extension.
	MarkerExtension string `toml:"marker_extension"`
}

// Workflow contains configuration for the batch run.
type Workflow struct {
	ContinueOnError bool `toml:"continue_on_error"`
}

// History contains configuration for the run ledger.
type History struct {
	Enabled bool `toml:"enabled"`
}

// Notifications contains configuration for ntfy batch alerts.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-stems. Empty
	// disables notifications.
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for stemsplit.
//
// Configuration sections by subsystem:
//   - Paths: log and state directories
//   - Songs: fallback songs directory, exclusions file, audio extensions
//   - Separator: audio-separator command line
//   - Sidecar: marker line conventions
//   - Workflow: batch failure policy
//   - History: SQLite run ledger
//   - Notifications: ntfy alerts when a batch ends
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Songs         Songs         `toml:"songs"`
	Separator     Separator     `toml:"separator"`
	Sidecar       Sidecar       `toml:"sidecar"`
	Workflow      Workflow      `toml:"workflow"`
	History       History       `toml:"history"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("stemsplit.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the log and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LockPath returns the file guarding against concurrent runs.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "stemsplit.lock")
}

// HistoryPath returns the SQLite database recording run outcomes.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// SeparatorBinary returns the executable that is actually launched: uvx when
// the separator runs through uv, otherwise the separator command itself.
func (c *Config) SeparatorBinary() string {
	if c.Separator.UseUVX {
		return c.Separator.UVXCommand
	}
	return c.Separator.Command
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

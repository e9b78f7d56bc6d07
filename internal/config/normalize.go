package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSongs(); err != nil {
		return err
	}
	c.normalizeSeparator()
	c.normalizeSidecar()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSongs() error {
	var err error
	c.Songs.FallbackDir = strings.TrimSpace(c.Songs.FallbackDir)
	if c.Songs.FallbackDir, err = expandPath(c.Songs.FallbackDir); err != nil {
		return fmt.Errorf("songs.fallback_dir: %w", err)
	}
	c.Songs.ExclusionsFile = strings.TrimSpace(c.Songs.ExclusionsFile)
	if c.Songs.ExclusionsFile == "" {
		c.Songs.ExclusionsFile = defaultExclusionsFile
	}
	c.Songs.AudioExtensions = NormalizeExtensions(c.Songs.AudioExtensions)
	if len(c.Songs.AudioExtensions) == 0 {
		c.Songs.AudioExtensions = DefaultAudioExtensions()
	}
	return nil
}

// NormalizeExtensions lowercases, strips leading dots, and de-duplicates
// extensions while keeping their priority order.
func NormalizeExtensions(exts []string) []string {
	out := make([]string, 0, len(exts))
	seen := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		out = append(out, normalized)
	}
	return out
}

func (c *Config) normalizeSeparator() {
	c.Separator.Command = strings.TrimSpace(c.Separator.Command)
	if c.Separator.Command == "" {
		if value, ok := os.LookupEnv("STEMSPLIT_SEPARATOR_COMMAND"); ok && strings.TrimSpace(value) != "" {
			c.Separator.Command = strings.TrimSpace(value)
		} else {
			c.Separator.Command = defaultSeparatorCommand
		}
	}
	c.Separator.UVXCommand = strings.TrimSpace(c.Separator.UVXCommand)
	if c.Separator.UVXCommand == "" {
		c.Separator.UVXCommand = defaultUVXCommand
	}
	c.Separator.Package = strings.TrimSpace(c.Separator.Package)
	if c.Separator.Package == "" {
		if c.Separator.CUDAEnabled {
			c.Separator.Package = defaultSeparatorCUDAPkg
		} else {
			c.Separator.Package = defaultSeparatorPackage
		}
	}
	c.Separator.Model = strings.TrimSpace(c.Separator.Model)
	if c.Separator.Model == "" {
		if value, ok := os.LookupEnv("STEMSPLIT_SEPARATOR_MODEL"); ok {
			c.Separator.Model = strings.TrimSpace(value)
		}
	}
	if dir := strings.TrimSpace(c.Separator.ModelDir); dir != "" {
		if expanded, err := expandPath(dir); err == nil {
			dir = expanded
		}
		c.Separator.ModelDir = dir
	}
	c.Separator.OutputFormat = strings.ToUpper(strings.TrimSpace(c.Separator.OutputFormat))
	if c.Separator.OutputFormat == "" {
		c.Separator.OutputFormat = defaultSeparatorOutputType
	}
}

func (c *Config) normalizeSidecar() {
	c.Sidecar.MarkerExtension = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(c.Sidecar.MarkerExtension), "."))
	if c.Sidecar.MarkerExtension == "" {
		c.Sidecar.MarkerExtension = defaultMarkerExtension
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		if value, ok := os.LookupEnv("STEMSPLIT_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
			c.Logging.Level = strings.ToLower(strings.TrimSpace(value))
		} else {
			c.Logging.Level = defaultLogLevel
		}
	}
}

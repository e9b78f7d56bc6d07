package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var validOutputFormats = []string{"WAV", "FLAC", "MP3", "OGG", "M4A"}

var validLogLevels = []string{"debug", "info", "warn", "error"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateSongs(); err != nil {
		return err
	}
	if err := c.validateSeparator(); err != nil {
		return err
	}
	if err := c.validateSidecar(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSongs() error {
	if len(c.Songs.AudioExtensions) == 0 {
		return errors.New("songs.audio_extensions must include at least one extension")
	}
	for _, ext := range c.Songs.AudioExtensions {
		if strings.ContainsAny(ext, `/\ `) {
			return fmt.Errorf("songs.audio_extensions: invalid extension %q", ext)
		}
	}
	return nil
}

func (c *Config) validateSeparator() error {
	if c.Separator.Command == "" {
		return errors.New("separator.command must be set")
	}
	if c.Separator.UseUVX && c.Separator.UVXCommand == "" {
		return errors.New("separator.uvx_command must be set when separator.use_uvx is true")
	}
	if !slices.Contains(validOutputFormats, c.Separator.OutputFormat) {
		return fmt.Errorf("separator.output_format: unsupported value %q (expected one of %s)",
			c.Separator.OutputFormat, strings.Join(validOutputFormats, ", "))
	}
	// stems in an unrecognized format never count toward completion
	if ext := strings.ToLower(c.Separator.OutputFormat); !slices.Contains(c.Songs.AudioExtensions, ext) {
		return fmt.Errorf("separator.output_format %q must be one of songs.audio_extensions (%s)",
			c.Separator.OutputFormat, strings.Join(c.Songs.AudioExtensions, ", "))
	}
	return nil
}

func (c *Config) validateSidecar() error {
	if !slices.Contains(c.Songs.AudioExtensions, c.Sidecar.MarkerExtension) {
		return fmt.Errorf("sidecar.marker_extension %q must be one of songs.audio_extensions (%s)",
			c.Sidecar.MarkerExtension, strings.Join(c.Songs.AudioExtensions, ", "))
	}
	return nil
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !slices.Contains(validLogLevels, c.Logging.Level) {
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

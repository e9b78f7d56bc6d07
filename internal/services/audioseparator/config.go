package audioseparator

import (
	"strings"

	"stemsplit/internal/config"
)

// Config captures runtime settings for audio-separator invocations.
type Config struct {
	// Command is the audio-separator executable, or the tool name when run through uvx.
	Command string
	// UseUVX runs the tool with `uvx --from <Package>`.
	UseUVX bool
	// UVXCommand is the uvx executable.
	UVXCommand string
	// Package is the PyPI requirement passed to uvx --from.
	Package string
	// Model is the model file name; empty lets the tool pick its default.
	Model string
	// ModelDir overrides where models are cached.
	ModelDir string
	// OutputFormat is the stem container (WAV, FLAC, MP3, OGG, M4A).
	OutputFormat string
	// Verbose streams the tool's output to stderr while it runs.
	Verbose bool
}

// audio-separator configuration constants.
const (
	DefaultCommand      = "audio-separator"
	DefaultUVXCommand   = "uvx"
	DefaultOutputFormat = "WAV"
	CPUPackage          = "audio-separator[cpu]"
	GPUPackage          = "audio-separator[gpu]"
	// OutputTailLines is how much tool output is kept in error messages.
	OutputTailLines = 20
)

// ConfigFrom maps the [separator] config section onto a service config.
func ConfigFrom(cfg *config.Config, verbose bool) Config {
	if cfg == nil {
		return Config{Verbose: verbose}
	}
	sep := cfg.Separator
	return Config{
		Command:      sep.Command,
		UseUVX:       sep.UseUVX,
		UVXCommand:   sep.UVXCommand,
		Package:      sep.Package,
		Model:        sep.Model,
		ModelDir:     sep.ModelDir,
		OutputFormat: sep.OutputFormat,
		Verbose:      verbose,
	}
}

func (c Config) withDefaults() Config {
	if strings.TrimSpace(c.Command) == "" {
		c.Command = DefaultCommand
	}
	if strings.TrimSpace(c.UVXCommand) == "" {
		c.UVXCommand = DefaultUVXCommand
	}
	if strings.TrimSpace(c.Package) == "" {
		c.Package = CPUPackage
	}
	c.OutputFormat = strings.ToUpper(strings.TrimSpace(c.OutputFormat))
	if c.OutputFormat == "" {
		c.OutputFormat = DefaultOutputFormat
	}
	return c
}

// OutputExtension is the file extension the tool writes for the configured format.
func (c Config) OutputExtension() string {
	return strings.ToLower(c.withDefaults().OutputFormat)
}

package config

const (
	defaultConfigPath          = "~/.config/stemsplit/config.toml"
	defaultLogDir              = "~/.local/share/stemsplit/logs"
	defaultStateDir            = "~/.local/share/stemsplit"
	defaultExclusionsFile      = "exclusions.txt"
	defaultSeparatorCommand    = "audio-separator"
	defaultUVXCommand          = "uvx"
	defaultSeparatorPackage    = "audio-separator[cpu]"
	defaultSeparatorCUDAPkg    = "audio-separator[gpu]"
	defaultSeparatorOutputType = "WAV"
	defaultMarkerExtension     = "wav"
	defaultNtfyTimeoutSeconds  = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// DefaultAudioExtensions lists the recognized audio extensions in source
// priority order.
func DefaultAudioExtensions() []string {
	return []string{"mp3", "wav", "ogg", "m4a"}
}

// Default returns a Config populated with repository defaults. The separator
// command and log level stay empty so normalization can apply environment
// fallbacks before the built-in values.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
		},
		Songs: Songs{
			ExclusionsFile:  defaultExclusionsFile,
			AudioExtensions: DefaultAudioExtensions(),
		},
		Separator: Separator{
			UVXCommand:   defaultUVXCommand,
			OutputFormat: defaultSeparatorOutputType,
		},
		Sidecar: Sidecar{
			MarkerExtension: defaultMarkerExtension,
		},
		History: History{
			Enabled: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
		},
	}
}

package config

const (
	defaultDataDir        = "~/.local/share/bindery"
	defaultLogDir         = "~/.local/share/bindery/logs"
	defaultConcurrency    = 4
	defaultFrequency      = "daily"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRequestTimeout = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Install: Install{
			Command:     []string{"go"},
			Concurrency: defaultConcurrency,
		},
		Updates: Updates{
			AutoCheck: true,
			Frequency: defaultFrequency,
		},
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Notifications: Notifications{
			RequestTimeout: defaultRequestTimeout,
			Updates:        true,
			Batches:        true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

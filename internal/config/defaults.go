package config

const (
	defaultDataDir              = "~/.local/share/interlude"
	defaultLogDir               = "~/.local/share/interlude/logs"
	defaultAPIBind              = "127.0.0.1:8474"
	defaultRequestsPerMin       = 240
	defaultShutdownSeconds      = 10
	defaultCommitTimeoutSeconds = 10
	defaultCommitRetries        = 3
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Server: Server{
			CORSOrigins:      []string{"http://localhost:5173"},
			RequestsPerMin:   defaultRequestsPerMin,
			ShutdownSeconds:  defaultShutdownSeconds,
			SeedSampleOnBoot: false,
		},
		Player: Player{
			CommitTimeoutSeconds: defaultCommitTimeoutSeconds,
			CommitRetries:        defaultCommitRetries,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

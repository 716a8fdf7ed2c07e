package config

const (
	defaultConfigPath     = "~/.config/buildlog/config.toml"
	defaultBatchSize      = 100
	defaultFlushInterval  = 2000
	defaultRequestTimeout = 10
	defaultQueueSize      = 4096
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"
	defaultLogVerbosity   = "normal"
	defaultLogColor       = "auto"
	defaultListenerBind   = "~/.local/state/buildlog/listener.sock"
	defaultListenerLock   = "~/.local/state/buildlog/listener.lock"

	envSinkEndpoint = "BUILDLOG_SINK_ENDPOINT"
	envSinkAPIKey   = "BUILDLOG_SINK_API_KEY"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Sink: Sink{
			BatchSize:      defaultBatchSize,
			FlushInterval:  defaultFlushInterval,
			RequestTimeout: defaultRequestTimeout,
			QueueSize:      defaultQueueSize,
		},
		Logging: Logging{
			Level:     defaultLogLevel,
			Format:    defaultLogFormat,
			Verbosity: defaultLogVerbosity,
			Color:     defaultLogColor,
		},
		Listener: Listener{
			Bind:     defaultListenerBind,
			LockPath: defaultListenerLock,
		},
	}
}

package config

import "time"

// Default values for configuration.
const (
	// Server defaults
	DefaultConfigFile      = "config.yml"
	DefaultServerHost      = "0.0.0.0"
	DefaultServerPort      = 8080
	DefaultReadTimeout     = 10 * time.Second
	DefaultWriteTimeout    = 30 * time.Second
	DefaultShutdownTimeout = 15 * time.Second

	// Processing defaults
	DefaultTaskTimeout     = 120 * time.Second
	DefaultCacheTTL        = 1 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute

	// Telegram API defaults
	DefaultSessionFile         = "tg.session"
	DefaultHealthCheckInterval = 30 * time.Second
	DefaultClientRetryPause    = 1 * time.Second
	DefaultClientWaitTimeout   = 10 * time.Second
	DefaultPageSize            = 100

	// Chat defaults
	DefaultHistoryLimit   = 50
	DefaultBufferCapacity = 100

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)

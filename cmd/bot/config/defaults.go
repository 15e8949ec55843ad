package config

import "time"

// Значения по умолчанию для командного бота.
const (
	DefaultConfigFile      = "bot_config.yml"
	DefaultBackendURL      = "http://localhost:8080"
	DefaultPollingInterval = 2 * time.Second
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultHistoryLimit    = 20
	DefaultExportLimit     = 1000
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
)

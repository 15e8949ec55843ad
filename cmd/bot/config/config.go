package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// BotConfig содержит конфигурацию командного бота.
type BotConfig struct {
	Token      string `yaml:"token"`
	BackendURL string `yaml:"backend_url"`
	// ChatID — чат, историю которого бот запрашивает у сервера. 0 означает chat.target_chat сервера.
	ChatID          int64         `yaml:"chat_id"`
	AllowedUsers    []int64       `yaml:"allowed_users"`
	PollingInterval time.Duration `yaml:"polling_interval"`
	HTTPTimeout     time.Duration `yaml:"http_timeout"`
	HistoryLimit    int           `yaml:"history_limit"`
	ExportLimit     int           `yaml:"export_limit"`
	Timezone        string        `yaml:"timezone"`
}

// Logging — настройки логирования бота.
type Logging struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config является оберткой для соответствия структуре YAML файла.
type Config struct {
	Bot     BotConfig `yaml:"bot"`
	Logging Logging   `yaml:"logging"`
}

// LoadBotConfig загружает конфигурацию бота из файла и переменной COMMAND_BOT_TOKEN.
func LoadBotConfig(filename string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	data, err := os.ReadFile(filename)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read bot config file %s: %w", filename, err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal bot config: %w", err)
		}
	}

	if token := os.Getenv("COMMAND_BOT_TOKEN"); token != "" {
		cfg.Bot.Token = token
	}

	cfg.setDefaults()
	return cfg, nil
}

func (c *Config) setDefaults() {
	b := &c.Bot
	if b.BackendURL == "" {
		b.BackendURL = DefaultBackendURL
	}
	b.BackendURL = strings.TrimRight(b.BackendURL, "/")
	if b.PollingInterval == 0 {
		b.PollingInterval = DefaultPollingInterval
	}
	if b.HTTPTimeout == 0 {
		b.HTTPTimeout = DefaultHTTPTimeout
	}
	if b.HistoryLimit == 0 {
		b.HistoryLimit = DefaultHistoryLimit
	}
	if b.ExportLimit == 0 {
		b.ExportLimit = DefaultExportLimit
	}
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}

// Location возвращает часовой пояс для времени сообщений.
func (b BotConfig) Location() (*time.Location, error) {
	if b.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bot.timezone: %w", err)
	}
	return loc, nil
}

// Validate проверяет корректность конфигурации бота.
func (c *Config) Validate() error {
	b := c.Bot
	if b.Token == "" || b.Token == "YOUR_TELEGRAM_BOT_TOKEN" {
		return fmt.Errorf("bot.token is not configured")
	}
	if !strings.HasPrefix(b.BackendURL, "http://") && !strings.HasPrefix(b.BackendURL, "https://") {
		return fmt.Errorf("bot.backend_url must be an http(s) url, got %q", b.BackendURL)
	}
	if b.PollingInterval < 0 || b.HTTPTimeout < 0 {
		return fmt.Errorf("bot.polling_interval and bot.http_timeout must be positive")
	}
	if b.HistoryLimit < 0 || b.HistoryLimit > 1000 || b.ExportLimit < 0 || b.ExportLimit > 1000 {
		return fmt.Errorf("bot.history_limit and bot.export_limit must be between 0 and 1000")
	}
	if _, err := b.Location(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format)
	}
	return nil
}

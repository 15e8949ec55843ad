// Package config предоставляет управление конфигурацией приложения
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// Server содержит конфигурацию HTTP-сервера
type Server struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// TelegramAPIServer содержит конфигурацию одной MTProto-сессии
type TelegramAPIServer struct {
	APIID       int    `yaml:"api_id"`
	APIHash     string `yaml:"api_hash"`
	PhoneNumber string `yaml:"phone_number"`
	SessionFile string `yaml:"session_file"`
}

// TelegramAPI содержит конфигурацию Telegram API
type TelegramAPI struct {
	// Для обратной совместимости. Используйте Servers.
	APIID       int    `yaml:"api_id,omitempty"`
	APIHash     string `yaml:"api_hash,omitempty"`
	PhoneNumber string `yaml:"phone_number,omitempty"`
	SessionFile string `yaml:"session_file,omitempty"`

	Servers []TelegramAPIServer `yaml:"servers"`

	HealthCheckInterval time.Duration `yaml:"health_check_interval"`
	ClientRetryPause    time.Duration `yaml:"client_retry_pause"`
	ClientWaitTimeout   time.Duration `yaml:"client_wait_timeout"`
	PageSize            int           `yaml:"page_size"`
}

// Chat описывает журналируемый чат
type Chat struct {
	// TargetChat — id чата в помеченном виде (отрицательный для групп и каналов).
	TargetChat     int64  `yaml:"target_chat"`
	HistoryLimit   int    `yaml:"history_limit"`
	BufferCapacity int    `yaml:"buffer_capacity"`
	ExportFile     string `yaml:"export_file"` // result.json вместо живого клиента
}

// Bot содержит конфигурацию бота для живого режима
type Bot struct {
	Token string `yaml:"token"`
}

// Processing содержит конфигурацию фоновой обработки
type Processing struct {
	TaskTimeout     time.Duration `yaml:"task_timeout"` // 0 - без ограничений
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	CleanupInterval time.Duration `yaml:"cleanup_interval"`
}

// Logging содержит конфигурацию логирования
type Logging struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// Config содержит конфигурацию приложения
type Config struct {
	Server      Server      `yaml:"server"`
	TelegramAPI TelegramAPI `yaml:"telegram_api"`
	Chat        Chat        `yaml:"chat"`
	Bot         Bot         `yaml:"bot"`
	Processing  Processing  `yaml:"processing"`
	Logging     Logging     `yaml:"logging"`
}

func defaultConfig() *Config {
	return &Config{
		Server: Server{
			Host:            DefaultServerHost,
			Port:            DefaultServerPort,
			ReadTimeout:     DefaultReadTimeout,
			WriteTimeout:    DefaultWriteTimeout,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
		TelegramAPI: TelegramAPI{
			HealthCheckInterval: DefaultHealthCheckInterval,
			ClientRetryPause:    DefaultClientRetryPause,
			ClientWaitTimeout:   DefaultClientWaitTimeout,
			PageSize:            DefaultPageSize,
		},
		Chat: Chat{
			HistoryLimit:   DefaultHistoryLimit,
			BufferCapacity: DefaultBufferCapacity,
		},
		Processing: Processing{
			TaskTimeout:     DefaultTaskTimeout,
			CacheTTL:        DefaultCacheTTL,
			CleanupInterval: DefaultCleanupInterval,
		},
		Logging: Logging{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}

// GetTelegramServers возвращает список MTProto-сессий,
// обеспечивая обратную совместимость со старым форматом.
func (c *Config) GetTelegramServers() []TelegramAPIServer {
	var servers []TelegramAPIServer
	if len(c.TelegramAPI.Servers) > 0 {
		servers = append(servers, c.TelegramAPI.Servers...)
	} else if c.TelegramAPI.APIID != 0 && c.TelegramAPI.APIHash != "" {
		servers = []TelegramAPIServer{{
			APIID:       c.TelegramAPI.APIID,
			APIHash:     c.TelegramAPI.APIHash,
			PhoneNumber: c.TelegramAPI.PhoneNumber,
			SessionFile: c.TelegramAPI.SessionFile,
		}}
	}

	for i := range servers {
		if servers[i].SessionFile == "" {
			servers[i].SessionFile = DefaultSessionFile
		}
	}
	return servers
}

// LoadConfig собирает конфигурацию: значения по умолчанию, затем YAML-файл path
// (если он есть), затем .env и переменные окружения.
func LoadConfig(path string) (*Config, error) {
	// .env необязателен, переменные могут прийти из окружения.
	_ = godotenv.Load()

	cfg := defaultConfig()
	if path == "" {
		path = DefaultConfigFile
	}
	if err := loadFromYAML(path, cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию из env: %w", err)
	}

	return cfg, nil
}

// loadFromYAML накладывает YAML-файл на cfg. Отсутствие файла ошибкой не считается.
func loadFromYAML(filename string, cfg *Config) error {
	data, err := os.ReadFile(filename)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("не удалось прочитать файл конфигурации %s: %w", filename, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("не удалось разобрать YAML конфигурацию: %w", err)
	}
	return nil
}

// applyEnv переопределяет значения из переменных окружения.
func applyEnv(cfg *Config) error {
	if v := os.Getenv("API_ID"); v != "" {
		apiID, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый API_ID: %w", err)
		}
		cfg.TelegramAPI.APIID = apiID
	}
	if v := os.Getenv("API_HASH"); v != "" {
		cfg.TelegramAPI.APIHash = v
	}
	if v := os.Getenv("PHONE_NUMBER"); v != "" {
		cfg.TelegramAPI.PhoneNumber = v
	}
	if v := os.Getenv("SESSION_FILE"); v != "" {
		cfg.TelegramAPI.SessionFile = v
	}
	if v := os.Getenv("TARGET_CHAT"); v != "" {
		chatID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("недопустимый TARGET_CHAT: %w", err)
		}
		cfg.Chat.TargetChat = chatID
	}
	if v := os.Getenv("BOT_TOKEN"); v != "" {
		cfg.Bot.Token = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("недопустимый SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	return nil
}

// Address возвращает адрес сервера в формате "host:port"
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate проверяет, являются ли значения конфигурации допустимыми
func (c *Config) Validate() error {
	servers := c.GetTelegramServers()
	if len(servers) == 0 && c.Chat.ExportFile == "" {
		return fmt.Errorf("не настроен источник сообщений: нужен telegram_api или chat.export_file")
	}

	for i, s := range servers {
		if s.APIID <= 0 {
			return fmt.Errorf("telegram_api.servers[%d].api_id должно быть положительным целым числом", i)
		}
		if s.APIHash == "" {
			return fmt.Errorf("telegram_api.servers[%d].api_hash не может быть пустым", i)
		}
	}

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port должен быть действительным номером порта (1-65535)")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout должно быть положительным")
	}
	if c.Processing.TaskTimeout < 0 {
		return fmt.Errorf("processing.task_timeout должно быть неотрицательным (0 для отсутствия ограничений)")
	}
	if c.Processing.CacheTTL <= 0 {
		return fmt.Errorf("processing.cache_ttl должно быть положительным")
	}
	if c.Processing.CleanupInterval <= 0 {
		return fmt.Errorf("processing.cleanup_interval должно быть положительным")
	}
	if c.TelegramAPI.HealthCheckInterval <= 0 {
		return fmt.Errorf("telegram_api.health_check_interval должно быть положительным")
	}
	if c.TelegramAPI.ClientRetryPause <= 0 {
		return fmt.Errorf("telegram_api.client_retry_pause должно быть положительным")
	}
	if c.TelegramAPI.PageSize <= 0 || c.TelegramAPI.PageSize > 100 {
		return fmt.Errorf("telegram_api.page_size должен быть в диапазоне 1-100")
	}
	if c.Chat.HistoryLimit <= 0 {
		return fmt.Errorf("chat.history_limit должно быть положительным")
	}
	if c.Chat.BufferCapacity < 0 {
		return fmt.Errorf("chat.buffer_capacity должно быть неотрицательным")
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		return err
	}
	switch c.Logging.Format {
	case "json", "text":
	default:
		return fmt.Errorf("logging.format должен быть одним из: json, text")
	}

	return nil
}

// SlogLevel переводит уровень логирования в slog.Level.
func (l Logging) SlogLevel() (slog.Level, error) {
	switch l.Level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("logging.level должен быть одним из: debug, info, warn, error")
	}
}

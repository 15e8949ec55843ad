package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-log/cmd/bot/config"
	"telegram-chat-log/internal/bot"
	"telegram-chat-log/internal/log"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigFile, "путь к bot_config.yml")
	flag.Parse()

	// Загрузка конфигурации бота
	cfg, err := config.LoadBotConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load bot config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to validate bot config: %v\n", err)
		os.Exit(1)
	}

	// Инициализация логгера с маскировкой токенов и настройками из конфига
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.Logging.Level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging.level: %v\n", err)
		os.Exit(1)
	}
	logger := log.NewLogger(os.Stdout, level, cfg.Logging.Format)
	slog.SetDefault(logger)
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: logger.With(slog.String("component", "tgbotapi"))}); err != nil {
		slog.Warn("failed to set bot api logger", slog.String("error", err.Error()))
	}

	// Инициализация компонентов
	taskStore := bot.NewTaskStore()
	serverClient := bot.NewServerClient(cfg.Bot.BackendURL, cfg.Bot.HTTPTimeout)

	b, err := bot.NewBot(cfg.Bot, serverClient, taskStore, logger.With(slog.String("component", "bot")))
	if err != nil {
		slog.Error("failed to create bot", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("Bot created successfully, starting...", slog.String("backend", cfg.Bot.BackendURL))

	// Ожидание сигналов для graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start возвращается после отмены контекста и завершения опросов задач
	b.Start(ctx)

	slog.Info("Bot stopped gracefully")
}

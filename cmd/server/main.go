package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"telegram-chat-log/internal/adapters/exporter"
	"telegram-chat-log/internal/app"
	"telegram-chat-log/internal/cache"
	"telegram-chat-log/internal/core/services"
	"telegram-chat-log/internal/history"
	tglog "telegram-chat-log/internal/log"
	"telegram-chat-log/internal/pkg/config"
	"telegram-chat-log/internal/server"
	"telegram-chat-log/internal/server/usecase"
)

func main() {
	if err := run(); err != nil {
		slog.Error("application run failed", "error", err)
		os.Exit(1)
	}
}

// run инкапсулирует всю логику инициализации и запуска приложения.
func run() error {
	configPath := flag.String("config", config.DefaultConfigFile, "путь к config.yml")
	echo := flag.Bool("echo", false, "печатать новые сообщения целевого чата в stdout")
	flag.Parse()

	// 1. Загрузка конфигурации
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		// Логгер еще не инициализирован, выводим в stderr
		_, _ = fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализация логгера
	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	logger := tglog.NewLogger(os.Stdout, level, cfg.Logging.Format)
	slog.SetDefault(logger)

	// 3. Валидация конфигурации (после инициализации логгера)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// 4. Клиенты Telegram и фоновые сервисы
	appCtx, appCancel := context.WithCancel(context.Background())
	defer appCancel()

	sources, err := app.Build(appCtx, cfg, logger)
	if err != nil {
		return err
	}

	historySvc := services.NewHistoryService(sources.Chat, services.WithLogger(logger.With("component", "history")))
	cacheStore := cache.NewCacheStore()
	cacheStore.StartCleanupTicker(appCtx, cfg.Processing.CleanupInterval)
	fetchHistory := usecase.NewFetchHistoryUseCase(historySvc, cacheStore, cfg.Processing.CacheTTL)

	deps := server.Deps{
		History: fetchHistory,
		Dialogs: sources.Chat,
		Tasks:   server.NewTaskStore(),
	}

	// 5. Журнал целевого чата, если доступен поток новых сообщений
	streamDone := make(chan struct{})
	if stream, streamErr := sources.RequireStream(); streamErr == nil && cfg.Chat.TargetChat != 0 {
		buffer := history.NewBuffer(cfg.Chat.BufferCapacity)
		deps.Log = buffer

		opts := []services.StreamOption{services.WithStreamLogger(logger.With("component", "stream_logger"))}
		if *echo {
			opts = append(opts, services.WithSink(exporter.NewConsoleExporter()))
		}
		streamLogger := services.NewStreamLogger(stream, buffer, cfg.Chat.TargetChat, opts...)

		go func() {
			defer close(streamDone)
			if err := streamLogger.Run(appCtx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("Stream logger stopped", "error", err)
			}
		}()
	} else {
		close(streamDone)
		slog.Info("Live log disabled", "target_chat", cfg.Chat.TargetChat, "reason", streamErr)
	}

	// 6. Создание HTTP-сервера
	srv, err := server.New(cfg, deps)
	if err != nil {
		sources.Close()
		return fmt.Errorf("failed to create server: %w", err)
	}

	// 7. Запуск сервера и graceful shutdown
	serverDone := make(chan struct{})
	go func() {
		defer close(serverDone)
		slog.Info("Starting server", "addr", cfg.Address())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Signal received, shutting down...")

	// Сначала отменяем контекст приложения, чтобы остановить фоновые процессы (клиенты Telegram)
	appCancel()
	<-streamDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	<-serverDone
	slog.Info("HTTP server stopped")

	sources.Close()

	slog.Info("Application exited gracefully")
	return nil
}

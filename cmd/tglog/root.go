package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"telegram-chat-log/internal/app"
	"telegram-chat-log/internal/core/services"
	tglog "telegram-chat-log/internal/log"
	"telegram-chat-log/internal/pkg/config"
)

const maxLimit = 1000

var (
	errNoChat   = errors.New("не задан чат: укажите --chat или chat.target_chat")
	errBadLimit = fmt.Errorf("число сообщений должно быть от 0 до %d", maxLimit)
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "tglog",
		Short:         "Журнал одного чата Telegram",
		SilenceUsage:  true,
	}

	cmd.PersistentFlags().String("config", config.DefaultConfigFile, "Путь к config.yml.")
	cmd.PersistentFlags().Int64("chat", 0, "ID чата; по умолчанию chat.target_chat.")
	cmd.PersistentFlags().String("export-file", "", "Читать историю из result.json экспорта Telegram Desktop; \"-\" читает stdin.")

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newDialogsCmd())
	cmd.AddCommand(newHistoryCmd())
	cmd.AddCommand(newTailCmd())
	cmd.AddCommand(newExportCmd())

	return cmd
}

// loadConfig читает конфигурацию, применяет флаги и настраивает логгер. Логи идут в stderr,
// stdout остается для вывода сообщений.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}

	if chat, _ := cmd.Flags().GetInt64("chat"); chat != 0 {
		cfg.Chat.TargetChat = chat
	}
	if exportFile, _ := cmd.Flags().GetString("export-file"); exportFile != "" {
		cfg.Chat.ExportFile = exportFile
	}

	level, err := cfg.Logging.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	logger := tglog.NewLogger(os.Stderr, level, cfg.Logging.Format)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, logger, nil
}

// session — собранные клиенты для одной команды.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	sources *app.Sources
	history *services.HistoryService
}

func openSession(ctx context.Context, cmd *cobra.Command) (*session, error) {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	sources, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:     cfg,
		log:     logger,
		sources: sources,
		history: services.NewHistoryService(sources.Chat, services.WithLogger(logger.With("component", "history"))),
	}, nil
}

func (s *session) chatID() (int64, error) {
	if s.cfg.Chat.TargetChat == 0 {
		return 0, errNoChat
	}
	return s.cfg.Chat.TargetChat, nil
}

func (s *session) Close() {
	s.sources.Close()
}

// checkLimitFlag проверяет флаг с числом сообщений до открытия сессии.
func checkLimitFlag(cmd *cobra.Command, name string) error {
	n, err := cmd.Flags().GetInt(name)
	if err != nil {
		return err
	}
	if n < 0 || n > maxLimit {
		return fmt.Errorf("--%s=%d: %w", name, n, errBadLimit)
	}
	return nil
}

// signalContext отменяется по SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}

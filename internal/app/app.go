// Package app собирает источники сообщений из конфигурации. Общий код
// для HTTP-сервера и консольной утилиты.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"telegram-chat-log/internal/adapters/parser"
	"telegram-chat-log/internal/adapters/source"
	"telegram-chat-log/internal/botapi"
	"telegram-chat-log/internal/pkg/config"
	"telegram-chat-log/internal/ports"
	"telegram-chat-log/internal/telegram/router"
)

// StdinPath в chat.export_file означает чтение экспорта из stdin.
const StdinPath = "-"

var stdin io.Reader = os.Stdin

// ErrNoStream возвращается, когда живой режим недоступен: нет ни бота, ни MTProto-сессий.
var ErrNoStream = errors.New("живой режим недоступен: нужен bot.token или telegram_api")

// Sources — источники сообщений, собранные из конфигурации.
type Sources struct {
	// Chat — клиент для истории и списка диалогов.
	Chat ports.ChatClient
	// Stream — поток новых сообщений, nil если живой режим недоступен.
	Stream ports.MessageStream

	stop []func()
}

// Close останавливает запущенные клиенты.
func (s *Sources) Close() {
	for i := len(s.stop) - 1; i >= 0; i-- {
		s.stop[i]()
	}
}

// Build создает клиентов по конфигурации. Файл экспорта важнее MTProto-сессий;
// бот, если задан его токен, важнее потока первой сессии.
// Клиенты работают, пока не отменен ctx или не вызван Close.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Sources, error) {
	s := &Sources{}
	var tgRouter *router.Router

	if cfg.Chat.ExportFile != "" {
		src, err := exportSource(cfg.Chat.ExportFile)
		if err != nil {
			return nil, err
		}
		s.Chat = source.NewExportClient(src, parser.NewJsonParser(), logger)
		logger.Info("Using chat export as history source", "path", cfg.Chat.ExportFile)
	} else {
		var err error
		tgRouter, err = router.NewRouter(ctx,
			router.WithLogger(logger.With("component", "router")),
			router.WithServerConfigs(cfg.GetTelegramServers(), cfg.TelegramAPI.PageSize),
			router.WithHealthCheckInterval(cfg.TelegramAPI.HealthCheckInterval),
			router.WithClientRetryPause(cfg.TelegramAPI.ClientRetryPause),
			router.WithClientWaitTimeout(cfg.TelegramAPI.ClientWaitTimeout),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to create telegram router: %w", err)
		}
		s.Chat = tgRouter
		s.Stream = tgRouter
		s.stop = append(s.stop, tgRouter.Stop)
	}

	if cfg.Bot.Token != "" {
		stream, err := botapi.NewStream(cfg.Bot.Token, botapi.WithLogger(logger.With("component", "botapi")))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to start bot stream: %w", err)
		}

		streamCtx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})
		go func() {
			defer close(done)
			stream.Run(streamCtx)
		}()
		s.stop = append(s.stop, func() {
			cancel()
			<-done
		})
		s.Stream = stream
	}

	return s, nil
}

// exportSource открывает файл экспорта; "-" означает stdin, который читается целиком сразу.
func exportSource(path string) (ports.DataSource, error) {
	if path != StdinPath {
		return source.NewFileSource(path), nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return nil, fmt.Errorf("failed to read export from stdin: %w", err)
	}
	return source.NewMemorySource(data), nil
}

// RequireStream возвращает поток новых сообщений или ErrNoStream.
func (s *Sources) RequireStream() (ports.MessageStream, error) {
	if s.Stream == nil {
		return nil, ErrNoStream
	}
	return s.Stream, nil
}

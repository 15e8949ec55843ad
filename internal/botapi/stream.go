// Package botapi поставляет новые сообщения чата через Bot API: бот, добавленный
// в чат, получает обновления длинным опросом.
package botapi

import (
	"context"
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/log"
	"telegram-chat-log/internal/ports"
)

const (
	pollTimeout       = 60
	updatesBufferSize = 64
)

// updatesAPI — часть tgbotapi.BotAPI, которая нужна потоку. Позволяет подменять API в тестах.
type updatesAPI interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Option — функциональная опция для настройки Stream.
type Option func(*Stream)

// WithLogger устанавливает логгер.
func WithLogger(l *slog.Logger) Option {
	return func(s *Stream) {
		if l != nil {
			s.log = l
		}
	}
}

// Stream читает обновления Bot API и переводит сообщения в IncomingMessage.
type Stream struct {
	api     updatesAPI
	log     *slog.Logger
	updates chan domain.IncomingMessage
}

var _ ports.MessageStream = (*Stream)(nil)

// NewStream авторизует бота по токену и создает поток.
func NewStream(token string, opts ...Option) (*Stream, error) {
	s := newStream(nil, opts...)

	// Логи библиотеки идут через slog и проходят маскировку токена.
	if err := tgbotapi.SetLogger(&log.TGBotAPIAdapter{Logger: s.log}); err != nil {
		return nil, fmt.Errorf("failed to set bot api logger: %w", err)
	}

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}
	s.log.Info("Authorized on account", slog.String("username", api.Self.UserName))

	s.api = api
	return s, nil
}

func newStream(api updatesAPI, opts ...Option) *Stream {
	s := &Stream{
		api:     api,
		log:     slog.Default().With("component", "botapi"),
		updates: make(chan domain.IncomingMessage, updatesBufferSize),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Updates возвращает канал новых сообщений. Канал закрывается, когда Run завершается.
func (s *Stream) Updates() <-chan domain.IncomingMessage {
	return s.updates
}

// Run получает обновления до отмены контекста.
func (s *Stream) Run(ctx context.Context) {
	defer close(s.updates)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	u.AllowedUpdates = []string{"message", "channel_post"}

	updates := s.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Context cancelled, stopping bot updates...")
			s.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				s.log.Info("Bot updates channel closed")
				return
			}

			msg := update.Message
			if msg == nil {
				msg = update.ChannelPost
			}
			if msg == nil || msg.Chat == nil {
				continue
			}

			incoming := domain.IncomingMessage{ChatID: msg.Chat.ID, Message: MapMessage(msg)}
			select {
			case s.updates <- incoming:
			case <-ctx.Done():
				s.api.StopReceivingUpdates()
				return
			}
		}
	}
}

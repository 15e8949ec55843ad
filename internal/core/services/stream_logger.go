package services

import (
	"context"
	"log/slog"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/history"
	"telegram-chat-log/internal/ports"
)

// StreamOption — функциональная опция для настройки StreamLogger.
type StreamOption func(*StreamLogger)

// WithStreamLogger устанавливает логгер.
func WithStreamLogger(l *slog.Logger) StreamOption {
	return func(s *StreamLogger) {
		if l != nil {
			s.log = l
		}
	}
}

// WithSink добавляет получателя, которому передается каждое новое сообщение.
func WithSink(e ports.Exporter) StreamOption {
	return func(s *StreamLogger) {
		s.sink = e
	}
}

// StreamLogger ведет журнал одного чата: читает поток обновлений, отбирает сообщения
// целевого чата, нормализует их и складывает в буфер. Это единственный писатель буфера.
type StreamLogger struct {
	stream     ports.MessageStream
	normalizer ports.Normalizer
	buffer     *history.Buffer
	chatID     int64
	sink       ports.Exporter
	log        *slog.Logger
}

// NewStreamLogger создает журнал чата chatID поверх потока stream.
func NewStreamLogger(stream ports.MessageStream, buffer *history.Buffer, chatID int64, opts ...StreamOption) *StreamLogger {
	s := &StreamLogger{
		stream: stream,
		buffer: buffer,
		chatID: chatID,
		log:    slog.Default().With("component", "stream_logger"),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.normalizer = NewNormalizer(s.log)
	return s
}

// Run читает поток до отмены контекста или закрытия канала обновлений.
func (s *StreamLogger) Run(ctx context.Context) error {
	updates := s.stream.Updates()
	s.log.InfoContext(ctx, "Stream logger started", "chat_id", s.chatID)

	for {
		select {
		case <-ctx.Done():
			s.log.InfoContext(ctx, "Stream logger stopped", "chat_id", s.chatID)
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				s.log.InfoContext(ctx, "Update stream closed", "chat_id", s.chatID)
				return nil
			}
			s.handle(ctx, update)
		}
	}
}

func (s *StreamLogger) handle(ctx context.Context, update domain.IncomingMessage) {
	if update.ChatID != s.chatID {
		s.log.DebugContext(ctx, "Skipping message from another chat", "chat_id", update.ChatID, "message_id", update.Message.ID)
		return
	}

	msg := s.normalizer.Normalize(update.Message, update.ChatID)
	s.buffer.Append(msg)

	if s.sink == nil {
		return
	}
	if err := s.sink.Export([]domain.NormalizedMessage{msg}); err != nil {
		s.log.WarnContext(ctx, "Failed to export message", "message_id", msg.ID, "error", err)
	}
}

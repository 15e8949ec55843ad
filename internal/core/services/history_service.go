package services

import (
	"context"
	"fmt"
	"log/slog"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

const initialBatchCap = 100

// Option — функциональная опция для настройки HistoryService.
type Option func(*HistoryService)

// WithLogger устанавливает логгер для сервиса.
func WithLogger(l *slog.Logger) Option {
	return func(s *HistoryService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithNormalizer подменяет нормализатор сообщений.
func WithNormalizer(n ports.Normalizer) Option {
	return func(s *HistoryService) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// HistoryService загружает историю чата через клиента и нормализует ее.
type HistoryService struct {
	client     ports.ChatClient
	normalizer ports.Normalizer
	log        *slog.Logger
}

var _ ports.HistoryFetcher = (*HistoryService)(nil)

// NewHistoryService создает новый HistoryService.
func NewHistoryService(client ports.ChatClient, opts ...Option) *HistoryService {
	s := &HistoryService{
		client: client,
		log:    slog.Default().With("component", "history"),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.normalizer == nil {
		s.normalizer = NewNormalizer(s.log)
	}

	return s
}

// FetchHistory возвращает до limit последних сообщений чата в порядке от старых к новым.
// Клиент отдает сообщения от новых к старым, по одному; загрузка прекращается, как только
// сообщения заканчиваются. Любая ошибка клиента отменяет весь пакет.
func (s *HistoryService) FetchHistory(ctx context.Context, chatID int64, limit int) ([]domain.NormalizedMessage, error) {
	iter, err := s.client.History(ctx, chatID)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to open chat history", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("не удалось открыть историю чата %d: %w", chatID, err)
	}
	if limit <= 0 {
		return []domain.NormalizedMessage{}, nil
	}

	// limit приходит от вызывающего и может быть сколь угодно большим.
	messages := make([]domain.NormalizedMessage, 0, min(limit, initialBatchCap))
	for len(messages) < limit {
		raw, ok, err := iter.Next(ctx)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to fetch message, discarding batch",
				"chat_id", chatID, "fetched", len(messages), "error", err)
			return nil, fmt.Errorf("не удалось получить сообщение чата %d: %w", chatID, err)
		}
		if !ok {
			s.log.DebugContext(ctx, "No more messages in chat", "chat_id", chatID, "fetched", len(messages))
			break
		}
		messages = append(messages, s.normalizer.Normalize(raw, chatID))
	}

	// Разворачиваем: от старых к новым.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	s.log.InfoContext(ctx, "Chat history fetched", "chat_id", chatID, "count", len(messages), "limit", limit)
	return messages, nil
}

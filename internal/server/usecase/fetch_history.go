package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"telegram-chat-log/internal/cache"
	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

// FetchHistoryUseCase отдает последние сообщения чата, повторно используя
// недавно загруженные пакеты.
type FetchHistoryUseCase struct {
	fetcher    ports.HistoryFetcher
	cacheStore *cache.CacheStore
	ttl        time.Duration
	log        *slog.Logger
}

// NewFetchHistoryUseCase создает новый экземпляр FetchHistoryUseCase.
// При ttl <= 0 кэш не используется.
func NewFetchHistoryUseCase(fetcher ports.HistoryFetcher, cacheStore *cache.CacheStore, ttl time.Duration) *FetchHistoryUseCase {
	return &FetchHistoryUseCase{
		fetcher:    fetcher,
		cacheStore: cacheStore,
		ttl:        ttl,
		log:        slog.Default().With("component", "fetch_history"),
	}
}

// FetchHistory возвращает до limit сообщений от старых к новым.
// refresh заставляет загрузить историю заново, минуя кэш.
func (uc *FetchHistoryUseCase) FetchHistory(ctx context.Context, chatID int64, limit int, refresh bool) ([]domain.NormalizedMessage, error) {
	key := cache.Key(chatID, limit)
	useCache := uc.cacheStore != nil && uc.ttl > 0

	if useCache {
		if refresh {
			uc.cacheStore.InvalidateChat(chatID)
		} else if item, found := uc.cacheStore.Get(key); found {
			uc.log.DebugContext(ctx, "Cache hit", "chat_id", chatID, "limit", limit)
			return item.Data, nil
		}
	}

	messages, err := uc.fetcher.FetchHistory(ctx, chatID, limit)
	if err != nil {
		return nil, fmt.Errorf("не удалось загрузить историю: %w", err)
	}

	if useCache {
		uc.cacheStore.Put(key, messages, uc.ttl)
		uc.log.DebugContext(ctx, "History cached", "chat_id", chatID, "limit", limit, "ttl", uc.ttl.String())
	}
	return messages, nil
}

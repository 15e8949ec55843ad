package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"telegram-chat-log/internal/domain"
)

// CacheItem представляет кэшированный пакет истории.
type CacheItem struct {
	Data      []domain.NormalizedMessage
	ExpiresAt time.Time
}

// CacheStore хранит загруженные пакеты истории с ограниченным сроком жизни.
type CacheStore struct {
	cache map[string]*CacheItem
	mutex sync.RWMutex
	now   func() time.Time
}

// NewCacheStore создает новый экземпляр CacheStore.
func NewCacheStore() *CacheStore {
	return &CacheStore{
		cache: make(map[string]*CacheItem),
		now:   time.Now,
	}
}

// Key строит ключ пакета: один и тот же чат с разным лимитом кэшируется отдельно.
func Key(chatID int64, limit int) string {
	return strconv.FormatInt(chatID, 10) + ":" + strconv.Itoa(limit)
}

// Get извлекает кэшированный пакет по ключу. Возвращаемые данные можно изменять.
func (cs *CacheStore) Get(key string) (*CacheItem, bool) {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()

	item, exists := cs.cache[key]
	if !exists || cs.now().After(item.ExpiresAt) {
		return nil, false
	}

	return &CacheItem{Data: cloneMessages(item.Data), ExpiresAt: item.ExpiresAt}, true
}

// Put сохраняет копию пакета на время ttl.
func (cs *CacheStore) Put(key string, data []domain.NormalizedMessage, ttl time.Duration) {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	cs.cache[key] = &CacheItem{
		Data:      cloneMessages(data),
		ExpiresAt: cs.now().Add(ttl),
	}
}

// InvalidateChat удаляет все пакеты чата, независимо от лимита.
func (cs *CacheStore) InvalidateChat(chatID int64) {
	prefix := strconv.FormatInt(chatID, 10) + ":"

	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	for key := range cs.cache {
		if strings.HasPrefix(key, prefix) {
			delete(cs.cache, key)
		}
	}
}

// Len возвращает число записей, включая еще не удаленные просроченные.
func (cs *CacheStore) Len() int {
	cs.mutex.RLock()
	defer cs.mutex.RUnlock()
	return len(cs.cache)
}

// CleanupExpired удаляет просроченные элементы из кэша.
func (cs *CacheStore) CleanupExpired() {
	cs.mutex.Lock()
	defer cs.mutex.Unlock()

	now := cs.now()
	for key, item := range cs.cache {
		if now.After(item.ExpiresAt) {
			delete(cs.cache, key)
		}
	}
}

// StartCleanupTicker запускает периодическую очистку до отмены контекста.
func (cs *CacheStore) StartCleanupTicker(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				cs.CleanupExpired()
			}
		}
	}()
}

func cloneMessages(in []domain.NormalizedMessage) []domain.NormalizedMessage {
	if in == nil {
		return nil
	}
	out := make([]domain.NormalizedMessage, len(in))
	copy(out, in)
	return out
}

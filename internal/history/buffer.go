// Package history хранит ограниченную по размеру ленту последних нормализованных сообщений.
package history

import (
	"sync"

	"telegram-chat-log/internal/domain"
)

// Buffer — кольцевой буфер нормализованных сообщений фиксированной емкости.
// При заполнении вытесняется самое старое сообщение. Предполагается один писатель;
// Snapshot можно вызывать параллельно с Append.
type Buffer struct {
	mu    sync.RWMutex
	items []domain.NormalizedMessage
	head  int // индекс самого старого сообщения
	size  int
}

// NewBuffer создает пустой буфер емкостью maxSize. Отрицательная емкость считается нулевой.
func NewBuffer(maxSize int) *Buffer {
	if maxSize < 0 {
		maxSize = 0
	}
	return &Buffer{items: make([]domain.NormalizedMessage, maxSize)}
}

// Append добавляет сообщение в конец, вытесняя самое старое, если буфер полон.
func (b *Buffer) Append(msg domain.NormalizedMessage) {
	b.mu.Lock()
	defer b.mu.Unlock()

	capacity := len(b.items)
	if capacity == 0 {
		return
	}

	if b.size == capacity {
		b.items[b.head] = msg
		b.head = (b.head + 1) % capacity
		return
	}

	b.items[(b.head+b.size)%capacity] = msg
	b.size++
}

// Snapshot возвращает копию содержимого от старых сообщений к новым.
func (b *Buffer) Snapshot() []domain.NormalizedMessage {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.NormalizedMessage, 0, b.size)
	for i := 0; i < b.size; i++ {
		out = append(out, b.items[(b.head+i)%len(b.items)])
	}
	return out
}

// Len возвращает текущее количество сообщений.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Cap возвращает емкость буфера.
func (b *Buffer) Cap() int {
	return len(b.items)
}

package router

import (
	"sort"
	"sync/atomic"

	"telegram-chat-log/internal/ports"
)

// RoundRobinStrategy выбирает клиентов по кругу.
type RoundRobinStrategy struct {
	// currentIndex хранит индекс последнего выбранного клиента.
	currentIndex atomic.Uint32
}

// NewRoundRobinStrategy создает новую Round Robin стратегию.
func NewRoundRobinStrategy() *RoundRobinStrategy {
	return &RoundRobinStrategy{}
}

// Next возвращает следующего клиента. Клиенты упорядочиваются по ID,
// так что порядок обхода не зависит от порядка среза.
func (s *RoundRobinStrategy) Next(clients []ports.TelegramClient) (ports.TelegramClient, error) {
	if len(clients) == 0 {
		return nil, ErrNoHealthyClients
	}

	ordered := make([]ports.TelegramClient, len(clients))
	copy(ordered, clients)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID() < ordered[j].ID() })

	idx := s.currentIndex.Add(1) - 1
	return ordered[idx%uint32(len(ordered))], nil
}

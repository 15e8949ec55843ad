package router

import (
	"testing"

	"github.com/stretchr/testify/require"

	"telegram-chat-log/internal/ports"
)

func TestRoundRobinStrategy(t *testing.T) {
	t.Run("Клиенты выбираются по кругу", func(t *testing.T) {
		clients := []ports.TelegramClient{
			newMockClient("client-1", true),
			newMockClient("client-2", true),
			newMockClient("client-3", true),
		}
		strategy := NewRoundRobinStrategy()

		for _, want := range []string{"client-1", "client-2", "client-3", "client-1"} {
			c, err := strategy.Next(clients)
			require.NoError(t, err)
			require.Equal(t, want, c.ID())
		}
	})

	t.Run("Порядок не зависит от порядка среза", func(t *testing.T) {
		strategy := NewRoundRobinStrategy()

		c, err := strategy.Next([]ports.TelegramClient{newMockClient("b", true), newMockClient("a", true)})
		require.NoError(t, err)
		require.Equal(t, "a", c.ID())

		c, err = strategy.Next([]ports.TelegramClient{newMockClient("a", true), newMockClient("b", true)})
		require.NoError(t, err)
		require.Equal(t, "b", c.ID())
	})

	t.Run("Пустой пул", func(t *testing.T) {
		_, err := NewRoundRobinStrategy().Next([]ports.TelegramClient{})
		require.ErrorIs(t, err, ErrNoHealthyClients)
	})
}

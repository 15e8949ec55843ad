package ports

import (
	"context"
)

// TelegramClient определяет публичный интерфейс для клиента Telegram, работающего с одной сессией.
type TelegramClient interface {
	ChatClient
	MessageStream
	Health(ctx context.Context) error
	ID() string
	Start(ctx context.Context)
}

// Router — пул сессий, который снаружи выглядит как один клиент чата.
// История и диалоги идут через здоровую сессию, поток обновлений через основную.
type Router interface {
	ChatClient
	MessageStream
	GetClient(ctx context.Context) (TelegramClient, error)
	Stop()
}

// Strategy определяет интерфейс для стратегии выбора клиента.
type Strategy interface {
	Next(clients []TelegramClient) (TelegramClient, error)
}

package ports

import (
	"context"

	"telegram-chat-log/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных чата.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для парсинга файла экспорта чата.
type Parser interface {
	// Parse преобразует сырые данные в структурированную модель чата.
	Parse(data []byte) (*domain.ExportedChat, error)
}

// MessageIterator последовательно отдает сообщения чата, начиная с самого нового.
type MessageIterator interface {
	// Next возвращает очередное сообщение. ok == false означает, что сообщений больше нет.
	Next(ctx context.Context) (msg domain.RawMessage, ok bool, err error)
}

// ChatClient определяет интерфейс клиента мессенджера, поставляющего сырые сообщения.
type ChatClient interface {
	// Dialogs возвращает список чатов, известных клиенту.
	Dialogs(ctx context.Context) ([]domain.Dialog, error)
	// History открывает историю чата. Возвращает domain.ErrChatNotFound,
	// если чата нет среди диалогов, и domain.ErrClientUnauthenticated без сессии.
	History(ctx context.Context, chatID int64) (MessageIterator, error)
}

// MessageStream поставляет новые сообщения в реальном времени.
type MessageStream interface {
	Updates() <-chan domain.IncomingMessage
}

// Normalizer преобразует сырое сообщение в нормализованную запись.
type Normalizer interface {
	Normalize(raw domain.RawMessage, chatID int64) domain.NormalizedMessage
}

// HistoryFetcher загружает последние сообщения чата в порядке от старых к новым.
type HistoryFetcher interface {
	FetchHistory(ctx context.Context, chatID int64, limit int) ([]domain.NormalizedMessage, error)
}

// Exporter определяет интерфейс для вывода результата.
type Exporter interface {
	// Export принимает список сообщений и выводит их.
	Export(messages []domain.NormalizedMessage) error
}

package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

// mockChatClient — мок для интерфейса ports.ChatClient.
type mockChatClient struct {
	mock.Mock
}

func (m *mockChatClient) Dialogs(ctx context.Context) ([]domain.Dialog, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]domain.Dialog), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockChatClient) History(ctx context.Context, chatID int64) (ports.MessageIterator, error) {
	args := m.Called(ctx, chatID)
	if res := args.Get(0); res != nil {
		return res.(ports.MessageIterator), args.Error(1)
	}
	return nil, args.Error(1)
}

// sliceIterator отдает сообщения из среза, от новых к старым, и затем ошибку failAt, если она задана.
type sliceIterator struct {
	messages []domain.RawMessage
	pos      int
	failAt   int
	err      error
	calls    int
}

func (it *sliceIterator) Next(ctx context.Context) (domain.RawMessage, bool, error) {
	it.calls++
	if it.err != nil && it.pos == it.failAt {
		return domain.RawMessage{}, false, it.err
	}
	if it.pos >= len(it.messages) {
		return domain.RawMessage{}, false, nil
	}
	msg := it.messages[it.pos]
	it.pos++
	return msg, true, nil
}

// newestFirst строит сообщения с id от n до 1.
func newestFirst(n int) []domain.RawMessage {
	messages := make([]domain.RawMessage, 0, n)
	for id := n; id >= 1; id-- {
		messages = append(messages, domain.RawMessage{ID: id, Timestamp: int64(id), SenderName: "Alice", Body: "msg"})
	}
	return messages
}

// collectingExporter накапливает переданные сообщения.
type collectingExporter struct {
	mock.Mock
}

func (m *collectingExporter) Export(messages []domain.NormalizedMessage) error {
	args := m.Called(messages)
	return args.Error(0)
}

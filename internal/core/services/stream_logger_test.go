package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/history"
)

type chanStream struct {
	ch chan domain.IncomingMessage
}

func (s *chanStream) Updates() <-chan domain.IncomingMessage { return s.ch }

func TestStreamLogger_Run(t *testing.T) {
	t.Run("Сохраняет только сообщения целевого чата", func(t *testing.T) {
		stream := &chanStream{ch: make(chan domain.IncomingMessage, 4)}
		buffer := history.NewBuffer(10)

		stream.ch <- domain.IncomingMessage{ChatID: 5, Message: domain.RawMessage{ID: 1, Body: "one"}}
		stream.ch <- domain.IncomingMessage{ChatID: 6, Message: domain.RawMessage{ID: 2, Body: "other chat"}}
		stream.ch <- domain.IncomingMessage{ChatID: 5, Message: domain.RawMessage{ID: 3, Attachment: domain.PhotoAttachment{}}}
		close(stream.ch)

		logger := NewStreamLogger(stream, buffer, 5, WithStreamLogger(discardLogger()))
		require.NoError(t, logger.Run(context.Background()))

		snapshot := buffer.Snapshot()
		require.Len(t, snapshot, 2)
		assert.Equal(t, 1, snapshot[0].ID)
		assert.Equal(t, "one", snapshot[0].DisplayText)
		assert.Equal(t, 3, snapshot[1].ID)
		assert.Equal(t, domain.MessageTypePhoto, snapshot[1].MessageType)
		assert.Equal(t, int64(5), snapshot[1].ChatID)
	})

	t.Run("Передает сообщения получателю и переживает его ошибки", func(t *testing.T) {
		stream := &chanStream{ch: make(chan domain.IncomingMessage, 2)}
		buffer := history.NewBuffer(10)
		sink := new(collectingExporter)
		sink.On("Export", mock.Anything).Return(errors.New("disk full")).Once()
		sink.On("Export", mock.Anything).Return(nil).Once()

		stream.ch <- domain.IncomingMessage{ChatID: 1, Message: domain.RawMessage{ID: 1, Body: "a"}}
		stream.ch <- domain.IncomingMessage{ChatID: 1, Message: domain.RawMessage{ID: 2, Body: "b"}}
		close(stream.ch)

		logger := NewStreamLogger(stream, buffer, 1, WithStreamLogger(discardLogger()), WithSink(sink))
		require.NoError(t, logger.Run(context.Background()))

		assert.Equal(t, 2, buffer.Len())
		sink.AssertNumberOfCalls(t, "Export", 2)
	})

	t.Run("Останавливается по отмене контекста", func(t *testing.T) {
		stream := &chanStream{ch: make(chan domain.IncomingMessage)}
		buffer := history.NewBuffer(1)
		ctx, cancel := context.WithCancel(context.Background())

		logger := NewStreamLogger(stream, buffer, 1, WithStreamLogger(discardLogger()))
		done := make(chan error, 1)
		go func() { done <- logger.Run(ctx) }()

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(time.Second):
			t.Fatal("журнал не остановился после отмены контекста")
		}
	})
}

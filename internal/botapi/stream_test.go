package botapi

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUpdatesAPI struct {
	ch      chan tgbotapi.Update
	config  tgbotapi.UpdateConfig
	stopped atomic.Bool
}

func (f *fakeUpdatesAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	f.config = config
	return f.ch
}

func (f *fakeUpdatesAPI) StopReceivingUpdates() {
	f.stopped.Store(true)
}

func TestStream_Run(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("Сообщения и посты каналов попадают в поток", func(t *testing.T) {
		api := &fakeUpdatesAPI{ch: make(chan tgbotapi.Update, 3)}
		api.ch <- tgbotapi.Update{Message: &tgbotapi.Message{MessageID: 1, Chat: &tgbotapi.Chat{ID: 10}, Text: "a"}}
		api.ch <- tgbotapi.Update{EditedMessage: &tgbotapi.Message{MessageID: 2, Chat: &tgbotapi.Chat{ID: 10}}}
		api.ch <- tgbotapi.Update{ChannelPost: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: -100, Title: "News"}, Text: "b"}}
		close(api.ch)

		s := newStream(api, WithLogger(logger))
		s.Run(context.Background())

		var got []int
		for update := range s.Updates() {
			got = append(got, update.Message.ID)
		}
		assert.Equal(t, []int{1, 3}, got)
		assert.Equal(t, 60, api.config.Timeout)
		assert.Equal(t, []string{"message", "channel_post"}, api.config.AllowedUpdates)
	})

	t.Run("Отмена контекста останавливает опрос", func(t *testing.T) {
		api := &fakeUpdatesAPI{ch: make(chan tgbotapi.Update)}
		s := newStream(api, WithLogger(logger))

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			s.Run(ctx)
			close(done)
		}()

		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("поток не остановился")
		}
		require.True(t, api.stopped.Load())

		_, open := <-s.Updates()
		assert.False(t, open)
	})
}

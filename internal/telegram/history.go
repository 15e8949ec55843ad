package telegram

import (
	"context"
	"fmt"

	"github.com/gotd/td/tg"

	"telegram-chat-log/internal/domain"
)

// historyIterator постранично читает историю чата, от новых сообщений к старым.
type historyIterator struct {
	client *Client
	peer   tg.InputPeerClass
	chatID int64

	page      []domain.RawMessage
	offsetID  int
	exhausted bool
}

// Next возвращает очередное сообщение, при необходимости запрашивая следующую страницу.
func (it *historyIterator) Next(ctx context.Context) (domain.RawMessage, bool, error) {
	for len(it.page) == 0 {
		if it.exhausted {
			return domain.RawMessage{}, false, nil
		}
		if err := it.fetch(ctx); err != nil {
			return domain.RawMessage{}, false, err
		}
	}

	msg := it.page[0]
	it.page = it.page[1:]
	return msg, true, nil
}

func (it *historyIterator) fetch(ctx context.Context) error {
	limit := it.client.pageSize
	res, err := it.client.getHistory(ctx, &tg.MessagesGetHistoryRequest{
		Peer:     it.peer,
		OffsetID: it.offsetID,
		Limit:    limit,
	})
	if err != nil {
		return fmt.Errorf("не удалось получить историю чата %d: %w", it.chatID, err)
	}

	messages, users, chats := unpackMessages(res)
	if len(messages) < limit {
		it.exhausted = true
	}

	idx := newPeerIndex(users, chats)
	for _, m := range messages {
		if id := m.GetID(); it.offsetID == 0 || id < it.offsetID {
			it.offsetID = id
		}
		if _, raw, ok := idx.mapMessage(m); ok {
			it.page = append(it.page, raw)
		}
	}
	return nil
}

func unpackMessages(res tg.MessagesMessagesClass) ([]tg.MessageClass, []tg.UserClass, []tg.ChatClass) {
	switch r := res.(type) {
	case *tg.MessagesMessages:
		return r.Messages, r.Users, r.Chats
	case *tg.MessagesMessagesSlice:
		return r.Messages, r.Users, r.Chats
	case *tg.MessagesChannelMessages:
		return r.Messages, r.Users, r.Chats
	default:
		return nil, nil, nil
	}
}

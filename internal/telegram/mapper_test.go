package telegram

import (
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-chat-log/internal/domain"
)

func TestMarkedID(t *testing.T) {
	assert.Equal(t, int64(7), MarkedID(&tg.PeerUser{UserID: 7}))
	assert.Equal(t, int64(-12), MarkedID(&tg.PeerChat{ChatID: 12}))
	assert.Equal(t, int64(-1001234567890), MarkedID(&tg.PeerChannel{ChannelID: 1234567890}))
	assert.Equal(t, int64(0), MarkedID(nil))
}

func TestPeerIndex_MapMessage(t *testing.T) {
	idx := newPeerIndex(
		[]tg.UserClass{testUser(7, "Alice", ""), &tg.UserEmpty{ID: 8}},
		[]tg.ChatClass{&tg.Channel{ID: 55, AccessHash: 1, Title: "Go News"}},
	)
	channel := &tg.PeerChannel{ChannelID: 55}

	t.Run("Текст с форматированием и ответом", func(t *testing.T) {
		msg := textMessage(10, channel, &tg.PeerUser{UserID: 7}, "😀 bold")
		msg.Entities = []tg.MessageEntityClass{
			&tg.MessageEntityBold{Offset: 3, Length: 4},
			&tg.MessageEntityTextURL{Offset: 0, Length: 2, URL: "https://example.com"},
			&tg.MessageEntityStrike{Offset: 3, Length: 4},
		}
		header := &tg.MessageReplyHeader{}
		header.SetReplyToMsgID(9)
		msg.SetReplyTo(header)

		chatID, raw, ok := idx.mapMessage(msg)
		require.True(t, ok)

		assert.Equal(t, int64(-1000000000055), chatID)
		assert.Equal(t, 10, raw.ID)
		assert.Equal(t, int64(1700000010), raw.Timestamp)
		assert.Equal(t, "Alice", raw.SenderName)
		assert.Equal(t, "😀 bold", raw.Body)
		assert.Nil(t, raw.Attachment)
		require.NotNil(t, raw.ReplyToID)
		assert.Equal(t, 9, *raw.ReplyToID)

		require.Len(t, raw.Entities, 3)
		assert.Equal(t, domain.RawEntity{Offset: 2, Length: 4, Type: domain.EntityBold}, raw.Entities[0])
		assert.Equal(t, domain.RawEntity{Offset: 0, Length: 1, Type: domain.EntityTextLink, URL: "https://example.com"}, raw.Entities[1])
		assert.Equal(t, domain.EntityStrikethrough, raw.Entities[2].Type)
	})

	t.Run("Пост канала без автора подписывается названием канала", func(t *testing.T) {
		msg := textMessage(11, channel, nil, "announcement")
		msg.Post = true

		_, raw, ok := idx.mapMessage(msg)
		require.True(t, ok)
		assert.Equal(t, "Go News", raw.SenderName)
	})

	t.Run("Неизвестный отправитель остается пустым", func(t *testing.T) {
		_, raw, ok := idx.mapMessage(textMessage(12, &tg.PeerChat{ChatID: 99}, &tg.PeerUser{UserID: 100}, "hi"))
		require.True(t, ok)
		assert.Empty(t, raw.SenderName)
	})

	t.Run("Служебное сообщение", func(t *testing.T) {
		service := &tg.MessageService{ID: 13, Date: 5, PeerID: channel, Action: &tg.MessageActionChatEditTitle{Title: "New"}}

		_, raw, ok := idx.mapMessage(service)
		require.True(t, ok)
		assert.Empty(t, raw.Body)
		assert.Nil(t, raw.Attachment)
		assert.Equal(t, int64(5), raw.Timestamp)
	})

	t.Run("Пустое сообщение пропускается", func(t *testing.T) {
		_, _, ok := idx.mapMessage(&tg.MessageEmpty{ID: 14})
		assert.False(t, ok)
	})
}

func TestMapMedia(t *testing.T) {
	document := func(mime string, size int64, attrs ...tg.DocumentAttributeClass) tg.MessageMediaClass {
		media := &tg.MessageMediaDocument{}
		media.SetDocument(&tg.Document{ID: 1, MimeType: mime, Size: size, Attributes: attrs})
		return media
	}

	testCases := []struct {
		name  string
		media tg.MessageMediaClass
		want  domain.Attachment
	}{
		{"Без вложения", nil, nil},
		{"Пустое вложение", &tg.MessageMediaEmpty{}, nil},
		{"Фото", &tg.MessageMediaPhoto{}, domain.PhotoAttachment{}},
		{
			"Документ",
			document("application/pdf", 2048, &tg.DocumentAttributeFilename{FileName: "report.pdf"}),
			domain.DocumentAttachment{Name: "report.pdf", Size: 2048, MimeType: "application/pdf"},
		},
		{
			"Видео без имени файла",
			document("video/mp4", 10, &tg.DocumentAttributeVideo{W: 1, H: 1}),
			domain.DocumentAttachment{Size: 10, MimeType: "video/mp4"},
		},
		{
			"Стикер",
			document("image/webp", 5, &tg.DocumentAttributeSticker{Alt: "😀", Stickerset: &tg.InputStickerSetEmpty{}}),
			domain.StickerAttachment{},
		},
		{"Контакт", &tg.MessageMediaContact{PhoneNumber: "+1"}, domain.ContactAttachment{}},
		{"Опрос", &tg.MessageMediaPoll{}, domain.PollAttachment{}},
		{"Геопозиция", &tg.MessageMediaGeo{Geo: &tg.GeoPointEmpty{}}, domain.OtherAttachment{Kind: "messageMediaGeo"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, mapMedia(tc.media))
		})
	}
}

func TestEntityType_Unknown(t *testing.T) {
	assert.Equal(t, domain.EntityType("unknown"), entityType(&tg.MessageEntityUnknown{}))
}

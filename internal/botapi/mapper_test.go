package botapi

import (
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-chat-log/internal/domain"
)

func TestMapMessage(t *testing.T) {
	chat := &tgbotapi.Chat{ID: -1001234, Title: "Go Chat", Type: "supergroup"}

	t.Run("Текст с форматированием и ответом", func(t *testing.T) {
		msg := &tgbotapi.Message{
			MessageID:      20,
			Date:           1700000000,
			Chat:           chat,
			From:           &tgbotapi.User{ID: 7, FirstName: "Alice", LastName: "Smith"},
			ReplyToMessage: &tgbotapi.Message{MessageID: 19},
			Text:           "😀 call +123",
			Entities: []tgbotapi.MessageEntity{
				{Type: "phone_number", Offset: 8, Length: 4},
				{Type: "text_link", Offset: 0, Length: 2, URL: "https://example.com"},
			},
		}

		raw := MapMessage(msg)

		assert.Equal(t, 20, raw.ID)
		assert.Equal(t, int64(1700000000), raw.Timestamp)
		assert.Equal(t, "Alice Smith", raw.SenderName)
		assert.Equal(t, "😀 call +123", raw.Body)
		assert.Nil(t, raw.Attachment)
		require.NotNil(t, raw.ReplyToID)
		assert.Equal(t, 19, *raw.ReplyToID)
		require.Len(t, raw.Entities, 2)
		assert.Equal(t, domain.RawEntity{Offset: 7, Length: 4, Type: domain.EntityPhone}, raw.Entities[0])
		assert.Equal(t, domain.RawEntity{Offset: 0, Length: 1, Type: domain.EntityTextLink, URL: "https://example.com"}, raw.Entities[1])
	})

	t.Run("Подпись к фото становится текстом", func(t *testing.T) {
		msg := &tgbotapi.Message{
			MessageID:       21,
			Chat:            chat,
			From:            &tgbotapi.User{UserName: "bob"},
			Photo:           []tgbotapi.PhotoSize{{FileID: "p1"}},
			Caption:         "sunset",
			CaptionEntities: []tgbotapi.MessageEntity{{Type: "italic", Offset: 0, Length: 6}},
		}

		raw := MapMessage(msg)

		assert.Equal(t, "bob", raw.SenderName)
		assert.Equal(t, domain.PhotoAttachment{}, raw.Attachment)
		assert.Equal(t, "sunset", raw.Body)
		require.Len(t, raw.Entities, 1)
		assert.Equal(t, domain.EntityItalic, raw.Entities[0].Type)
	})

	t.Run("Пост канала подписывается названием чата", func(t *testing.T) {
		raw := MapMessage(&tgbotapi.Message{MessageID: 22, Chat: &tgbotapi.Chat{ID: -100, Title: "News"}, Text: "hi"})
		assert.Equal(t, "News", raw.SenderName)
	})

	testCases := []struct {
		name string
		msg  *tgbotapi.Message
		want domain.Attachment
	}{
		{
			"Документ",
			&tgbotapi.Message{Document: &tgbotapi.Document{FileName: "report.pdf", MimeType: "application/pdf", FileSize: 2048}},
			domain.DocumentAttachment{Name: "report.pdf", Size: 2048, MimeType: "application/pdf"},
		},
		{
			"Видео без MIME",
			&tgbotapi.Message{Video: &tgbotapi.Video{FileSize: 10}},
			domain.DocumentAttachment{Size: 10, MimeType: "video/mp4"},
		},
		{
			"Голосовое",
			&tgbotapi.Message{Voice: &tgbotapi.Voice{MimeType: "audio/ogg", FileSize: 3}},
			domain.DocumentAttachment{Size: 3, MimeType: "audio/ogg"},
		},
		{"Стикер", &tgbotapi.Message{Sticker: &tgbotapi.Sticker{FileID: "s"}}, domain.StickerAttachment{}},
		{"Контакт", &tgbotapi.Message{Contact: &tgbotapi.Contact{PhoneNumber: "+1"}}, domain.ContactAttachment{}},
		{"Опрос", &tgbotapi.Message{Poll: &tgbotapi.Poll{Question: "?"}}, domain.PollAttachment{}},
		{"Геопозиция", &tgbotapi.Message{Location: &tgbotapi.Location{}}, domain.OtherAttachment{Kind: "location"}},
		{"Без вложения", &tgbotapi.Message{Text: "x"}, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.msg.Chat = chat
			assert.Equal(t, tc.want, MapMessage(tc.msg).Attachment)
		})
	}
}

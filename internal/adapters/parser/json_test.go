package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJsonParser(t *testing.T) {
	t.Run("Разбор корректного экспорта", func(t *testing.T) {
		data := `{
			"name": "Test Chat",
			"type": "private_supergroup",
			"id": 12345,
			"messages": [
				{
					"id": 1,
					"type": "message",
					"date": "2023-01-01T00:00:00",
					"date_unixtime": "1672531200",
					"from": "John Doe",
					"from_id": "user123",
					"reply_to_message_id": 0,
					"text": [{"type": "bold", "text": "Hello"}, ", World!"],
					"text_entities": [
						{"type": "bold", "text": "Hello"},
						{"type": "plain", "text": ", World!"}
					]
				}
			]
		}`

		chat, err := NewJsonParser().Parse([]byte(data))
		require.NoError(t, err)

		assert.Equal(t, "Test Chat", chat.Name)
		assert.Equal(t, "private_supergroup", chat.Type)
		assert.Equal(t, int64(12345), chat.ID)
		require.Len(t, chat.Messages, 1)

		msg := chat.Messages[0]
		assert.Equal(t, 1, msg.ID)
		assert.Equal(t, int64(1672531200), msg.Unixtime())
		require.Len(t, msg.TextEntities, 2)
		assert.Equal(t, "bold", msg.TextEntities[0].Type)
	})

	t.Run("Некорректный JSON", func(t *testing.T) {
		chat, err := NewJsonParser().Parse([]byte(`{"name": "Test Chat", "invalid_json":}`))
		assert.Error(t, err)
		assert.Nil(t, chat)
	})

	t.Run("Пустой файл", func(t *testing.T) {
		chat, err := NewJsonParser().Parse([]byte("  \n"))
		assert.ErrorIs(t, err, ErrEmptyExport)
		assert.Nil(t, chat)
	})

	t.Run("Экспорт всего аккаунта не подходит", func(t *testing.T) {
		chat, err := NewJsonParser().Parse([]byte(`{"about": "...", "chats": {"list": []}}`))
		assert.ErrorIs(t, err, ErrNotSingleChat)
		assert.Nil(t, chat)
	})

	t.Run("Чат без сообщений допустим", func(t *testing.T) {
		chat, err := NewJsonParser().Parse([]byte(`{"name": "Empty", "type": "personal_chat", "id": 5, "messages": []}`))
		require.NoError(t, err)
		assert.Empty(t, chat.Messages)
	})
}

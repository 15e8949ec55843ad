package domain

import (
	"encoding/json"
	"strconv"
)

// ExportedChat представляет корневую структуру файла экспорта Telegram Desktop (result.json).
type ExportedChat struct {
	Name     string    `json:"name"`
	Type     string    `json:"type"`
	ID       int64     `json:"id"`
	Messages []Message `json:"messages"`
}

// Message представляет одно сообщение в файле экспорта.
type Message struct {
	ID               int             `json:"id"`
	Type             string          `json:"type"`
	Date             string          `json:"date"`
	DateUnixtime     string          `json:"date_unixtime"`
	From             string          `json:"from"`
	FromID           string          `json:"from_id"`
	Actor            string          `json:"actor"`
	ActorID          string          `json:"actor_id"`
	ReplyToMessageID int             `json:"reply_to_message_id"`
	Photo            string          `json:"photo"`
	File             string          `json:"file"`
	FileName         string          `json:"file_name"`
	FileSize         int64           `json:"file_size"`
	MimeType         string          `json:"mime_type"`
	MediaType        string          `json:"media_type"`
	StickerEmoji     string          `json:"sticker_emoji"`
	Contact          json.RawMessage `json:"contact_information"`
	Poll             json.RawMessage `json:"poll"`
	Location         json.RawMessage `json:"location_information"`
	Text             json.RawMessage `json:"text"` // Может быть строкой или массивом
	TextEntities     []TextEntity    `json:"text_entities"`
}

// TextEntity представляет "богатую" часть текста (упоминание, ссылка и т.д.).
// В экспорте весь текст сообщения разбит на такие сегменты подряд, включая "plain".
type TextEntity struct {
	Type string `json:"type"`
	Text string `json:"text"`
	Href string `json:"href,omitempty"`
}

// Unixtime возвращает время сообщения в секундах. Для старых экспортов без
// date_unixtime возвращается 0.
func (m Message) Unixtime() int64 {
	ts, err := strconv.ParseInt(m.DateUnixtime, 10, 64)
	if err != nil {
		return 0
	}
	return ts
}

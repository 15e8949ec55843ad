package botapi

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/pkg/textpos"
)

// MapMessage переводит сообщение Bot API в сырое сообщение.
// Для медиа текстом сообщения считается подпись.
func MapMessage(msg *tgbotapi.Message) domain.RawMessage {
	raw := domain.RawMessage{
		ID:         msg.MessageID,
		Timestamp:  int64(msg.Date),
		SenderName: senderName(msg),
		Attachment: mapAttachment(msg),
	}

	if msg.ReplyToMessage != nil {
		id := msg.ReplyToMessage.MessageID
		raw.ReplyToID = &id
	}

	if msg.Text != "" {
		raw.Body = msg.Text
		raw.Entities = mapEntities(msg.Text, msg.Entities)
	} else {
		raw.Body = msg.Caption
		raw.Entities = mapEntities(msg.Caption, msg.CaptionEntities)
	}

	return raw
}

func senderName(msg *tgbotapi.Message) string {
	if msg.From != nil {
		name := strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
		if name == "" {
			name = msg.From.UserName
		}
		return name
	}
	if msg.SenderChat != nil {
		return msg.SenderChat.Title
	}
	if msg.Chat != nil {
		return msg.Chat.Title
	}
	return ""
}

func mapAttachment(msg *tgbotapi.Message) domain.Attachment {
	switch {
	case len(msg.Photo) > 0:
		return domain.PhotoAttachment{}
	case msg.Sticker != nil:
		return domain.StickerAttachment{}
	case msg.Document != nil:
		return domain.DocumentAttachment{
			Name:     msg.Document.FileName,
			Size:     int64(msg.Document.FileSize),
			MimeType: msg.Document.MimeType,
		}
	case msg.Video != nil:
		return domain.DocumentAttachment{Size: int64(msg.Video.FileSize), MimeType: mimeOr(msg.Video.MimeType, "video/mp4")}
	case msg.Audio != nil:
		return domain.DocumentAttachment{Size: int64(msg.Audio.FileSize), MimeType: mimeOr(msg.Audio.MimeType, "audio/mpeg")}
	case msg.Voice != nil:
		return domain.DocumentAttachment{Size: int64(msg.Voice.FileSize), MimeType: mimeOr(msg.Voice.MimeType, "audio/ogg")}
	case msg.Contact != nil:
		return domain.ContactAttachment{}
	case msg.Poll != nil:
		return domain.PollAttachment{}
	case msg.Venue != nil:
		return domain.OtherAttachment{Kind: "venue"}
	case msg.Location != nil:
		return domain.OtherAttachment{Kind: "location"}
	default:
		return nil
	}
}

func mimeOr(mimeType, fallback string) string {
	if mimeType == "" {
		return fallback
	}
	return mimeType
}

// mapEntities переводит фрагменты Bot API (смещения в UTF-16) в кодовые точки.
func mapEntities(text string, entities []tgbotapi.MessageEntity) []domain.RawEntity {
	if len(entities) == 0 {
		return nil
	}

	index := textpos.NewIndex(text)
	out := make([]domain.RawEntity, 0, len(entities))
	for _, e := range entities {
		offset, length, ok := index.Convert(e.Offset, e.Length)
		if !ok {
			continue
		}
		out = append(out, domain.RawEntity{
			Offset: offset,
			Length: length,
			Type:   entityType(e.Type),
			URL:    e.URL,
		})
	}
	return out
}

// entityType приводит имена Bot API к именам домена; совпадающие передаются как есть.
func entityType(t string) domain.EntityType {
	switch t {
	case "phone_number":
		return domain.EntityPhone
	case "text_mention":
		return domain.EntityMentionName
	default:
		return domain.EntityType(t)
	}
}

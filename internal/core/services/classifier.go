package services

import (
	"fmt"
	"strings"

	"telegram-chat-log/internal/domain"
)

// Подстановки для сообщений без текста.
const (
	placeholderSystem  = "[System Message]"
	placeholderPhoto   = "[Photo]"
	placeholderVideo   = "[Video]"
	placeholderAudio   = "[Audio]"
	placeholderSticker = "[Sticker]"
	placeholderContact = "[Contact]"
	placeholderPoll    = "[Poll]"
	placeholderMedia   = "[Media]"

	photoMimeType = "image/jpeg"
)

// Classify определяет тип сообщения по его вложению, собирает метаданные медиа
// и выбирает текст для отображения. Функция чистая и определена для любого вложения.
func Classify(raw domain.RawMessage) (domain.MessageType, *domain.MediaInfo, string) {
	body := raw.Body

	switch att := raw.Attachment.(type) {
	case nil:
		if body == "" {
			return domain.MessageTypeSystem, nil, placeholderSystem
		}
		return domain.MessageTypeText, nil, body

	case domain.PhotoAttachment:
		media := &domain.MediaInfo{
			MimeType: stringPtr(photoMimeType),
			Caption:  captionOf(body),
		}
		return domain.MessageTypePhoto, media, textOr(body, placeholderPhoto)

	case domain.DocumentAttachment:
		messageType := documentType(att.MimeType)
		media := &domain.MediaInfo{
			FileName: stringPtr(att.Name),
			FileSize: int64Ptr(att.Size),
			Caption:  captionOf(body),
		}
		if att.MimeType != "" {
			media.MimeType = stringPtr(att.MimeType)
		}

		var placeholder string
		switch messageType {
		case domain.MessageTypeVideo:
			placeholder = placeholderVideo
		case domain.MessageTypeAudio:
			placeholder = placeholderAudio
		default:
			placeholder = fmt.Sprintf("[Document: %s]", att.Name)
		}
		return messageType, media, textOr(body, placeholder)

	case domain.StickerAttachment:
		return domain.MessageTypeSticker, nil, placeholderSticker

	case domain.ContactAttachment:
		return domain.MessageTypeContact, nil, placeholderContact

	case domain.PollAttachment:
		return domain.MessageTypePoll, nil, placeholderPoll

	default:
		// Остальные вложения показываем как обычный текст.
		return domain.MessageTypeText, nil, textOr(body, placeholderMedia)
	}
}

// documentType выбирает тип документа по префиксу MIME.
func documentType(mimeType string) domain.MessageType {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return domain.MessageTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return domain.MessageTypeAudio
	default:
		return domain.MessageTypeDocument
	}
}

func captionOf(body string) *string {
	if body == "" {
		return nil
	}
	return stringPtr(body)
}

func textOr(body, placeholder string) string {
	if body == "" {
		return placeholder
	}
	return body
}

func stringPtr(s string) *string { return &s }

func int64Ptr(n int64) *int64 { return &n }

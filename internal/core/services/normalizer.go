package services

import (
	"log/slog"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

// unknownSender подставляется, когда отправителя определить не удалось.
const unknownSender = "Unknown"

// Normalizer собирает нормализованное сообщение из сырого.
// Не хранит состояния и безопасен для одновременного использования.
type Normalizer struct {
	extractor *EntityExtractor
	log       *slog.Logger
}

var _ ports.Normalizer = (*Normalizer)(nil)

// NewNormalizer создает новый Normalizer. Если логгер nil, используется slog.Default().
func NewNormalizer(l *slog.Logger) *Normalizer {
	if l == nil {
		l = slog.Default()
	}
	return &Normalizer{
		extractor: NewEntityExtractor(l),
		log:       l,
	}
}

// Normalize преобразует сырое сообщение чата chatID. Операция всегда успешна.
func (n *Normalizer) Normalize(raw domain.RawMessage, chatID int64) domain.NormalizedMessage {
	messageType, media, displayText := Classify(raw)
	spans := n.extractor.Extract(displayText, raw.Entities)

	sender := raw.SenderName
	if sender == "" {
		sender = unknownSender
	}

	var replyTo *int
	if raw.ReplyToID != nil {
		id := *raw.ReplyToID
		replyTo = &id
	}

	n.log.Debug("Message normalized",
		"chat_id", chatID,
		"message_id", raw.ID,
		"type", messageType,
		"spans", len(spans),
	)

	return domain.NormalizedMessage{
		ID:             raw.ID,
		ChatID:         chatID,
		Sender:         sender,
		Timestamp:      raw.Timestamp,
		MessageType:    messageType,
		DisplayText:    displayText,
		FormattedSpans: spans,
		Media:          media,
		ReplyTo:        replyTo,
		ForwardedFrom:  nil,
	}
}

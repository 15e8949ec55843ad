package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

// channelIDOffset — сдвиг, с которым супергруппы и каналы записываются в помеченном виде.
const channelIDOffset = 1_000_000_000_000

// exportDateLayout — формат поля date в экспортах без date_unixtime.
const exportDateLayout = "2006-01-02T15:04:05"

// ExportClient — клиент чата поверх файла экспорта Telegram Desktop.
// Файл читается один раз, при первом обращении.
type ExportClient struct {
	source ports.DataSource
	parser ports.Parser
	log    *slog.Logger

	once sync.Once
	chat *domain.ExportedChat
	err  error
}

var _ ports.ChatClient = (*ExportClient)(nil)

// NewExportClient создает клиента, читающего экспорт из source.
func NewExportClient(source ports.DataSource, parser ports.Parser, l *slog.Logger) *ExportClient {
	if l == nil {
		l = slog.Default()
	}
	return &ExportClient{
		source: source,
		parser: parser,
		log:    l.With("component", "export"),
	}
}

func (c *ExportClient) load() (*domain.ExportedChat, error) {
	c.once.Do(func() {
		data, err := c.source.Fetch()
		if err != nil {
			c.err = fmt.Errorf("не удалось прочитать экспорт: %w", err)
			return
		}
		c.chat, c.err = c.parser.Parse(data)
		if c.err == nil {
			c.log.Info("Export loaded", "chat", c.chat.Name, "messages", len(c.chat.Messages))
		}
	})
	return c.chat, c.err
}

// Dialogs возвращает единственный чат экспорта.
func (c *ExportClient) Dialogs(_ context.Context) ([]domain.Dialog, error) {
	chat, err := c.load()
	if err != nil {
		return nil, err
	}
	return []domain.Dialog{{
		ID:    MarkedChatID(chat.Type, chat.ID),
		Title: chat.Name,
	}}, nil
}

// History отдает сообщения экспорта от новых к старым.
func (c *ExportClient) History(_ context.Context, chatID int64) (ports.MessageIterator, error) {
	chat, err := c.load()
	if err != nil {
		return nil, err
	}
	if MarkedChatID(chat.Type, chat.ID) != chatID {
		return nil, fmt.Errorf("%w: %d", domain.ErrChatNotFound, chatID)
	}
	return &exportIterator{messages: chat.Messages, pos: len(chat.Messages) - 1}, nil
}

// MarkedChatID переводит id из экспорта в помеченный вид, которым пользуется MTProto клиент.
func MarkedChatID(chatType string, id int64) int64 {
	switch chatType {
	case "private_group":
		return -id
	case "private_supergroup", "public_supergroup", "private_channel", "public_channel":
		return -channelIDOffset - id
	default:
		return id
	}
}

type exportIterator struct {
	messages []domain.Message
	pos      int
}

func (it *exportIterator) Next(ctx context.Context) (domain.RawMessage, bool, error) {
	if err := ctx.Err(); err != nil {
		return domain.RawMessage{}, false, err
	}
	if it.pos < 0 {
		return domain.RawMessage{}, false, nil
	}
	msg := it.messages[it.pos]
	it.pos--
	return MapExportMessage(msg), true, nil
}

// MapExportMessage переводит сообщение экспорта в сырое сообщение.
func MapExportMessage(msg domain.Message) domain.RawMessage {
	raw := domain.RawMessage{
		ID:         msg.ID,
		Timestamp:  timestamp(msg),
		SenderName: msg.From,
	}

	if msg.ReplyToMessageID != 0 {
		id := msg.ReplyToMessageID
		raw.ReplyToID = &id
	}

	// Служебные сообщения не несут текста, отправителем считается инициатор.
	if msg.Type == "service" {
		raw.SenderName = msg.Actor
		return raw
	}

	raw.Attachment = exportAttachment(msg)
	raw.Body, raw.Entities = exportText(msg)
	return raw
}

func timestamp(msg domain.Message) int64 {
	if ts := msg.Unixtime(); ts != 0 {
		return ts
	}
	parsed, err := time.Parse(exportDateLayout, msg.Date)
	if err != nil {
		return 0
	}
	return parsed.Unix()
}

func exportAttachment(msg domain.Message) domain.Attachment {
	switch {
	case msg.Photo != "":
		return domain.PhotoAttachment{}
	case msg.MediaType == "sticker" || msg.StickerEmoji != "":
		return domain.StickerAttachment{}
	case msg.File != "" || msg.MediaType != "":
		return domain.DocumentAttachment{
			Name:     msg.FileName,
			Size:     msg.FileSize,
			MimeType: msg.MimeType,
		}
	case len(msg.Contact) > 0:
		return domain.ContactAttachment{}
	case len(msg.Poll) > 0:
		return domain.PollAttachment{}
	case len(msg.Location) > 0:
		return domain.OtherAttachment{Kind: "location"}
	default:
		return nil
	}
}

// exportText склеивает сегменты text_entities в текст и считает смещения в кодовых точках.
// Если сегментов нет, используется поле text.
func exportText(msg domain.Message) (string, []domain.RawEntity) {
	segments := msg.TextEntities
	if len(segments) == 0 {
		segments = decodeTextField(msg.Text)
	}

	var (
		body     []byte
		entities []domain.RawEntity
		offset   int
	)
	for _, seg := range segments {
		length := utf8.RuneCountInString(seg.Text)
		if seg.Type != "plain" && seg.Type != "" && length > 0 {
			entities = append(entities, domain.RawEntity{
				Offset: offset,
				Length: length,
				Type:   exportEntityType(seg.Type),
				URL:    seg.Href,
			})
		}
		body = append(body, seg.Text...)
		offset += length
	}

	return string(body), entities
}

// decodeTextField разбирает поле text: строку или массив из строк и объектов.
func decodeTextField(data json.RawMessage) []domain.TextEntity {
	if len(data) == 0 {
		return nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		return []domain.TextEntity{{Type: "plain", Text: plain}}
	}

	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return nil
	}

	segments := make([]domain.TextEntity, 0, len(parts))
	for _, part := range parts {
		var s string
		if err := json.Unmarshal(part, &s); err == nil {
			segments = append(segments, domain.TextEntity{Type: "plain", Text: s})
			continue
		}
		var seg domain.TextEntity
		if err := json.Unmarshal(part, &seg); err == nil {
			segments = append(segments, seg)
		}
	}
	return segments
}

func exportEntityType(t string) domain.EntityType {
	switch t {
	case "link":
		return domain.EntityURL
	default:
		return domain.EntityType(t)
	}
}

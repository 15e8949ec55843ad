package parser

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/ports"
)

var (
	// ErrEmptyExport возвращается для пустого файла экспорта.
	ErrEmptyExport = errors.New("файл экспорта пуст")
	// ErrNotSingleChat возвращается для экспорта всего аккаунта, где чатов несколько.
	ErrNotSingleChat = errors.New("экспорт не содержит одного чата")
)

// JsonParser разбирает result.json, выгруженный Telegram Desktop для одного чата.
type JsonParser struct{}

// NewJsonParser создает новый экземпляр JsonParser.
func NewJsonParser() ports.Parser {
	return &JsonParser{}
}

// Parse преобразует содержимое файла в ExportedChat. Экспорт должен описывать
// ровно один чат: с непустым id и списком сообщений.
func (p *JsonParser) Parse(data []byte) (*domain.ExportedChat, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyExport
	}

	var chat domain.ExportedChat
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("failed to unmarshal json: %w", err)
	}

	if chat.ID == 0 || chat.Messages == nil {
		return nil, ErrNotSingleChat
	}

	return &chat, nil
}

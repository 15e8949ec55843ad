package source

import (
	"errors"

	"telegram-chat-log/internal/ports"
)

var errNoData = errors.New("data not set")

// MemorySource отдает экспорт, уже прочитанный в память (например, из stdin).
type MemorySource struct {
	data []byte
}

// NewMemorySource создает источник поверх data. Срез не копируется, вызывающий
// не должен менять его после передачи.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// Fetch возвращает копию данных.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, errNoData
	}
	return append([]byte(nil), s.data...), nil
}

package source

import (
	"errors"
	"fmt"
	"os"

	"telegram-chat-log/internal/ports"
)

// maxExportSize ограничивает размер читаемого файла экспорта.
const maxExportSize = 512 << 20

var errNoPath = errors.New("не указан путь к файлу")

// FileSource читает файл экспорта с диска.
type FileSource struct {
	filePath string
}

// NewFileSource создает новый экземпляр FileSource.
func NewFileSource(filePath string) ports.DataSource {
	return &FileSource{filePath: filePath}
}

// Fetch читает файл целиком. Слишком большие файлы отклоняются до чтения.
func (s *FileSource) Fetch() ([]byte, error) {
	if s.filePath == "" {
		return nil, errNoPath
	}

	info, err := os.Stat(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", s.filePath, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s является каталогом", s.filePath)
	}
	if info.Size() > maxExportSize {
		return nil, fmt.Errorf("файл %s слишком большой: %d байт", s.filePath, info.Size())
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}

	return data, nil
}

package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	t.Run("Пустой путь", func(t *testing.T) {
		data, err := NewFileSource("").Fetch()
		assert.ErrorIs(t, err, errNoPath)
		assert.Nil(t, data)
	})

	t.Run("Несуществующий файл", func(t *testing.T) {
		data, err := NewFileSource(filepath.Join(t.TempDir(), "missing.json")).Fetch()
		assert.ErrorIs(t, err, os.ErrNotExist)
		assert.Nil(t, data)
	})

	t.Run("Каталог вместо файла", func(t *testing.T) {
		data, err := NewFileSource(t.TempDir()).Fetch()
		assert.Error(t, err)
		assert.Nil(t, data)
	})

	t.Run("Чтение существующего файла", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "result.json")
		expected := []byte(`{"name": "Test Chat", "type": "personal_chat", "id": 1, "messages": []}`)
		require.NoError(t, os.WriteFile(path, expected, 0o600))

		data, err := NewFileSource(path).Fetch()
		require.NoError(t, err)
		assert.Equal(t, expected, data)
	})
}

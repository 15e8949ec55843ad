package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemorySource(t *testing.T) {
	t.Run("повторные чтения независимы", func(t *testing.T) {
		src := NewMemorySource([]byte(`{"id": 1}`))

		first, err := src.Fetch()
		require.NoError(t, err)
		first[0] = 'X'

		second, err := src.Fetch()
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id": 1}`), second)
	})

	t.Run("пустые данные", func(t *testing.T) {
		data, err := NewMemorySource([]byte{}).Fetch()
		require.NoError(t, err)
		assert.Empty(t, data)
	})

	t.Run("данные не заданы", func(t *testing.T) {
		data, err := NewMemorySource(nil).Fetch()
		assert.ErrorIs(t, err, errNoData)
		assert.Nil(t, data)
	})
}

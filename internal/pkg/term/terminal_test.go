package term

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gotd/td/tg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noPassword() ([]byte, error) {
	return nil, errors.New("no tty")
}

func TestTerminal(t *testing.T) {
	ctx := context.Background()

	t.Run("Номер из конфигурации не запрашивается", func(t *testing.T) {
		var out bytes.Buffer
		trm := newTerminal("+111", strings.NewReader(""), &out, noPassword)

		phone, err := trm.Phone(ctx)
		require.NoError(t, err)
		assert.Equal(t, "+111", phone)
		assert.Empty(t, out.String())
	})

	t.Run("Пустой номер запрашивается", func(t *testing.T) {
		var out bytes.Buffer
		trm := newTerminal("", strings.NewReader(" +222 \n"), &out, noPassword)

		phone, err := trm.Phone(ctx)
		require.NoError(t, err)
		assert.Equal(t, "+222", phone)
		assert.Contains(t, out.String(), "phone number")
	})

	t.Run("Пустой ввод номера", func(t *testing.T) {
		trm := newTerminal("", strings.NewReader("\n"), &bytes.Buffer{}, noPassword)
		_, err := trm.Phone(ctx)
		assert.Error(t, err)
	})

	t.Run("Код без перевода строки в конце", func(t *testing.T) {
		var out bytes.Buffer
		trm := newTerminal("", strings.NewReader("12345"), &out, noPassword)

		code, err := trm.Code(ctx, &tg.AuthSentCode{Type: &tg.AuthSentCodeTypeApp{Length: 5}})
		require.NoError(t, err)
		assert.Equal(t, "12345", code)
		assert.Contains(t, out.String(), "5 digits")
	})

	t.Run("Код не введен", func(t *testing.T) {
		trm := newTerminal("", strings.NewReader(""), &bytes.Buffer{}, noPassword)
		_, err := trm.Code(ctx, nil)
		assert.Error(t, err)
	})

	t.Run("Пароль 2FA", func(t *testing.T) {
		trm := newTerminal("", strings.NewReader(""), &bytes.Buffer{}, func() ([]byte, error) {
			return []byte("secret"), nil
		})

		password, err := trm.Password(ctx)
		require.NoError(t, err)
		assert.Equal(t, "secret", password)
	})

	t.Run("Ошибка чтения пароля", func(t *testing.T) {
		trm := newTerminal("", strings.NewReader(""), &bytes.Buffer{}, noPassword)
		_, err := trm.Password(ctx)
		assert.ErrorContains(t, err, "no tty")
	})

	t.Run("Регистрация не поддерживается", func(t *testing.T) {
		trm := newTerminal("", strings.NewReader(""), &bytes.Buffer{}, noPassword)
		_, err := trm.SignUp(ctx)
		assert.Error(t, err)
	})
}

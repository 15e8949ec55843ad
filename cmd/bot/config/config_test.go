package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBotConfig(t *testing.T) {
	t.Setenv("COMMAND_BOT_TOKEN", "")

	t.Run("значения из файла и по умолчанию", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bot.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
bot:
  token: "123:abc"
  backend_url: "http://server:8080/"
  chat_id: -1001
  allowed_users: [1, 2]
  polling_interval: 5s
`), 0o600))

		cfg, err := LoadBotConfig(path)
		require.NoError(t, err)

		assert.Equal(t, "123:abc", cfg.Bot.Token)
		assert.Equal(t, "http://server:8080", cfg.Bot.BackendURL)
		assert.Equal(t, int64(-1001), cfg.Bot.ChatID)
		assert.Equal(t, []int64{1, 2}, cfg.Bot.AllowedUsers)
		assert.Equal(t, 5*time.Second, cfg.Bot.PollingInterval)
		assert.Equal(t, DefaultHTTPTimeout, cfg.Bot.HTTPTimeout)
		assert.Equal(t, DefaultHistoryLimit, cfg.Bot.HistoryLimit)
		assert.Equal(t, "json", cfg.Logging.Format)
		assert.NoError(t, cfg.Validate())
	})

	t.Run("токен из окружения", func(t *testing.T) {
		t.Setenv("COMMAND_BOT_TOKEN", "999:env")

		cfg, err := LoadBotConfig(filepath.Join(t.TempDir(), "missing.yml"))
		require.NoError(t, err)
		assert.Equal(t, "999:env", cfg.Bot.Token)
		assert.Equal(t, DefaultBackendURL, cfg.Bot.BackendURL)
	})
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		c := &Config{Bot: BotConfig{Token: "1:a"}}
		c.setDefaults()
		return c
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"нет токена", func(c *Config) { c.Bot.Token = "" }},
		{"токен-заглушка", func(c *Config) { c.Bot.Token = "YOUR_TELEGRAM_BOT_TOKEN" }},
		{"адрес без схемы", func(c *Config) { c.Bot.BackendURL = "server:8080" }},
		{"лимит больше 1000", func(c *Config) { c.Bot.ExportLimit = 5000 }},
		{"неизвестный часовой пояс", func(c *Config) { c.Bot.Timezone = "Mars/Olympus" }},
		{"неизвестный формат логов", func(c *Config) { c.Logging.Format = "xml" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}

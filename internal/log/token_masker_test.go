package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestTokenMaskerHandler_Handle(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "mask telegram token in message",
			input:    `Post "https://api.telegram.org/bot8462697481:AAEJSXuTcb2F1Js2sWiK0TVWvxbHL9xX05Q/getUpdates": net/http: request canceled`,
			expected: `Post "https://api.telegram.org/bot***:***masked-token***/getUpdates": net/http: request canceled`,
		},
		{
			name:     "no token in message",
			input:    "This is a normal log message without tokens",
			expected: "This is a normal log message without tokens",
		},
		{
			name:     "multiple tokens in message",
			input:    "Token1: bot123456789:AAABCdEfGhIjKlMnOpQrStUvWxYz1234567, Token2: bot987654321:AAzZzYyXxWwVvUuTtSsRrQqPpOnNmLlKkJjI",
			expected: "Token1: bot***:***masked-token***, Token2: bot***:***masked-token***",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel() // Добавляем параллельное выполнение для выявления гонок
			var buf bytes.Buffer
			originalHandler := slog.NewJSONHandler(&buf, nil)
			maskerHandler := NewTokenMaskerHandler(originalHandler)

			logger := slog.New(maskerHandler)

			logger.Info(tt.input)

			output := buf.String()
			expectedEscaped := strings.ReplaceAll(tt.expected, "\"", "\\\"")
			if !strings.Contains(output, expectedEscaped) {
				t.Errorf("expected output to contain %q, got %q", expectedEscaped, output)
			}
		})
	}
}

func TestTokenMaskerHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	originalHandler := slog.NewJSONHandler(&buf, nil)
	maskerHandler := NewTokenMaskerHandler(originalHandler)

	logger := slog.New(maskerHandler)

	token := "bot8462697481:AAEJSXuTcb2F1Js2sWiK0TVWvxbHL9xX05Q"
	logger = logger.With(slog.String("token", token))

	logger.Info("message with token in attr")

	output := buf.String()
	if strings.Contains(output, token) {
		t.Errorf("expected output to not contain original token %q, but it did", token)
	}
	if !strings.Contains(output, "***masked-token***") {
		t.Errorf("expected output to contain masked token, got %q", output)
	}
}

func TestMaskTokens(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{
			input:    `Post "https://api.telegram.org/bot8462697481:AAEJSXuTcb2F1Js2sWiK0TVWvxbHL9xX05Q/getUpdates"`,
			expected: `Post "https://api.telegram.org/bot***:***masked-token***/getUpdates"`,
		},
		{
			input:    "No token here",
			expected: "No token here",
		},
		{
			input:    "bot123456789:AAABCdEfGhIjKlMnOpQrStUvWxYz1234567",
			expected: "bot***:***masked-token***",
		},
	}

	for _, tt := range tests {
		t.Run("", func(t *testing.T) {
			result := maskTokens(tt.input)
			if result != tt.expected {
				t.Errorf("maskTokens(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestMaskTokens_APIHash(t *testing.T) {
	hash := "0123456789abcdef0123456789abcdef"
	tests := []struct {
		input    string
		expected string
	}{
		{"api_hash=" + hash, "api_hash=***masked***"},
		{`{"api_hash": "` + hash + `"}`, `{"api_hash": "***masked***"}`},
		{"hash " + hash + " without key", "hash " + hash + " without key"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := maskTokens(tt.input); result != tt.expected {
				t.Errorf("maskTokens(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestTokenMaskerHandler_SecretAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")

	logger.Info("session config",
		slog.String("api_hash", "0123456789abcdef0123456789abcdef"),
		slog.String("phone", "+79991234567"),
		slog.Group("server", slog.String("bot_token", "123:abc")),
	)

	output := buf.String()
	for _, secret := range []string{"0123456789abcdef", "+7999", "123:abc"} {
		if strings.Contains(output, secret) {
			t.Errorf("expected output to not contain %q, got %q", secret, output)
		}
	}
	if !strings.Contains(output, `"phone":"********4567"`) {
		t.Errorf("expected masked phone in output, got %q", output)
	}
}

func TestNewLogger_Format(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelWarn, "text").Info("hidden")
	NewLogger(&buf, slog.LevelWarn, "text").Warn("shown")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("info message should be filtered, got %q", output)
	}
	if !strings.Contains(output, "msg=shown") {
		t.Errorf("expected text format, got %q", output)
	}
}

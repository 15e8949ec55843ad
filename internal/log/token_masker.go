package log

import (
	"context"
	"io"
	"log/slog"
	"regexp"
	"strings"
)

// TokenMaskerHandler - обертка для slog.Handler, которая маскирует секреты в логах:
// токены Bot API, api_hash MTProto-приложения и номера телефонов в атрибутах.
type TokenMaskerHandler struct {
	handler slog.Handler
}

// NewTokenMaskerHandler создает новый обработчик с маскировкой секретов
func NewTokenMaskerHandler(handler slog.Handler) *TokenMaskerHandler {
	return &TokenMaskerHandler{
		handler: handler,
	}
}

var (
	// токены в формате botID:token, где ID - числа, token - буквенно-цифровой
	telegramTokenRegex = regexp.MustCompile(`(\bbot\d+:[A-Za-z0-9_-]{35,})`)
	// api_hash=... или "api_hash": "..." в тексте
	apiHashRegex = regexp.MustCompile(`(?i)(api_hash["']?\s*[:=]\s*["']?)[0-9a-f]{32}`)
)

const maskedValue = "***masked***"

// ключи атрибутов, значения которых скрываются целиком
var secretKeys = map[string]bool{
	"api_hash":  true,
	"bot_token": true,
	"password":  true,
	"code":      true,
}

// maskTokens заменяет найденные секреты на маску
func maskTokens(text string) string {
	text = telegramTokenRegex.ReplaceAllString(text, "bot***:***masked-token***")
	return apiHashRegex.ReplaceAllString(text, "${1}"+maskedValue)
}

// maskPhone оставляет от номера телефона только последние цифры
func maskPhone(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return strings.Repeat("*", len(phone)-4) + phone[len(phone)-4:]
}

// Enabled реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone обнуляет атрибуты в копии, поэтому они добавляются заново уже замаскированными.
	r := record.Clone()
	r.Message = maskTokens(r.Message)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	maskedAttrs := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		maskedAttrs[i] = maskAttr(attr)
	}
	return &TokenMaskerHandler{
		handler: h.handler.WithAttrs(maskedAttrs),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *TokenMaskerHandler) WithGroup(name string) slog.Handler {
	return &TokenMaskerHandler{
		handler: h.handler.WithGroup(name),
	}
}

func maskAttr(a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	switch {
	case secretKeys[key]:
		return slog.String(a.Key, maskedValue)
	case key == "phone" || key == "phone_number":
		return slog.String(a.Key, maskPhone(a.Value.String()))
	default:
		return slog.Attr{Key: a.Key, Value: maskAttributeValue(a.Value)}
	}
}

// maskAttributeValue рекурсивно маскирует значения атрибутов
func maskAttributeValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskTokens(value.String()))
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskTokens(err.Error()))
		}
		return value
	case slog.KindGroup:
		group := value.Group()
		maskedGroup := make([]slog.Attr, len(group))
		for i, attr := range group {
			maskedGroup[i] = maskAttr(attr)
		}
		return slog.GroupValue(maskedGroup...)
	default:
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой секретов
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewTokenMaskerHandler(handler))
}

// NewLogger создает логгер с маскировкой секретов, пишущий в w в формате json или text.
func NewLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return NewMaskedLogger(handler)
}

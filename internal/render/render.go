// Package render готовит нормализованные сообщения к показу: HTML с форматированием,
// строку о вложении и значок типа.
package render

import (
	"fmt"
	"html"
	"net/url"
	"strings"

	"telegram-chat-log/internal/domain"
)

// HTML экранирует текст и оборачивает фрагменты в теги. Фрагменты могут
// пересекаться: тег, который пересекает уже открытый, закрывается и открывается снова.
// Фрагменты должны быть упорядочены по смещению.
func HTML(text string, spans []domain.TextSpan) string {
	runes := []rune(text)
	if len(spans) == 0 {
		return html.EscapeString(text)
	}

	var (
		b    strings.Builder
		open []int
	)

	for i := 0; i <= len(runes); i++ {
		active := activeAt(spans, i, len(runes))

		keep := 0
		for keep < len(open) && keep < len(active) && open[keep] == active[keep] {
			keep++
		}
		for j := len(open) - 1; j >= keep; j-- {
			b.WriteString(closeTag(spans[open[j]], runes))
		}
		for _, idx := range active[keep:] {
			b.WriteString(openTag(spans[idx], runes))
		}
		open = active

		if i < len(runes) {
			b.WriteString(html.EscapeString(string(runes[i])))
		}
	}

	return b.String()
}

// activeAt возвращает индексы фрагментов, покрывающих позицию pos, в порядке следования.
func activeAt(spans []domain.TextSpan, pos, total int) []int {
	var active []int
	if pos >= total {
		return active
	}
	for i, s := range spans {
		if s.Length > 0 && s.Offset <= pos && pos < s.Offset+s.Length {
			active = append(active, i)
		}
	}
	return active
}

func openTag(s domain.TextSpan, runes []rune) string {
	switch s.Kind {
	case domain.SpanBold:
		return "<b>"
	case domain.SpanItalic:
		return "<i>"
	case domain.SpanUnderline:
		return "<u>"
	case domain.SpanStrikethrough:
		return "<s>"
	case domain.SpanCode:
		return "<code>"
	case domain.SpanPre:
		return "<pre>"
	case domain.SpanTextLink, domain.SpanLink, domain.SpanEmail, domain.SpanPhone:
		ref, ok := href(s, runes)
		if !ok {
			return ""
		}
		return `<a href="` + html.EscapeString(ref) + `">`
	default:
		return `<span class="` + strings.ReplaceAll(string(s.Kind), "_", "-") + `">`
	}
}

func closeTag(s domain.TextSpan, runes []rune) string {
	switch s.Kind {
	case domain.SpanBold:
		return "</b>"
	case domain.SpanItalic:
		return "</i>"
	case domain.SpanUnderline:
		return "</u>"
	case domain.SpanStrikethrough:
		return "</s>"
	case domain.SpanCode:
		return "</code>"
	case domain.SpanPre:
		return "</pre>"
	case domain.SpanTextLink, domain.SpanLink, domain.SpanEmail, domain.SpanPhone:
		if _, ok := href(s, runes); !ok {
			return ""
		}
		return "</a>"
	default:
		return "</span>"
	}
}

var allowedSchemes = map[string]bool{
	"":       true,
	"http":   true,
	"https":  true,
	"tg":     true,
	"mailto": true,
	"tel":    true,
}

// href возвращает адрес ссылки. Ссылки с пустым, неразбираемым адресом или со схемой
// вне allowedSchemes выводятся обычным текстом.
func href(s domain.TextSpan, runes []rune) (string, bool) {
	var ref string
	switch s.Kind {
	case domain.SpanTextLink:
		if s.URL != nil {
			ref = *s.URL
		}
	case domain.SpanLink:
		ref = spanText(s, runes)
	case domain.SpanEmail:
		ref = "mailto:" + spanText(s, runes)
	case domain.SpanPhone:
		ref = "tel:" + spanText(s, runes)
	}

	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", false
	}
	u, err := url.Parse(ref)
	if err != nil || !allowedSchemes[u.Scheme] {
		return "", false
	}
	return ref, true
}

func spanText(s domain.TextSpan, runes []rune) string {
	end := s.Offset + s.Length
	if end > len(runes) {
		end = len(runes)
	}
	if s.Offset < 0 || s.Offset >= end {
		return ""
	}
	return string(runes[s.Offset:end])
}

// MediaSummary описывает вложение одной строкой, например "report.pdf, 2.0 KB, application/pdf".
// Для сообщений без вложения возвращает пустую строку.
func MediaSummary(media *domain.MediaInfo) string {
	if media == nil {
		return ""
	}

	var parts []string
	if media.FileName != nil && *media.FileName != "" {
		parts = append(parts, *media.FileName)
	}
	if media.FileSize != nil {
		parts = append(parts, HumanSize(*media.FileSize))
	}
	if media.MimeType != nil {
		parts = append(parts, *media.MimeType)
	}
	return strings.Join(parts, ", ")
}

// HumanSize форматирует размер в байтах.
func HumanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// Badge возвращает значок и имя типа сообщения, например "📷 photo".
func Badge(t domain.MessageType) string {
	return t.Emoji() + " " + string(t)
}

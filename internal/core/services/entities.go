package services

import (
	"log/slog"
	"sort"
	"unicode/utf8"

	"telegram-chat-log/internal/domain"
)

// MapEntityType сопоставляет вид форматирования мессенджера с видом фрагмента.
// Для видов без сопоставления возвращает false: такие фрагменты отбрасываются.
func MapEntityType(t domain.EntityType) (domain.SpanKind, bool) {
	switch t {
	case domain.EntityBold:
		return domain.SpanBold, true
	case domain.EntityItalic:
		return domain.SpanItalic, true
	case domain.EntityCode:
		return domain.SpanCode, true
	case domain.EntityPre:
		return domain.SpanPre, true
	case domain.EntityTextLink:
		return domain.SpanTextLink, true
	case domain.EntityURL:
		return domain.SpanLink, true
	case domain.EntityMention:
		return domain.SpanMention, true
	case domain.EntityHashtag:
		return domain.SpanHashtag, true
	case domain.EntityBotCommand:
		return domain.SpanBotCommand, true
	case domain.EntityEmail:
		return domain.SpanEmail, true
	case domain.EntityPhone:
		return domain.SpanPhone, true
	default:
		return "", false
	}
}

// EntityExtractor переводит фрагменты форматирования клиента чата во фрагменты TextSpan.
// Текст сам по себе не анализируется: без фрагментов от клиента результат пуст.
type EntityExtractor struct {
	log *slog.Logger
}

// NewEntityExtractor создает экстрактор. Если логгер nil, используется slog.Default().
func NewEntityExtractor(l *slog.Logger) *EntityExtractor {
	if l == nil {
		l = slog.Default()
	}
	return &EntityExtractor{log: l}
}

// Extract строит фрагменты над displayText. Смещения и длины копируются как есть,
// порядок — по возрастанию смещения с сохранением исходного порядка при равенстве.
// Пересекающиеся фрагменты не объединяются и не обрезаются.
func (e *EntityExtractor) Extract(displayText string, raw []domain.RawEntity) []domain.TextSpan {
	spans := make([]domain.TextSpan, 0, len(raw))
	if len(raw) == 0 {
		return spans
	}

	textLen := utf8.RuneCountInString(displayText)
	for _, entity := range raw {
		kind, ok := MapEntityType(entity.Type)
		if !ok {
			e.log.Debug("Dropping unsupported formatting entity", "type", entity.Type, "offset", entity.Offset, "length", entity.Length)
			continue
		}
		if entity.Offset < 0 || entity.Length < 0 || entity.Offset+entity.Length > textLen {
			e.log.Debug("Dropping formatting entity outside of display text",
				"type", entity.Type, "offset", entity.Offset, "length", entity.Length, "text_length", textLen)
			continue
		}

		span := domain.TextSpan{
			Offset: entity.Offset,
			Length: entity.Length,
			Kind:   kind,
		}
		if kind == domain.SpanTextLink || kind == domain.SpanLink {
			if entity.URL != "" {
				span.URL = stringPtr(entity.URL)
			}
		}
		spans = append(spans, span)
	}

	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Offset < spans[j].Offset
	})

	return spans
}

// ExtractEntities — Extract с логгером по умолчанию.
func ExtractEntities(displayText string, raw []domain.RawEntity) []domain.TextSpan {
	return NewEntityExtractor(nil).Extract(displayText, raw)
}

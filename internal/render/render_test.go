package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telegram-chat-log/internal/domain"
)

func ptr[T any](v T) *T {
	return &v
}

func TestHTML(t *testing.T) {
	testCases := []struct {
		name  string
		text  string
		spans []domain.TextSpan
		want  string
	}{
		{
			name: "Без форматирования текст экранируется",
			text: `<b>"1 & 2"</b>`,
			want: "&lt;b&gt;&#34;1 &amp; 2&#34;&lt;/b&gt;",
		},
		{
			name:  "Жирный фрагмент",
			text:  "hi there",
			spans: []domain.TextSpan{{Offset: 3, Length: 5, Kind: domain.SpanBold}},
			want:  "hi <b>there</b>",
		},
		{
			name:  "Ссылка с адресом",
			text:  "see docs",
			spans: []domain.TextSpan{{Offset: 4, Length: 4, Kind: domain.SpanTextLink, URL: ptr("https://go.dev/?a=1&b=2")}},
			want:  `see <a href="https://go.dev/?a=1&amp;b=2">docs</a>`,
		},
		{
			name:  "Голая ссылка ведет на свой текст",
			text:  "go.dev",
			spans: []domain.TextSpan{{Offset: 0, Length: 6, Kind: domain.SpanLink}},
			want:  `<a href="go.dev">go.dev</a>`,
		},
		{
			name:  "Ссылка со схемой javascript выводится текстом",
			text:  "click me",
			spans: []domain.TextSpan{{Offset: 6, Length: 2, Kind: domain.SpanTextLink, URL: ptr("javascript:alert(1)")}},
			want:  "click me",
		},
		{
			name:  "Схема проверяется без учета регистра и пробелов",
			text:  "click",
			spans: []domain.TextSpan{{Offset: 0, Length: 5, Kind: domain.SpanTextLink, URL: ptr("  JavaScript:alert(1)")}},
			want:  "click",
		},
		{
			name: "Отброшенная ссылка не ломает вложенные теги",
			text: "abcd",
			spans: []domain.TextSpan{
				{Offset: 0, Length: 4, Kind: domain.SpanBold},
				{Offset: 1, Length: 2, Kind: domain.SpanTextLink, URL: ptr("data:text/html,<script>")},
				{Offset: 2, Length: 2, Kind: domain.SpanItalic},
			},
			want: "<b>ab<i>c</i><i>d</i></b>",
		},
		{
			name:  "Ссылка без адреса выводится текстом",
			text:  "x",
			spans: []domain.TextSpan{{Offset: 0, Length: 1, Kind: domain.SpanTextLink}},
			want:  "x",
		},
		{
			name:  "Ссылка tg допустима",
			text:  "chat",
			spans: []domain.TextSpan{{Offset: 0, Length: 4, Kind: domain.SpanTextLink, URL: ptr("tg://resolve?domain=go")}},
			want:  `<a href="tg://resolve?domain=go">chat</a>`,
		},
		{
			name:  "Почта ведет на mailto",
			text:  "a@b.io",
			spans: []domain.TextSpan{{Offset: 0, Length: 6, Kind: domain.SpanEmail}},
			want:  `<a href="mailto:a@b.io">a@b.io</a>`,
		},
		{
			name: "Вложенные фрагменты",
			text: "abcd",
			spans: []domain.TextSpan{
				{Offset: 0, Length: 4, Kind: domain.SpanBold},
				{Offset: 1, Length: 2, Kind: domain.SpanItalic},
			},
			want: "<b>a<i>bc</i>d</b>",
		},
		{
			name: "Пересекающиеся фрагменты",
			text: "abcd",
			spans: []domain.TextSpan{
				{Offset: 0, Length: 3, Kind: domain.SpanBold},
				{Offset: 2, Length: 2, Kind: domain.SpanItalic},
			},
			want: "<b>ab<i>c</i></b><i>d</i>",
		},
		{
			name:  "Хэштег и кириллица",
			text:  "тег #go",
			spans: []domain.TextSpan{{Offset: 4, Length: 3, Kind: domain.SpanHashtag}},
			want:  `тег <span class="hashtag">#go</span>`,
		},
		{
			name:  "Команда бота",
			text:  "/start",
			spans: []domain.TextSpan{{Offset: 0, Length: 6, Kind: domain.SpanBotCommand}},
			want:  `<span class="bot-command">/start</span>`,
		},
		{
			name:  "Фрагмент за концом текста обрезается",
			text:  "ab",
			spans: []domain.TextSpan{{Offset: 1, Length: 10, Kind: domain.SpanCode}},
			want:  "a<code>b</code>",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTML(tc.text, tc.spans))
		})
	}
}

func TestMediaSummary(t *testing.T) {
	t.Run("Без вложения", func(t *testing.T) {
		assert.Empty(t, MediaSummary(nil))
	})

	t.Run("Документ", func(t *testing.T) {
		media := &domain.MediaInfo{
			FileName: ptr("report.pdf"),
			FileSize: ptr(int64(2048)),
			MimeType: ptr("application/pdf"),
		}
		assert.Equal(t, "report.pdf, 2.0 KB, application/pdf", MediaSummary(media))
	})

	t.Run("Фото", func(t *testing.T) {
		assert.Equal(t, "image/jpeg", MediaSummary(&domain.MediaInfo{MimeType: ptr("image/jpeg")}))
	})
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "0 B", HumanSize(0))
	assert.Equal(t, "1023 B", HumanSize(1023))
	assert.Equal(t, "1.5 KB", HumanSize(1536))
	assert.Equal(t, "3.0 MB", HumanSize(3*1024*1024))
}

func TestBadge(t *testing.T) {
	assert.Equal(t, "📷 photo", Badge(domain.MessageTypePhoto))
	assert.Equal(t, "⚙️ system", Badge(domain.MessageTypeSystem))
}

package domain

// MessageType определяет семантический тип сообщения.
type MessageType string

const (
	MessageTypeText     MessageType = "text"
	MessageTypePhoto    MessageType = "photo"
	MessageTypeVideo    MessageType = "video"
	MessageTypeDocument MessageType = "document"
	MessageTypeAudio    MessageType = "audio"
	MessageTypeVoice    MessageType = "voice"
	MessageTypeSticker  MessageType = "sticker"
	MessageTypeLocation MessageType = "location"
	MessageTypeContact  MessageType = "contact"
	MessageTypePoll     MessageType = "poll"
	MessageTypeSystem   MessageType = "system"
)

// Emoji возвращает значок, которым тип сообщения отображается в интерфейсе.
func (t MessageType) Emoji() string {
	switch t {
	case MessageTypeText:
		return "💬"
	case MessageTypePhoto:
		return "📷"
	case MessageTypeVideo:
		return "🎥"
	case MessageTypeDocument:
		return "📄"
	case MessageTypeAudio:
		return "🎵"
	case MessageTypeVoice:
		return "🎤"
	case MessageTypeSticker:
		return "😀"
	case MessageTypeLocation:
		return "📍"
	case MessageTypeContact:
		return "👤"
	case MessageTypePoll:
		return "📊"
	case MessageTypeSystem:
		return "⚙️"
	default:
		return "💬"
	}
}

// SpanKind определяет вид форматирования фрагмента текста.
type SpanKind string

const (
	SpanBold          SpanKind = "bold"
	SpanItalic        SpanKind = "italic"
	SpanCode          SpanKind = "code"
	SpanPre           SpanKind = "pre"
	SpanLink          SpanKind = "link"
	SpanTextLink      SpanKind = "text_link"
	SpanMention       SpanKind = "mention"
	SpanHashtag       SpanKind = "hashtag"
	SpanBotCommand    SpanKind = "bot_command"
	SpanEmail         SpanKind = "email"
	SpanPhone         SpanKind = "phone"
	SpanUnderline     SpanKind = "underline"
	SpanStrikethrough SpanKind = "strikethrough"
	SpanSpoiler       SpanKind = "spoiler"
)

// TextSpan описывает отформатированный фрагмент отображаемого текста.
// Offset и Length измеряются в кодовых точках Unicode.
type TextSpan struct {
	Offset int      `json:"offset"`
	Length int      `json:"length"`
	Kind   SpanKind `json:"kind"`
	URL    *string  `json:"url,omitempty"`
}

// MediaInfo содержит метаданные вложения.
type MediaInfo struct {
	FileName *string `json:"file_name,omitempty"`
	FileSize *int64  `json:"file_size,omitempty"`
	MimeType *string `json:"mime_type,omitempty"`
	Caption  *string `json:"caption,omitempty"`
}

// NormalizedMessage представляет одно сообщение чата после нормализации.
// Структура не содержит ссылок на объекты протокола и может свободно копироваться.
type NormalizedMessage struct {
	ID             int         `json:"id"`
	ChatID         int64       `json:"chat_id"`
	Sender         string      `json:"sender"`
	Timestamp      int64       `json:"timestamp"`
	MessageType    MessageType `json:"message_type"`
	DisplayText    string      `json:"display_text"`
	FormattedSpans []TextSpan  `json:"formatted_spans"`
	Media          *MediaInfo  `json:"media,omitempty"`
	ReplyTo        *int        `json:"reply_to,omitempty"`
	// ForwardedFrom сейчас никогда не заполняется.
	ForwardedFrom *string `json:"forwarded_from,omitempty"`
}

// Dialog представляет чат, известный клиенту.
type Dialog struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

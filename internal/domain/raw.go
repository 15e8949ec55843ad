package domain

// EntityType — имя вида форматирования в терминах самого мессенджера.
// Адаптеры приводят свои перечисления к этим значениям; неизвестные виды
// передаются как есть.
type EntityType string

const (
	EntityBold          EntityType = "bold"
	EntityItalic        EntityType = "italic"
	EntityCode          EntityType = "code"
	EntityPre           EntityType = "pre"
	EntityTextLink      EntityType = "text_link"
	EntityURL           EntityType = "url"
	EntityMention       EntityType = "mention"
	EntityMentionName   EntityType = "mention_name"
	EntityHashtag       EntityType = "hashtag"
	EntityCashtag       EntityType = "cashtag"
	EntityBotCommand    EntityType = "bot_command"
	EntityEmail         EntityType = "email"
	EntityPhone         EntityType = "phone"
	EntityUnderline     EntityType = "underline"
	EntityStrikethrough EntityType = "strikethrough"
	EntitySpoiler       EntityType = "spoiler"
	EntityBlockquote    EntityType = "blockquote"
	EntityCustomEmoji   EntityType = "custom_emoji"
	EntityBankCard      EntityType = "bank_card"
)

// RawEntity — фрагмент форматирования в том виде, в каком его отдал клиент чата.
// Смещения уже выровнены по кодовым точкам Body.
type RawEntity struct {
	Offset int
	Length int
	Type   EntityType
	URL    string
}

// Attachment — вложение сырого сообщения. Набор реализаций закрыт:
// PhotoAttachment, DocumentAttachment, StickerAttachment, ContactAttachment,
// PollAttachment и OtherAttachment. nil означает отсутствие вложения.
type Attachment interface {
	isAttachment()
}

// PhotoAttachment — фотография.
type PhotoAttachment struct{}

// DocumentAttachment — произвольный файл (включая видео и аудио).
type DocumentAttachment struct {
	Name     string
	Size     int64
	MimeType string
}

// StickerAttachment — стикер.
type StickerAttachment struct{}

// ContactAttachment — карточка контакта.
type ContactAttachment struct{}

// PollAttachment — опрос.
type PollAttachment struct{}

// OtherAttachment — вложение, для которого нет отдельной обработки (геопозиция, игра и т.п.).
type OtherAttachment struct {
	Kind string
}

func (PhotoAttachment) isAttachment()    {}
func (DocumentAttachment) isAttachment() {}
func (StickerAttachment) isAttachment()  {}
func (ContactAttachment) isAttachment()  {}
func (PollAttachment) isAttachment()     {}
func (OtherAttachment) isAttachment()    {}

// RawMessage — сообщение, полученное от клиента чата, до нормализации.
type RawMessage struct {
	ID         int
	Timestamp  int64
	SenderName string // пустая строка, если отправителя определить не удалось
	ReplyToID  *int
	Attachment Attachment
	Body       string
	Entities   []RawEntity
}

// IncomingMessage — новое сообщение, пришедшее в режиме реального времени.
type IncomingMessage struct {
	ChatID  int64
	Message RawMessage
}

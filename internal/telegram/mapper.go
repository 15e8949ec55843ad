package telegram

import (
	"strings"

	"github.com/gotd/td/tg"

	"telegram-chat-log/internal/domain"
	"telegram-chat-log/internal/pkg/textpos"
)

// channelIDOffset — сдвиг, с которым идентификаторы каналов записываются в "помеченном" виде,
// как это делает Bot API: -100xxxxxxxxxx.
const channelIDOffset = 1_000_000_000_000

// MarkedID возвращает идентификатор чата в помеченном виде: пользователь — id,
// обычная группа — -id, канал или супергруппа — -100id.
func MarkedID(peer tg.PeerClass) int64 {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return p.UserID
	case *tg.PeerChat:
		return -p.ChatID
	case *tg.PeerChannel:
		return -channelIDOffset - p.ChannelID
	default:
		return 0
	}
}

// peerInfo — то, что известно о пользователе или чате из ответа API.
type peerInfo struct {
	title string
	input tg.InputPeerClass
}

// peerIndex — справочник пользователей и чатов, пришедших вместе с сообщениями.
type peerIndex map[int64]peerInfo

func newPeerIndex(users []tg.UserClass, chats []tg.ChatClass) peerIndex {
	idx := make(peerIndex, len(users)+len(chats))
	for _, u := range users {
		if user, ok := u.AsNotEmpty(); ok {
			idx.addUser(user)
		}
	}
	for _, c := range chats {
		idx.addChat(c)
	}
	return idx
}

// peerIndexFromEntities строит справочник по сущностям из обновления.
func peerIndexFromEntities(e tg.Entities) peerIndex {
	idx := make(peerIndex, len(e.Users)+len(e.Chats)+len(e.Channels))
	for _, user := range e.Users {
		idx.addUser(user)
	}
	for _, chat := range e.Chats {
		idx.addChat(chat)
	}
	for _, channel := range e.Channels {
		idx.addChat(channel)
	}
	return idx
}

func (idx peerIndex) addUser(user *tg.User) {
	idx[user.ID] = peerInfo{title: userDisplayName(user), input: user.AsInputPeer()}
}

func (idx peerIndex) addChat(chat tg.ChatClass) {
	switch c := chat.(type) {
	case *tg.Chat:
		idx[-c.ID] = peerInfo{title: c.Title, input: c.AsInputPeer()}
	case *tg.ChatForbidden:
		idx[-c.ID] = peerInfo{title: c.Title, input: &tg.InputPeerChat{ChatID: c.ID}}
	case *tg.Channel:
		idx[-channelIDOffset-c.ID] = peerInfo{title: c.Title, input: c.AsInputPeer()}
	case *tg.ChannelForbidden:
		idx[-channelIDOffset-c.ID] = peerInfo{
			title: c.Title,
			input: &tg.InputPeerChannel{ChannelID: c.ID, AccessHash: c.AccessHash},
		}
	}
}

func (idx peerIndex) title(peer tg.PeerClass) string {
	if peer == nil {
		return ""
	}
	return idx[MarkedID(peer)].title
}

func userDisplayName(user *tg.User) string {
	firstName, _ := user.GetFirstName()
	lastName, _ := user.GetLastName()
	name := strings.TrimSpace(firstName + " " + lastName)
	if name == "" {
		name, _ = user.GetUsername()
	}
	return name
}

// mapMessage переводит сообщение MTProto в сырое сообщение.
// Возвращает помеченный идентификатор чата; ok == false для пустых сообщений.
func (idx peerIndex) mapMessage(msg tg.MessageClass) (int64, domain.RawMessage, bool) {
	switch m := msg.(type) {
	case *tg.Message:
		raw := domain.RawMessage{
			ID:         m.ID,
			Timestamp:  int64(m.Date),
			SenderName: idx.sender(m.FromID, m.PeerID),
			Body:       m.Message,
			Attachment: mapMedia(m.Media),
			Entities:   mapEntities(m.Message, m.Entities),
		}
		if m.Post && raw.SenderName == "" {
			raw.SenderName = m.PostAuthor
		}
		if replyTo, ok := m.GetReplyTo(); ok {
			if header, ok := replyTo.(*tg.MessageReplyHeader); ok {
				if id, ok := header.GetReplyToMsgID(); ok {
					raw.ReplyToID = &id
				}
			}
		}
		return MarkedID(m.PeerID), raw, true

	case *tg.MessageService:
		// Служебные сообщения без текста и вложений классифицируются как системные.
		return MarkedID(m.PeerID), domain.RawMessage{
			ID:         m.ID,
			Timestamp:  int64(m.Date),
			SenderName: idx.sender(m.FromID, m.PeerID),
		}, true

	default:
		return 0, domain.RawMessage{}, false
	}
}

// sender определяет имя отправителя. В личных чатах и каналах FromID пуст,
// тогда отправителем считается сам чат.
func (idx peerIndex) sender(from, peer tg.PeerClass) string {
	if from != nil {
		if name := idx.title(from); name != "" {
			return name
		}
	}
	return idx.title(peer)
}

func mapMedia(media tg.MessageMediaClass) domain.Attachment {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty:
		return nil
	case *tg.MessageMediaPhoto:
		return domain.PhotoAttachment{}
	case *tg.MessageMediaDocument:
		document, ok := m.GetDocument()
		if !ok {
			return domain.OtherAttachment{Kind: m.TypeName()}
		}
		doc, ok := document.(*tg.Document)
		if !ok {
			return domain.OtherAttachment{Kind: document.TypeName()}
		}
		return mapDocument(doc)
	case *tg.MessageMediaContact:
		return domain.ContactAttachment{}
	case *tg.MessageMediaPoll:
		return domain.PollAttachment{}
	default:
		return domain.OtherAttachment{Kind: media.TypeName()}
	}
}

func mapDocument(doc *tg.Document) domain.Attachment {
	var name string
	for _, attribute := range doc.Attributes {
		switch a := attribute.(type) {
		case *tg.DocumentAttributeSticker:
			return domain.StickerAttachment{}
		case *tg.DocumentAttributeFilename:
			name = a.FileName
		}
	}
	return domain.DocumentAttachment{
		Name:     name,
		Size:     doc.Size,
		MimeType: doc.MimeType,
	}
}

// mapEntities переводит фрагменты форматирования MTProto, смещения которых заданы в UTF-16,
// в фрагменты с кодовыми точками.
func mapEntities(text string, entities []tg.MessageEntityClass) []domain.RawEntity {
	if len(entities) == 0 {
		return nil
	}

	index := textpos.NewIndex(text)
	out := make([]domain.RawEntity, 0, len(entities))
	for _, entity := range entities {
		offset, length, ok := index.Convert(entity.GetOffset(), entity.GetLength())
		if !ok {
			continue
		}
		raw := domain.RawEntity{Offset: offset, Length: length, Type: entityType(entity)}
		if link, ok := entity.(*tg.MessageEntityTextURL); ok {
			raw.URL = link.URL
		}
		out = append(out, raw)
	}
	return out
}

func entityType(entity tg.MessageEntityClass) domain.EntityType {
	switch entity.(type) {
	case *tg.MessageEntityBold:
		return domain.EntityBold
	case *tg.MessageEntityItalic:
		return domain.EntityItalic
	case *tg.MessageEntityCode:
		return domain.EntityCode
	case *tg.MessageEntityPre:
		return domain.EntityPre
	case *tg.MessageEntityTextURL:
		return domain.EntityTextLink
	case *tg.MessageEntityURL:
		return domain.EntityURL
	case *tg.MessageEntityMention:
		return domain.EntityMention
	case *tg.MessageEntityMentionName, *tg.InputMessageEntityMentionName:
		return domain.EntityMentionName
	case *tg.MessageEntityHashtag:
		return domain.EntityHashtag
	case *tg.MessageEntityCashtag:
		return domain.EntityCashtag
	case *tg.MessageEntityBotCommand:
		return domain.EntityBotCommand
	case *tg.MessageEntityEmail:
		return domain.EntityEmail
	case *tg.MessageEntityPhone:
		return domain.EntityPhone
	case *tg.MessageEntityUnderline:
		return domain.EntityUnderline
	case *tg.MessageEntityStrike:
		return domain.EntityStrikethrough
	case *tg.MessageEntitySpoiler:
		return domain.EntitySpoiler
	case *tg.MessageEntityBlockquote:
		return domain.EntityBlockquote
	case *tg.MessageEntityCustomEmoji:
		return domain.EntityCustomEmoji
	case *tg.MessageEntityBankCard:
		return domain.EntityBankCard
	default:
		return domain.EntityType(strings.ToLower(strings.TrimPrefix(entity.TypeName(), "messageEntity")))
	}
}

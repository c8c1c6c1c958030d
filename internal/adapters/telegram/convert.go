// Package telegram переводит объекты MTProto (github.com/gotd/td/tg) в модель выгрузки.
package telegram

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/gotd/td/tg"

	"telegram-text-export/internal/domain"
)

// FileResolver сопоставляет вложениям файлы архива.
type FileResolver interface {
	PhotoFile(photo *tg.Photo) domain.File
	DocumentFile(doc *tg.Document) domain.File
}

// unavailableFiles помечает все файлы как недоступные: конвертер сам ничего не скачивает.
type unavailableFiles struct{}

func (unavailableFiles) PhotoFile(*tg.Photo) domain.File {
	return domain.File{SkipReason: domain.SkipUnavailable}
}

func (unavailableFiles) DocumentFile(*tg.Document) domain.File {
	return domain.File{SkipReason: domain.SkipUnavailable}
}

// Option — функциональная опция для настройки Converter.
type Option func(*Converter)

// WithFileResolver задает источник путей к файлам вложений.
func WithFileResolver(files FileResolver) Option {
	return func(c *Converter) {
		if files != nil {
			c.files = files
		}
	}
}

// WithLogger устанавливает логгер конвертера.
func WithLogger(l *slog.Logger) Option {
	return func(c *Converter) {
		if l != nil {
			c.log = l
		}
	}
}

// WithSelf задает идентификатор владельца аккаунта, автора исходящих сообщений.
func WithSelf(userID int64) Option {
	return func(c *Converter) {
		c.self = userID
	}
}

// Converter строит доменную модель из ответов Telegram API.
type Converter struct {
	files FileResolver
	self  int64
	log   *slog.Logger
}

// NewConverter создает конвертер.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{files: unavailableFiles{}, log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func unixTime(ts int) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(int64(ts), 0)
}

// PeerID переводит tg.PeerClass в идентификатор пира.
func PeerID(peer tg.PeerClass) domain.PeerID {
	switch p := peer.(type) {
	case *tg.PeerUser:
		return domain.UserPeerID(p.UserID)
	case *tg.PeerChat:
		return domain.ChatPeerID(p.ChatID)
	case *tg.PeerChannel:
		return domain.ChatPeerID(p.ChannelID)
	}
	return domain.PeerID{}
}

// User переводит пользователя; для tg.UserEmpty возвращается пользователь только с ID.
func (c *Converter) User(user tg.UserClass) domain.User {
	switch u := user.(type) {
	case *tg.User:
		return domain.User{
			ID:          u.ID,
			FirstName:   u.FirstName,
			LastName:    u.LastName,
			PhoneNumber: u.Phone,
			Username:    u.Username,
			IsBot:       u.Bot,
		}
	case *tg.UserEmpty:
		return domain.User{ID: u.ID}
	}
	return domain.User{}
}

// Chat переводит группу или канал.
func (c *Converter) Chat(chat tg.ChatClass) domain.Chat {
	switch ch := chat.(type) {
	case *tg.Chat:
		return domain.Chat{ID: ch.ID, Title: ch.Title}
	case *tg.ChatForbidden:
		return domain.Chat{ID: ch.ID, Title: ch.Title}
	case *tg.Channel:
		return domain.Chat{ID: ch.ID, Title: ch.Title, Username: ch.Username, IsBroadcast: ch.Broadcast}
	case *tg.ChannelForbidden:
		return domain.Chat{ID: ch.ID, Title: ch.Title, IsBroadcast: ch.Broadcast}
	case *tg.ChatEmpty:
		return domain.Chat{ID: ch.ID}
	}
	return domain.Chat{}
}

// Peers строит таблицу пиров из пользователей и чатов ответа.
func (c *Converter) Peers(users []tg.UserClass, chats []tg.ChatClass) domain.Peers {
	list := make([]domain.Peer, 0, len(users)+len(chats))
	for _, u := range users {
		list = append(list, c.User(u))
	}
	for _, ch := range chats {
		list = append(list, c.Chat(ch))
	}
	return domain.NewPeers(list...)
}

// DialogType определяет тип диалога по его пиру.
func DialogType(peer domain.Peer) domain.DialogType {
	switch p := peer.(type) {
	case domain.User:
		if p.IsBot {
			return domain.DialogBot
		}
		return domain.DialogPersonal
	case domain.Chat:
		switch {
		case p.IsBroadcast && p.Username != "":
			return domain.DialogPublicChannel
		case p.IsBroadcast:
			return domain.DialogPrivateChannel
		case p.Username != "":
			return domain.DialogPublicGroup
		}
		return domain.DialogPrivateGroup
	}
	return domain.DialogUnknown
}

// Dialog собирает диалог из ответа messages.getHistory.
// Сообщения возвращаются API от новых к старым, в диалоге они идут от старых к новым.
func (c *Converter) Dialog(info domain.DialogInfo, history tg.MessagesMessagesClass) domain.Dialog {
	messages, users, chats := historyParts(history)

	dialog := domain.Dialog{
		Info:     info,
		Messages: make([]domain.Message, 0, len(messages)),
		Peers:    c.Peers(users, chats),
	}
	for i := len(messages) - 1; i >= 0; i-- {
		if msg, ok := c.Message(messages[i]); ok {
			dialog.Messages = append(dialog.Messages, msg)
		}
	}
	return dialog
}

func historyParts(history tg.MessagesMessagesClass) ([]tg.MessageClass, []tg.UserClass, []tg.ChatClass) {
	switch h := history.(type) {
	case *tg.MessagesMessages:
		return h.Messages, h.Users, h.Chats
	case *tg.MessagesMessagesSlice:
		return h.Messages, h.Users, h.Chats
	case *tg.MessagesChannelMessages:
		return h.Messages, h.Users, h.Chats
	}
	return nil, nil, nil
}

// Message переводит одно сообщение. Для tg.MessageEmpty возвращается false.
func (c *Converter) Message(message tg.MessageClass) (domain.Message, bool) {
	switch m := message.(type) {
	case *tg.Message:
		msg := domain.Message{
			ID:        m.ID,
			Date:      unixTime(m.Date),
			FromID:    c.senderID(m.FromID, m.PeerID, m.Out),
			ViaBotID:  m.ViaBotID,
			Signature: m.PostAuthor,
			Text:      m.Message,
		}
		if edited, ok := m.GetEditDate(); ok {
			msg.Edited = unixTime(edited)
		}
		if fwd, ok := m.GetFwdFrom(); ok {
			if from, ok := fwd.GetFromID(); ok {
				msg.ForwardedFromID = PeerID(from)
			}
		}
		msg.ReplyToMsgID = replyToMsgID(m.ReplyTo)
		msg.Media = c.media(m.Media, msg)
		return msg, true
	case *tg.MessageService:
		msg := domain.Message{
			ID:           m.ID,
			Date:         unixTime(m.Date),
			FromID:       c.senderID(m.FromID, m.PeerID, m.Out),
			ReplyToMsgID: replyToMsgID(m.ReplyTo),
		}
		action, ok := c.action(m.Action)
		if !ok {
			c.log.Debug("unsupported service action", "id", m.ID, "type", m.Action.TypeName())
			msg.Media = domain.Media{Content: domain.UnsupportedMedia{}}
			return msg, true
		}
		msg.Action = action
		return msg, true
	}
	return domain.Message{}, false
}

// senderID возвращает автора сообщения. В личных диалогах from_id не передается:
// автор исходящего сообщения владелец аккаунта, входящего собеседник.
func (c *Converter) senderID(from, peer tg.PeerClass, out bool) int64 {
	if u, ok := from.(*tg.PeerUser); ok {
		return u.UserID
	}
	if from != nil {
		return 0
	}
	if out {
		return c.self
	}
	if u, ok := peer.(*tg.PeerUser); ok {
		return u.UserID
	}
	return 0
}

func replyToMsgID(reply tg.MessageReplyHeaderClass) int {
	if h, ok := reply.(*tg.MessageReplyHeader); ok {
		return h.ReplyToMsgID
	}
	return 0
}

func (c *Converter) photo(photo tg.PhotoClass) domain.Photo {
	p, ok := photo.(*tg.Photo)
	if !ok {
		return domain.Photo{Image: domain.Image{File: domain.File{SkipReason: domain.SkipUnavailable}}}
	}
	result := domain.Photo{ID: p.ID, Date: unixTime(p.Date)}
	for _, size := range p.Sizes {
		var w, h int
		switch s := size.(type) {
		case *tg.PhotoSize:
			w, h = s.W, s.H
		case *tg.PhotoSizeProgressive:
			w, h = s.W, s.H
		case *tg.PhotoCachedSize:
			w, h = s.W, s.H
		default:
			continue
		}
		if w*h > result.Image.Width*result.Image.Height {
			result.Image.Width, result.Image.Height = w, h
		}
	}
	result.Image.File = c.files.PhotoFile(p)
	return result
}

func (c *Converter) document(document tg.DocumentClass) domain.Document {
	doc, ok := document.(*tg.Document)
	if !ok {
		return domain.Document{File: domain.File{SkipReason: domain.SkipUnavailable}}
	}

	result := domain.Document{ID: doc.ID, Mime: doc.MimeType}
	var sticker, animated, round, voice, video, audio bool
	for _, attr := range doc.Attributes {
		switch a := attr.(type) {
		case *tg.DocumentAttributeFilename:
			result.Name = a.FileName
		case *tg.DocumentAttributeSticker:
			sticker = true
			result.StickerEmoji = a.Alt
		case *tg.DocumentAttributeAnimated:
			animated = true
		case *tg.DocumentAttributeVideo:
			video = true
			round = a.RoundMessage
			result.Duration = int(a.Duration)
			result.Width, result.Height = a.W, a.H
		case *tg.DocumentAttributeAudio:
			audio = true
			voice = a.Voice
			result.Duration = a.Duration
			result.SongPerformer = a.Performer
			result.SongTitle = a.Title
		case *tg.DocumentAttributeImageSize:
			result.Width, result.Height = a.W, a.H
		}
	}

	switch {
	case sticker:
		result.Kind = domain.DocumentSticker
	case animated:
		result.Kind = domain.DocumentAnimation
	case video && round:
		result.Kind = domain.DocumentVideoMessage
	case video:
		result.Kind = domain.DocumentVideoFile
	case audio && voice:
		result.Kind = domain.DocumentVoiceMessage
	case audio:
		result.Kind = domain.DocumentAudioFile
	default:
		result.Kind = domain.DocumentFile
	}
	result.File = c.files.DocumentFile(doc)
	return result
}

func geoPoint(geo tg.GeoPointClass) domain.GeoPoint {
	if p, ok := geo.(*tg.GeoPoint); ok {
		return domain.GeoPoint{Latitude: p.Lat, Longitude: p.Long, Valid: true}
	}
	return domain.GeoPoint{}
}

func (c *Converter) media(media tg.MessageMediaClass, msg domain.Message) domain.Media {
	switch m := media.(type) {
	case nil, *tg.MessageMediaEmpty, *tg.MessageMediaWebPage:
		return domain.Media{}
	case *tg.MessageMediaPhoto:
		photo, ok := m.GetPhoto()
		if !ok {
			return domain.Media{}
		}
		return domain.Media{Content: c.photo(photo), TTL: m.TTLSeconds}
	case *tg.MessageMediaDocument:
		doc, ok := m.GetDocument()
		if !ok {
			return domain.Media{}
		}
		return domain.Media{Content: c.document(doc), TTL: m.TTLSeconds}
	case *tg.MessageMediaContact:
		return domain.Media{Content: domain.ContactInfo{
			FirstName:   m.FirstName,
			LastName:    m.LastName,
			PhoneNumber: m.PhoneNumber,
		}}
	case *tg.MessageMediaGeo:
		return domain.Media{Content: geoPoint(m.Geo)}
	case *tg.MessageMediaGeoLive:
		return domain.Media{Content: geoPoint(m.Geo), TTL: m.Period}
	case *tg.MessageMediaVenue:
		return domain.Media{Content: domain.Venue{
			Point:   geoPoint(m.Geo),
			Title:   m.Title,
			Address: m.Address,
		}}
	case *tg.MessageMediaGame:
		botID := msg.ViaBotID
		if botID == 0 {
			botID = msg.FromID
		}
		return domain.Media{Content: domain.Game{
			ID:          m.Game.ID,
			ShortName:   m.Game.ShortName,
			Title:       m.Game.Title,
			Description: m.Game.Description,
			BotID:       botID,
		}}
	case *tg.MessageMediaInvoice:
		return domain.Media{Content: domain.Invoice{
			Title:        m.Title,
			Description:  m.Description,
			Currency:     m.Currency,
			Amount:       m.TotalAmount,
			ReceiptMsgID: m.ReceiptMsgID,
		}}
	}
	return domain.Media{Content: domain.UnsupportedMedia{}}
}

func (c *Converter) action(action tg.MessageActionClass) (domain.Action, bool) {
	switch a := action.(type) {
	case *tg.MessageActionChatCreate:
		return domain.ActionChatCreate{Title: a.Title, UserIDs: a.Users}, true
	case *tg.MessageActionChatEditTitle:
		return domain.ActionChatEditTitle{Title: a.Title}, true
	case *tg.MessageActionChatEditPhoto:
		return domain.ActionChatEditPhoto{Photo: c.photo(a.Photo)}, true
	case *tg.MessageActionChatDeletePhoto:
		return domain.ActionChatDeletePhoto{}, true
	case *tg.MessageActionChatAddUser:
		return domain.ActionChatAddUser{UserIDs: a.Users}, true
	case *tg.MessageActionChatDeleteUser:
		return domain.ActionChatDeleteUser{UserID: a.UserID}, true
	case *tg.MessageActionChatJoinedByLink:
		return domain.ActionChatJoinedByLink{InviterID: a.InviterID}, true
	case *tg.MessageActionChannelCreate:
		return domain.ActionChannelCreate{Title: a.Title}, true
	case *tg.MessageActionChatMigrateTo:
		return domain.ActionChatMigrateTo{ChannelID: a.ChannelID}, true
	case *tg.MessageActionChannelMigrateFrom:
		return domain.ActionChannelMigrateFrom{Title: a.Title, ChatID: a.ChatID}, true
	case *tg.MessageActionPinMessage:
		return domain.ActionPinMessage{}, true
	case *tg.MessageActionHistoryClear:
		return domain.ActionHistoryClear{}, true
	case *tg.MessageActionGameScore:
		return domain.ActionGameScore{GameID: a.GameID, Score: a.Score}, true
	case *tg.MessageActionPaymentSent:
		return domain.ActionPaymentSent{Currency: a.Currency, Amount: a.TotalAmount}, true
	case *tg.MessageActionPhoneCall:
		call := domain.ActionPhoneCall{}
		if duration, ok := a.GetDuration(); ok {
			call.Duration = duration
		}
		if reason, ok := a.GetReason(); ok {
			call.DiscardReason = discardReason(reason)
		}
		return call, true
	case *tg.MessageActionScreenshotTaken:
		return domain.ActionScreenshotTaken{}, true
	case *tg.MessageActionCustomAction:
		return domain.ActionCustomAction{Message: a.Message}, true
	case *tg.MessageActionBotAllowed:
		return domain.ActionBotAllowed{Domain: a.Domain}, true
	case *tg.MessageActionSecureValuesSent:
		types := make([]domain.SecureValueType, 0, len(a.Types))
		for _, t := range a.Types {
			types = append(types, secureValueType(t))
		}
		return domain.ActionSecureValuesSent{Types: types}, true
	}
	return nil, false
}

func discardReason(reason tg.PhoneCallDiscardReasonClass) domain.DiscardReason {
	switch reason.(type) {
	case *tg.PhoneCallDiscardReasonMissed:
		return domain.DiscardReasonMissed
	case *tg.PhoneCallDiscardReasonDisconnect:
		return domain.DiscardReasonDisconnect
	case *tg.PhoneCallDiscardReasonHangup:
		return domain.DiscardReasonHangup
	case *tg.PhoneCallDiscardReasonBusy:
		return domain.DiscardReasonBusy
	}
	return domain.DiscardReasonUnknown
}

func secureValueType(t tg.SecureValueTypeClass) domain.SecureValueType {
	switch t.(type) {
	case *tg.SecureValueTypePersonalDetails:
		return domain.SecureValuePersonalDetails
	case *tg.SecureValueTypePassport:
		return domain.SecureValuePassport
	case *tg.SecureValueTypeDriverLicense:
		return domain.SecureValueDriverLicense
	case *tg.SecureValueTypeIdentityCard:
		return domain.SecureValueIdentityCard
	case *tg.SecureValueTypeInternalPassport:
		return domain.SecureValueInternalPassport
	case *tg.SecureValueTypeAddress:
		return domain.SecureValueAddress
	case *tg.SecureValueTypeUtilityBill:
		return domain.SecureValueUtilityBill
	case *tg.SecureValueTypeBankStatement:
		return domain.SecureValueBankStatement
	case *tg.SecureValueTypeRentalAgreement:
		return domain.SecureValueRentalAgreement
	case *tg.SecureValueTypePassportRegistration:
		return domain.SecureValuePassportRegistration
	case *tg.SecureValueTypeTemporaryRegistration:
		return domain.SecureValueTemporaryRegistration
	case *tg.SecureValueTypePhone:
		return domain.SecureValuePhone
	case *tg.SecureValueTypeEmail:
		return domain.SecureValueEmail
	}
	return domain.SecureValueUnknown
}

// TopPeers переводит ответ contacts.getTopPeers в категории частых собеседников.
func (c *Converter) TopPeers(top *tg.ContactsTopPeers, contacts *domain.ContactsList) {
	peers := c.Peers(top.Users, top.Chats)
	for _, category := range top.Categories {
		list := make([]domain.TopPeer, 0, len(category.Peers))
		for _, p := range category.Peers {
			list = append(list, domain.TopPeer{Peer: peers.Peer(PeerID(p.Peer)), Rating: p.Rating})
		}
		switch category.Category.(type) {
		case *tg.TopPeerCategoryCorrespondents:
			contacts.Correspondents = append(contacts.Correspondents, list...)
		case *tg.TopPeerCategoryBotsInline:
			contacts.InlineBots = append(contacts.InlineBots, list...)
		case *tg.TopPeerCategoryPhoneCalls:
			contacts.PhoneCalls = append(contacts.PhoneCalls, list...)
		}
	}
}

// Sessions переводит ответ account.getAuthorizations.
func (c *Converter) Sessions(auth *tg.AccountAuthorizations) domain.SessionsList {
	list := domain.SessionsList{List: make([]domain.Session, 0, len(auth.Authorizations))}
	for _, a := range auth.Authorizations {
		list.List = append(list.List, domain.Session{
			Platform:           a.Platform,
			DeviceModel:        a.DeviceModel,
			SystemVersion:      a.SystemVersion,
			ApplicationName:    a.AppName,
			ApplicationVersion: a.AppVersion,
			Created:            unixTime(a.DateCreated),
			LastActive:         unixTime(a.DateActive),
			IP:                 a.IP,
			Country:            a.Country,
			Region:             a.Region,
		})
	}
	return list
}

// Personal переводит владельца аккаунта и текст "о себе".
func (c *Converter) Personal(self tg.UserClass, about string) *domain.PersonalInfo {
	return &domain.PersonalInfo{User: c.User(self), Bio: about}
}

// Userpics переводит ответ photos.getUserPhotos.
func (c *Converter) Userpics(photos tg.PhotosPhotosClass) []domain.Photo {
	var list []tg.PhotoClass
	switch p := photos.(type) {
	case *tg.PhotosPhotos:
		list = p.Photos
	case *tg.PhotosPhotosSlice:
		list = p.Photos
	}
	result := make([]domain.Photo, 0, len(list))
	for _, photo := range list {
		result = append(result, c.photo(photo))
	}
	return result
}

// Contacts переводит ответ contacts.getContacts. Для contacts.contactsNotModified возвращает nil.
func (c *Converter) Contacts(contacts tg.ContactsContactsClass) *domain.ContactsList {
	cc, ok := contacts.(*tg.ContactsContacts)
	if !ok {
		return nil
	}
	peers := c.Peers(cc.Users, nil)
	list := &domain.ContactsList{List: make([]domain.ContactInfo, 0, len(cc.Contacts))}
	for _, contact := range cc.Contacts {
		user := peers.User(contact.UserID)
		list.List = append(list.List, domain.ContactInfo{
			FirstName:   user.FirstName,
			LastName:    user.LastName,
			PhoneNumber: user.PhoneNumber,
		})
	}
	return list
}

// Export собирает модель выгрузки из дампа. Покинутые каналы продолжают нумерацию
// каталогов диалогов.
func (c *Converter) Export(dump *Dump) *domain.Export {
	export := &domain.Export{Personal: c.Personal(dump.Self, dump.About)}
	if dump.Userpics != nil {
		export.Userpics = c.Userpics(dump.Userpics)
	}
	if dump.Contacts != nil || dump.TopPeers != nil {
		contacts := c.Contacts(dump.Contacts)
		if contacts == nil {
			contacts = &domain.ContactsList{}
		}
		if top, ok := dump.TopPeers.(*tg.ContactsTopPeers); ok {
			c.TopPeers(top, contacts)
		}
		export.Contacts = contacts
	}
	if dump.Sessions != nil {
		sessions := c.Sessions(dump.Sessions)
		export.Sessions = &sessions
	}
	export.Dialogs = c.dumpDialogs(dump.Dialogs, 0)
	export.LeftChannels = c.dumpDialogs(dump.LeftChannels, len(dump.Dialogs))

	c.log.Debug("dump converted", "dialogs", len(export.Dialogs), "left_channels", len(export.LeftChannels))
	return export
}

func (c *Converter) dumpDialogs(list []DumpDialog, offset int) []domain.Dialog {
	if len(list) == 0 {
		return nil
	}
	result := make([]domain.Dialog, 0, len(list))
	for i, d := range list {
		_, users, chats := historyParts(d.History)
		peer := c.Peers(users, chats).Peer(PeerID(d.Peer))
		info := domain.DialogInfo{
			Type:         DialogType(peer),
			Name:         peer.Name(),
			RelativePath: fmt.Sprintf("chats/chat_%d/", offset+i+1),
		}
		result = append(result, c.Dialog(info, d.History))
	}
	return result
}

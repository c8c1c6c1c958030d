package text

import (
	"fmt"

	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/format"
)

// UnsupportedMessageNotice заменяет сообщение, вложение которого не поддерживается.
const UnsupportedMessageNotice = "Error! This message is not supported " +
	"by this version of Telegram Desktop. " +
	"Please update the application."

// fields накапливает пары блока сообщения, пропуская пустые значения.
type fields struct {
	codec Codec
	peers domain.Peers
	msg   *domain.Message
	pairs []Pair
}

func (f *fields) push(key, value string) {
	if value != "" {
		f.pairs = append(f.pairs, Pair{Key: key, Value: value})
	}
}

func (f *fields) peerName(id domain.PeerID) string {
	if name := f.peers.Peer(id).Name(); name != "" {
		return name
	}
	return "(unknown peer)"
}

func (f *fields) userName(id int64) string {
	if name := f.peers.User(id).Name(); name != "" {
		return name
	}
	return "(unknown user)"
}

func (f *fields) pushFrom(label string) {
	if f.msg.FromID != 0 {
		f.push(label, f.userName(f.msg.FromID))
	}
}

func (f *fields) pushActor() {
	f.pushFrom("Actor")
}

func (f *fields) pushAction(action string) {
	f.push("Action", action)
}

func (f *fields) pushReplyToMsgID(label string) {
	if f.msg.ReplyToMsgID != 0 {
		f.push(label, "ID-"+format.Number(f.msg.ReplyToMsgID))
	}
}

// pushList пишет одно значение под ключом one или несколько через запятую под ключом many.
func (f *fields) pushList(one, many string, list []string) {
	if len(list) == 1 {
		f.push(one, list[0])
	} else if len(list) > 1 {
		f.push(many, JoinList(", ", list))
	}
}

func (f *fields) pushUserNames(ids []int64) {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		names = append(names, f.userName(id))
	}
	f.pushList("Member", "Members", names)
}

func (f *fields) pushTTL(label string) {
	if ttl := f.msg.Media.TTL; ttl != 0 {
		f.push(label, format.Number(ttl)+" sec.")
	}
}

func (f *fields) pushDuration(seconds int) {
	if seconds != 0 {
		f.push("Duration", format.Number(seconds)+" sec.")
	}
}

func (f *fields) pushSize(width, height int) {
	if width != 0 && height != 0 {
		f.push("Width", format.Number(width))
		f.push("Height", format.Number(height))
	}
}

func (f *fields) pushPath(file domain.File, label string) {
	f.push(label, FilePath(file, ""))
}

func (f *fields) pushPhoto(image domain.Image) {
	f.pushPath(image.File, "Photo")
	f.pushSize(image.Width, image.Height)
}

// FilePath возвращает относительный путь файла или заглушку с причиной пропуска,
// при необходимости предваренную подписью name.
func FilePath(file domain.File, name string) string {
	if file.RelativePath == "" && file.SkipReason == domain.SkipNone {
		panic("text: file with empty relative path and no skip reason")
	}
	pre := ""
	if name != "" {
		pre = name + " "
	}
	switch file.SkipReason {
	case domain.SkipUnavailable:
		return pre + "(file unavailable)"
	case domain.SkipFileSize:
		return pre + "(file too large)"
	case domain.SkipFileType:
		return pre + "(file skipped)"
	case domain.SkipNone:
		return file.RelativePath
	}
	panic(fmt.Sprintf("text: unexpected skip reason %d while writing file path", file.SkipReason))
}

// Message сериализует одно сообщение в блок ключ-значение.
func (c Codec) Message(msg domain.Message, peers domain.Peers) string {
	if _, ok := msg.Media.Content.(domain.UnsupportedMedia); ok {
		return UnsupportedMessageNotice
	}

	f := &fields{
		codec: c,
		peers: peers,
		msg:   &msg,
		pairs: []Pair{
			{"ID", format.Number(msg.ID)},
			{"Date", format.DateTime(msg.Date, c.Location)},
			{"Edited", format.DateTime(msg.Edited, c.Location)},
		},
	}

	f.action(msg.Action)

	if msg.Action == nil {
		f.pushFrom("From")
		f.push("Author", msg.Signature)
		if !msg.ForwardedFromID.IsZero() {
			f.push("Forwarded from", f.peerName(msg.ForwardedFromID))
		}
		f.pushReplyToMsgID("Reply to message")
		if msg.ViaBotID != 0 {
			f.push("Via", peers.User(msg.ViaBotID).Username)
		}
	}

	f.media(msg.Media.Content)

	f.push("Text", msg.Text)

	return c.KeyValue(f.pairs...)
}

func (f *fields) action(action domain.Action) {
	switch data := action.(type) {
	case nil:
	case domain.ActionChatCreate:
		f.pushActor()
		f.pushAction("Create group")
		f.push("Title", data.Title)
		f.pushUserNames(data.UserIDs)
	case domain.ActionChatEditTitle:
		f.pushActor()
		f.pushAction("Edit group title")
		f.push("New title", data.Title)
	case domain.ActionChatEditPhoto:
		f.pushActor()
		f.pushAction("Edit group photo")
		f.pushPhoto(data.Photo.Image)
	case domain.ActionChatDeletePhoto:
		f.pushActor()
		f.pushAction("Delete group photo")
	case domain.ActionChatAddUser:
		f.pushActor()
		f.pushAction("Invite members")
		f.pushUserNames(data.UserIDs)
	case domain.ActionChatDeleteUser:
		f.pushActor()
		f.pushAction("Remove members")
		f.push("Member", f.userName(data.UserID))
	case domain.ActionChatJoinedByLink:
		f.pushActor()
		f.pushAction("Join group by link")
		f.push("Inviter", f.userName(data.InviterID))
	case domain.ActionChannelCreate:
		f.pushActor()
		f.pushAction("Create channel")
		f.push("Title", data.Title)
	case domain.ActionChatMigrateTo:
		f.pushActor()
		f.pushAction("Migrate this group to supergroup")
	case domain.ActionChannelMigrateFrom:
		f.pushActor()
		f.pushAction("Migrate this supergroup from group")
		f.push("Title", data.Title)
	case domain.ActionPinMessage:
		f.pushActor()
		f.pushAction("Pin message")
		f.pushReplyToMsgID("Message")
	case domain.ActionHistoryClear:
		f.pushActor()
		f.pushAction("Clear history")
	case domain.ActionGameScore:
		f.pushActor()
		f.pushAction("Score in a game")
		f.pushReplyToMsgID("Game message")
		f.push("Score", format.Number(data.Score))
	case domain.ActionPaymentSent:
		f.pushAction("Send payment")
		f.push("Amount", format.MoneyAmount(data.Amount, data.Currency))
		f.pushReplyToMsgID("Invoice message")
	case domain.ActionPhoneCall:
		f.pushActor()
		f.pushAction("Phone call")
		f.pushDuration(data.Duration)
		f.push("Discard reason", discardReasonLabel(data.DiscardReason))
	case domain.ActionScreenshotTaken:
		f.pushActor()
		f.pushAction("Take screenshot")
	case domain.ActionCustomAction:
		f.pushActor()
		f.push("Information", data.Message)
	case domain.ActionBotAllowed:
		f.pushAction("Allow sending messages")
		f.push("Reason", `Login on "`+data.Domain+`"`)
	case domain.ActionSecureValuesSent:
		f.pushAction("Send Telegram Passport values")
		labels := make([]string, 0, len(data.Types))
		for _, t := range data.Types {
			labels = append(labels, secureValueLabel(t))
		}
		f.pushList("Value", "Values", labels)
	default:
		panic(fmt.Sprintf("text: unexpected message action %T", action))
	}
}

func (f *fields) media(content domain.MediaContent) {
	switch data := content.(type) {
	case nil:
	case domain.Photo:
		f.pushPhoto(data.Image)
		f.pushTTL("Self destruct period")
	case domain.Document:
		f.pushPath(data.File, documentLabel(data.Kind))
		switch data.Kind {
		case domain.DocumentSticker:
			f.push("Emoji", data.StickerEmoji)
		case domain.DocumentAudioFile:
			f.push("Performer", data.SongPerformer)
			f.push("Title", data.SongTitle)
		}
		if data.Kind != domain.DocumentSticker {
			f.push("Mime type", data.Mime)
		}
		f.pushDuration(data.Duration)
		f.pushSize(data.Width, data.Height)
		f.pushTTL("Self destruct period")
	case domain.ContactInfo:
		f.push("Contact information", f.codec.KeyValue(
			Pair{"First name", data.FirstName},
			Pair{"Last name", data.LastName},
			Pair{"Phone number", format.PhoneNumber(data.PhoneNumber)},
		))
	case domain.GeoPoint:
		if data.Valid {
			f.push("Location", f.codec.location(data))
		} else {
			f.push("Location", "(empty value)")
		}
		f.pushTTL("Live location period")
	case domain.Venue:
		f.push("Place name", data.Title)
		f.push("Address", data.Address)
		if data.Point.Valid {
			f.push("Location", f.codec.location(data.Point))
		}
	case domain.Game:
		f.push("Game", data.Title)
		f.push("Description", data.Description)
		if data.BotID != 0 && data.ShortName != "" {
			bot := f.peers.User(data.BotID)
			if bot.IsBot && bot.Username != "" {
				f.push("Link", f.codec.InternalLinksDomain+bot.Username+"?game="+data.ShortName)
			}
		}
	case domain.Invoice:
		receipt := ""
		if data.ReceiptMsgID != 0 {
			receipt = "ID-" + format.Number(data.ReceiptMsgID)
		}
		f.push("Invoice", f.codec.KeyValue(
			Pair{"Title", data.Title},
			Pair{"Description", data.Description},
			Pair{"Amount", format.MoneyAmount(data.Amount, data.Currency)},
			Pair{"Receipt message", receipt},
		))
	case domain.UnsupportedMedia:
		panic("text: unsupported media must be handled before field dispatch")
	default:
		panic(fmt.Sprintf("text: unexpected message media %T", content))
	}
}

func (c Codec) location(point domain.GeoPoint) string {
	return c.KeyValue(
		Pair{"Latitude", format.Float(point.Latitude)},
		Pair{"Longitude", format.Float(point.Longitude)},
	)
}

func documentLabel(kind domain.DocumentKind) string {
	switch kind {
	case domain.DocumentSticker:
		return "Sticker"
	case domain.DocumentVideoMessage:
		return "Video message"
	case domain.DocumentVoiceMessage:
		return "Voice message"
	case domain.DocumentAnimation:
		return "Animation"
	case domain.DocumentVideoFile:
		return "Video file"
	case domain.DocumentAudioFile:
		return "Audio file"
	}
	return "File"
}

func discardReasonLabel(reason domain.DiscardReason) string {
	switch reason {
	case domain.DiscardReasonBusy:
		return "Busy"
	case domain.DiscardReasonDisconnect:
		return "Disconnect"
	case domain.DiscardReasonHangup:
		return "Hangup"
	case domain.DiscardReasonMissed:
		return "Missed"
	}
	return ""
}

func secureValueLabel(t domain.SecureValueType) string {
	switch t {
	case domain.SecureValuePersonalDetails:
		return "Personal details"
	case domain.SecureValuePassport:
		return "Passport"
	case domain.SecureValueDriverLicense:
		return "Driver license"
	case domain.SecureValueIdentityCard:
		return "Identity card"
	case domain.SecureValueInternalPassport:
		return "Internal passport"
	case domain.SecureValueAddress:
		return "Address information"
	case domain.SecureValueUtilityBill:
		return "Utility bill"
	case domain.SecureValueBankStatement:
		return "Bank statement"
	case domain.SecureValueRentalAgreement:
		return "Rental agreement"
	case domain.SecureValuePassportRegistration:
		return "Passport registration"
	case domain.SecureValueTemporaryRegistration:
		return "Temporary registration"
	case domain.SecureValuePhone:
		return "Phone number"
	case domain.SecureValueEmail:
		return "Email"
	}
	return ""
}

package parser

import (
	"fmt"

	"telegram-text-export/internal/domain"
)

// Транспортная модель JSON-документа выгрузки. Варианты действий и вложений
// описываются плоскими объектами с полем "type".

type exportDTO struct {
	Personal     *domain.PersonalInfo `json:"personal"`
	Userpics     []domain.Photo       `json:"userpics"`
	Contacts     *contactsDTO         `json:"contacts"`
	Sessions     *domain.SessionsList `json:"sessions"`
	Dialogs      []dialogDTO          `json:"dialogs"`
	LeftChannels []dialogDTO          `json:"left_channels"`
}

type contactsDTO struct {
	List           []domain.ContactInfo `json:"list"`
	Correspondents []topPeerDTO         `json:"correspondents"`
	InlineBots     []topPeerDTO         `json:"inline_bots"`
	PhoneCalls     []topPeerDTO         `json:"phone_calls"`
}

type topPeerDTO struct {
	Peer   peerDTO `json:"peer"`
	Rating float64 `json:"rating"`
}

type peerDTO struct {
	Type        string `json:"type"`
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Username    string `json:"username"`
	IsBot       bool   `json:"is_bot"`
	Title       string `json:"title"`
	IsBroadcast bool   `json:"is_broadcast"`
}

type dialogDTO struct {
	Info     dialogInfoDTO `json:"info"`
	Peers    []peerDTO     `json:"peers"`
	Messages []messageDTO  `json:"messages"`
}

type dialogInfoDTO struct {
	Type           string `json:"type"`
	Name           string `json:"name"`
	RelativePath   string `json:"relative_path"`
	OnlyMyMessages bool   `json:"only_my_messages"`
}

type messageDTO struct {
	domain.Message
	Action *actionDTO `json:"action"`
	Media  *mediaDTO  `json:"media"`
}

type actionDTO struct {
	Type          string       `json:"type"`
	Title         string       `json:"title"`
	UserIDs       []int64      `json:"user_ids"`
	UserID        int64        `json:"user_id"`
	InviterID     int64        `json:"inviter_id"`
	ChannelID     int64        `json:"channel_id"`
	ChatID        int64        `json:"chat_id"`
	Photo         domain.Photo `json:"photo"`
	GameID        int64        `json:"game_id"`
	Score         int          `json:"score"`
	Currency      string       `json:"currency"`
	Amount        int64        `json:"amount"`
	DiscardReason string       `json:"discard_reason"`
	Duration      int          `json:"duration"`
	Message       string       `json:"message"`
	Domain        string       `json:"domain"`
	Values        []string     `json:"values"`
}

type pointDTO struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type mediaDTO struct {
	Type string `json:"type"`
	TTL  int    `json:"ttl"`

	ID    int64        `json:"id"`
	Image domain.Image `json:"image"`

	File          domain.File `json:"file"`
	Name          string      `json:"name"`
	Mime          string      `json:"mime"`
	Kind          string      `json:"kind"`
	StickerEmoji  string      `json:"sticker_emoji"`
	SongPerformer string      `json:"performer"`
	SongTitle     string      `json:"song_title"`
	Duration      int         `json:"duration"`
	Width         int         `json:"width"`
	Height        int         `json:"height"`

	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`

	Point   *pointDTO `json:"point"`
	Title   string    `json:"title"`
	Address string    `json:"address"`

	ShortName   string `json:"short_name"`
	Description string `json:"description"`
	BotID       int64  `json:"bot_id"`

	Currency     string `json:"currency"`
	Amount       int64  `json:"amount"`
	ReceiptMsgID int    `json:"receipt_msg_id"`
}

var dialogTypes = map[string]domain.DialogType{
	"personal":        domain.DialogPersonal,
	"bot":             domain.DialogBot,
	"private_group":   domain.DialogPrivateGroup,
	"public_group":    domain.DialogPublicGroup,
	"private_channel": domain.DialogPrivateChannel,
	"public_channel":  domain.DialogPublicChannel,
}

var documentKinds = map[string]domain.DocumentKind{
	"":              domain.DocumentFile,
	"file":          domain.DocumentFile,
	"sticker":       domain.DocumentSticker,
	"video_message": domain.DocumentVideoMessage,
	"voice_message": domain.DocumentVoiceMessage,
	"animation":     domain.DocumentAnimation,
	"video_file":    domain.DocumentVideoFile,
	"audio_file":    domain.DocumentAudioFile,
}

var discardReasons = map[string]domain.DiscardReason{
	"missed":     domain.DiscardReasonMissed,
	"disconnect": domain.DiscardReasonDisconnect,
	"hangup":     domain.DiscardReasonHangup,
	"busy":       domain.DiscardReasonBusy,
}

var secureValueTypes = map[string]domain.SecureValueType{
	"personal_details":       domain.SecureValuePersonalDetails,
	"passport":               domain.SecureValuePassport,
	"driver_license":         domain.SecureValueDriverLicense,
	"identity_card":          domain.SecureValueIdentityCard,
	"internal_passport":      domain.SecureValueInternalPassport,
	"address":                domain.SecureValueAddress,
	"utility_bill":           domain.SecureValueUtilityBill,
	"bank_statement":         domain.SecureValueBankStatement,
	"rental_agreement":       domain.SecureValueRentalAgreement,
	"passport_registration":  domain.SecureValuePassportRegistration,
	"temporary_registration": domain.SecureValueTemporaryRegistration,
	"phone":                  domain.SecureValuePhone,
	"email":                  domain.SecureValueEmail,
}

func (dto exportDTO) toDomain() (*domain.Export, error) {
	export := &domain.Export{
		Personal: dto.Personal,
		Userpics: dto.Userpics,
		Sessions: dto.Sessions,
	}

	for i, userpic := range dto.Userpics {
		// удаленная фотография выводится без файла
		if userpic.Date.IsZero() {
			continue
		}
		if err := userpic.Image.File.Validate(); err != nil {
			return nil, fmt.Errorf("userpic #%d: %w", i, err)
		}
	}

	if dto.Contacts != nil {
		contacts, err := dto.Contacts.toDomain()
		if err != nil {
			return nil, fmt.Errorf("contacts: %w", err)
		}
		export.Contacts = contacts
	}

	var err error
	if export.Dialogs, err = dialogsToDomain(dto.Dialogs); err != nil {
		return nil, fmt.Errorf("dialogs: %w", err)
	}
	if export.LeftChannels, err = dialogsToDomain(dto.LeftChannels); err != nil {
		return nil, fmt.Errorf("left channels: %w", err)
	}
	return export, nil
}

func (dto contactsDTO) toDomain() (*domain.ContactsList, error) {
	list := &domain.ContactsList{List: dto.List}
	var err error
	if list.Correspondents, err = topPeersToDomain(dto.Correspondents); err != nil {
		return nil, err
	}
	if list.InlineBots, err = topPeersToDomain(dto.InlineBots); err != nil {
		return nil, err
	}
	if list.PhoneCalls, err = topPeersToDomain(dto.PhoneCalls); err != nil {
		return nil, err
	}
	return list, nil
}

func topPeersToDomain(list []topPeerDTO) ([]domain.TopPeer, error) {
	if len(list) == 0 {
		return nil, nil
	}
	result := make([]domain.TopPeer, 0, len(list))
	for _, top := range list {
		peer, err := top.Peer.toDomain()
		if err != nil {
			return nil, err
		}
		result = append(result, domain.TopPeer{Peer: peer, Rating: top.Rating})
	}
	return result, nil
}

func (dto peerDTO) toDomain() (domain.Peer, error) {
	switch dto.Type {
	case "user":
		return domain.User{
			ID:          dto.ID,
			FirstName:   dto.FirstName,
			LastName:    dto.LastName,
			PhoneNumber: dto.PhoneNumber,
			Username:    dto.Username,
			IsBot:       dto.IsBot,
		}, nil
	case "chat":
		return domain.Chat{
			ID:          dto.ID,
			Title:       dto.Title,
			Username:    dto.Username,
			IsBroadcast: dto.IsBroadcast,
		}, nil
	}
	return nil, fmt.Errorf("unknown peer type %q", dto.Type)
}

func dialogsToDomain(list []dialogDTO) ([]domain.Dialog, error) {
	if len(list) == 0 {
		return nil, nil
	}
	result := make([]domain.Dialog, 0, len(list))
	for i, dto := range list {
		dialog, err := dto.toDomain()
		if err != nil {
			return nil, fmt.Errorf("dialog #%d %q: %w", i, dto.Info.Name, err)
		}
		result = append(result, dialog)
	}
	return result, nil
}

func (dto dialogDTO) toDomain() (domain.Dialog, error) {
	info := domain.DialogInfo{
		Type:           dialogTypes[dto.Info.Type],
		Name:           dto.Info.Name,
		RelativePath:   dto.Info.RelativePath,
		OnlyMyMessages: dto.Info.OnlyMyMessages,
	}
	if !info.HasLocalPath() {
		return domain.Dialog{}, fmt.Errorf("relative path %q leaves the export directory", info.RelativePath)
	}

	peers := make([]domain.Peer, 0, len(dto.Peers))
	for _, p := range dto.Peers {
		peer, err := p.toDomain()
		if err != nil {
			return domain.Dialog{}, err
		}
		peers = append(peers, peer)
	}

	messages := make([]domain.Message, 0, len(dto.Messages))
	for _, m := range dto.Messages {
		msg, err := m.toDomain()
		if err != nil {
			return domain.Dialog{}, fmt.Errorf("message %d: %w", m.ID, err)
		}
		messages = append(messages, msg)
	}

	return domain.Dialog{
		Info:     info,
		Messages: messages,
		Peers:    domain.NewPeers(peers...),
	}, nil
}

func (dto messageDTO) toDomain() (domain.Message, error) {
	msg := dto.Message
	if dto.Action != nil {
		action, err := dto.Action.toDomain()
		if err != nil {
			return domain.Message{}, err
		}
		msg.Action = action
	}
	if dto.Media != nil {
		media, err := dto.Media.toDomain()
		if err != nil {
			return domain.Message{}, fmt.Errorf("media %q: %w", dto.Media.Type, err)
		}
		msg.Media = media
	}
	return msg, nil
}

func (dto actionDTO) toDomain() (domain.Action, error) {
	switch dto.Type {
	case "chat_create":
		return domain.ActionChatCreate{Title: dto.Title, UserIDs: dto.UserIDs}, nil
	case "chat_edit_title":
		return domain.ActionChatEditTitle{Title: dto.Title}, nil
	case "chat_edit_photo":
		if err := dto.Photo.Image.File.Validate(); err != nil {
			return nil, fmt.Errorf("chat photo: %w", err)
		}
		return domain.ActionChatEditPhoto{Photo: dto.Photo}, nil
	case "chat_delete_photo":
		return domain.ActionChatDeletePhoto{}, nil
	case "chat_add_user":
		return domain.ActionChatAddUser{UserIDs: dto.UserIDs}, nil
	case "chat_delete_user":
		return domain.ActionChatDeleteUser{UserID: dto.UserID}, nil
	case "chat_joined_by_link":
		return domain.ActionChatJoinedByLink{InviterID: dto.InviterID}, nil
	case "channel_create":
		return domain.ActionChannelCreate{Title: dto.Title}, nil
	case "chat_migrate_to":
		return domain.ActionChatMigrateTo{ChannelID: dto.ChannelID}, nil
	case "channel_migrate_from":
		return domain.ActionChannelMigrateFrom{Title: dto.Title, ChatID: dto.ChatID}, nil
	case "pin_message":
		return domain.ActionPinMessage{}, nil
	case "history_clear":
		return domain.ActionHistoryClear{}, nil
	case "game_score":
		return domain.ActionGameScore{GameID: dto.GameID, Score: dto.Score}, nil
	case "payment_sent":
		return domain.ActionPaymentSent{Currency: dto.Currency, Amount: dto.Amount}, nil
	case "phone_call":
		return domain.ActionPhoneCall{
			DiscardReason: discardReasons[dto.DiscardReason],
			Duration:      dto.Duration,
		}, nil
	case "screenshot_taken":
		return domain.ActionScreenshotTaken{}, nil
	case "custom_action":
		return domain.ActionCustomAction{Message: dto.Message}, nil
	case "bot_allowed":
		return domain.ActionBotAllowed{Domain: dto.Domain}, nil
	case "secure_values_sent":
		types := make([]domain.SecureValueType, 0, len(dto.Values))
		for _, v := range dto.Values {
			t, ok := secureValueTypes[v]
			if !ok {
				return nil, fmt.Errorf("unknown secure value type %q", v)
			}
			types = append(types, t)
		}
		return domain.ActionSecureValuesSent{Types: types}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", dto.Type)
}

// toDomain отклоняет только некорректные ссылки на файлы: неизвестное вложение
// становится UnsupportedMedia.
func (dto mediaDTO) toDomain() (domain.Media, error) {
	media := domain.Media{TTL: dto.TTL}
	switch dto.Type {
	case "photo":
		if err := dto.Image.File.Validate(); err != nil {
			return domain.Media{}, err
		}
		media.Content = domain.Photo{ID: dto.ID, Image: dto.Image}
	case "document":
		kind, ok := documentKinds[dto.Kind]
		if !ok {
			media.Content = domain.UnsupportedMedia{}
			break
		}
		if err := dto.File.Validate(); err != nil {
			return domain.Media{}, err
		}
		media.Content = domain.Document{
			ID:            dto.ID,
			File:          dto.File,
			Name:          dto.Name,
			Mime:          dto.Mime,
			Kind:          kind,
			StickerEmoji:  dto.StickerEmoji,
			SongPerformer: dto.SongPerformer,
			SongTitle:     dto.SongTitle,
			Duration:      dto.Duration,
			Width:         dto.Width,
			Height:        dto.Height,
		}
	case "contact":
		media.Content = domain.ContactInfo{
			FirstName:   dto.FirstName,
			LastName:    dto.LastName,
			PhoneNumber: dto.PhoneNumber,
		}
	case "geo":
		media.Content = dto.Point.toDomain()
	case "venue":
		media.Content = domain.Venue{
			Point:   dto.Point.toDomain(),
			Title:   dto.Title,
			Address: dto.Address,
		}
	case "game":
		media.Content = domain.Game{
			ID:          dto.ID,
			ShortName:   dto.ShortName,
			Title:       dto.Title,
			Description: dto.Description,
			BotID:       dto.BotID,
		}
	case "invoice":
		media.Content = domain.Invoice{
			Title:        dto.Title,
			Description:  dto.Description,
			Currency:     dto.Currency,
			Amount:       dto.Amount,
			ReceiptMsgID: dto.ReceiptMsgID,
		}
	default:
		media.Content = domain.UnsupportedMedia{}
	}
	return media, nil
}

func (p *pointDTO) toDomain() domain.GeoPoint {
	if p == nil {
		return domain.GeoPoint{}
	}
	return domain.GeoPoint{Latitude: p.Latitude, Longitude: p.Longitude, Valid: true}
}

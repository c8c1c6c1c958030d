package domain

// Action — служебное действие сообщения. Набор реализаций закрыт:
// новые виды добавляются только в этом файле. nil означает обычное сообщение.
type Action interface {
	isAction()
}

type ActionChatCreate struct {
	Title   string
	UserIDs []int64
}

type ActionChatEditTitle struct {
	Title string
}

type ActionChatEditPhoto struct {
	Photo Photo
}

type ActionChatDeletePhoto struct{}

type ActionChatAddUser struct {
	UserIDs []int64
}

type ActionChatDeleteUser struct {
	UserID int64
}

type ActionChatJoinedByLink struct {
	InviterID int64
}

type ActionChannelCreate struct {
	Title string
}

type ActionChatMigrateTo struct {
	ChannelID int64
}

type ActionChannelMigrateFrom struct {
	Title  string
	ChatID int64
}

type ActionPinMessage struct{}

type ActionHistoryClear struct{}

type ActionGameScore struct {
	GameID int64
	Score  int
}

// ActionPaymentSent хранит сумму в минимальных единицах валюты.
type ActionPaymentSent struct {
	Currency string
	Amount   int64
}

// DiscardReason описывает причину завершения звонка.
type DiscardReason int

const (
	DiscardReasonUnknown DiscardReason = iota
	DiscardReasonMissed
	DiscardReasonDisconnect
	DiscardReasonHangup
	DiscardReasonBusy
)

type ActionPhoneCall struct {
	DiscardReason DiscardReason
	// Duration в секундах.
	Duration int
}

type ActionScreenshotTaken struct{}

type ActionCustomAction struct {
	Message string
}

type ActionBotAllowed struct {
	Domain string
}

// SecureValueType определяет тип данных Telegram Passport.
type SecureValueType int

const (
	SecureValueUnknown SecureValueType = iota
	SecureValuePersonalDetails
	SecureValuePassport
	SecureValueDriverLicense
	SecureValueIdentityCard
	SecureValueInternalPassport
	SecureValueAddress
	SecureValueUtilityBill
	SecureValueBankStatement
	SecureValueRentalAgreement
	SecureValuePassportRegistration
	SecureValueTemporaryRegistration
	SecureValuePhone
	SecureValueEmail
)

type ActionSecureValuesSent struct {
	Types []SecureValueType
}

func (ActionChatCreate) isAction()         {}
func (ActionChatEditTitle) isAction()      {}
func (ActionChatEditPhoto) isAction()      {}
func (ActionChatDeletePhoto) isAction()    {}
func (ActionChatAddUser) isAction()        {}
func (ActionChatDeleteUser) isAction()     {}
func (ActionChatJoinedByLink) isAction()   {}
func (ActionChannelCreate) isAction()      {}
func (ActionChatMigrateTo) isAction()      {}
func (ActionChannelMigrateFrom) isAction() {}
func (ActionPinMessage) isAction()         {}
func (ActionHistoryClear) isAction()       {}
func (ActionGameScore) isAction()          {}
func (ActionPaymentSent) isAction()        {}
func (ActionPhoneCall) isAction()          {}
func (ActionScreenshotTaken) isAction()    {}
func (ActionCustomAction) isAction()       {}
func (ActionBotAllowed) isAction()         {}
func (ActionSecureValuesSent) isAction()   {}

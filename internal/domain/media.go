package domain

import "time"

// Media — вложение сообщения. Content равен nil, если вложения нет.
type Media struct {
	Content MediaContent
	// Период самоуничтожения (или трансляции геопозиции) в секундах, 0 если не задан.
	TTL int
}

// MediaContent описывает содержимое вложения. Набор реализаций закрыт.
type MediaContent interface {
	isMedia()
}

// DocumentKind определяет, как документ показывается в выгрузке.
type DocumentKind int

const (
	DocumentFile DocumentKind = iota
	DocumentSticker
	DocumentVideoMessage
	DocumentVoiceMessage
	DocumentAnimation
	DocumentVideoFile
	DocumentAudioFile
)

// Document — файл любого вида, включая стикеры и голосовые сообщения.
type Document struct {
	ID            int64
	File          File
	Name          string
	Mime          string
	Kind          DocumentKind
	StickerEmoji  string
	SongPerformer string
	SongTitle     string
	// Duration в секундах.
	Duration int
	Width    int
	Height   int
}

// ContactInfo — контакт: как вложение сообщения и как запись списка контактов.
type ContactInfo struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	PhoneNumber string    `json:"phone_number"`
	Date        time.Time `json:"date"`
}

// GeoPoint задает точку на карте. Valid равен false для пустой геопозиции.
type GeoPoint struct {
	Latitude  float64
	Longitude float64
	Valid     bool
}

type Venue struct {
	Point   GeoPoint
	Title   string
	Address string
}

type Game struct {
	ID          int64
	ShortName   string
	Title       string
	Description string
	BotID       int64
}

// Invoice хранит сумму в минимальных единицах валюты.
type Invoice struct {
	Title        string
	Description  string
	Currency     string
	Amount       int64
	ReceiptMsgID int
}

// UnsupportedMedia — вложение, которое текущая версия не умеет показывать.
type UnsupportedMedia struct{}

func (Photo) isMedia()            {}
func (Document) isMedia()         {}
func (ContactInfo) isMedia()      {}
func (GeoPoint) isMedia()         {}
func (Venue) isMedia()            {}
func (Game) isMedia()             {}
func (Invoice) isMedia()          {}
func (UnsupportedMedia) isMedia() {}

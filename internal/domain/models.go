package domain

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"
)

// SkipReason описывает, почему файл, на который ссылается сообщение, не был выгружен.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipUnavailable
	SkipFileSize
	SkipFileType
)

// ErrInvalidFile возвращается для ссылки на файл без пути и без причины пропуска.
var ErrInvalidFile = errors.New("file has neither relative path nor skip reason")

// File представляет ссылку на выгруженный файл.
// RelativePath пуст только если SkipReason != SkipNone.
type File struct {
	RelativePath string     `json:"relative_path"`
	SkipReason   SkipReason `json:"skip_reason"`
}

// Validate проверяет, что ссылку можно показать в выгрузке.
func (f File) Validate() error {
	if f.SkipReason < SkipNone || f.SkipReason > SkipFileType {
		return fmt.Errorf("unknown file skip reason %d", f.SkipReason)
	}
	if f.RelativePath == "" && f.SkipReason == SkipNone {
		return ErrInvalidFile
	}
	return nil
}

// Image представляет изображение с размерами.
type Image struct {
	Width  int  `json:"width"`
	Height int  `json:"height"`
	File   File `json:"file"`
}

// Photo представляет фотографию (в сообщении или в списке аватаров).
type Photo struct {
	ID    int64     `json:"id"`
	Date  time.Time `json:"date"`
	Image Image     `json:"image"`
}

// Message представляет одно сообщение истории.
// Action и Media.Content могут быть nil: это означает отсутствие действия или вложения.
type Message struct {
	ID              int       `json:"id"`
	Date            time.Time `json:"date"`
	Edited          time.Time `json:"edited"`
	FromID          int64     `json:"from_id"`
	ReplyToMsgID    int       `json:"reply_to_msg_id"`
	ForwardedFromID PeerID    `json:"forwarded_from_id"`
	ViaBotID        int64     `json:"via_bot_id"`
	Signature       string    `json:"signature"`
	Text            string    `json:"text"`
	Action          Action    `json:"-"`
	Media           Media     `json:"-"`
}

// MessagesSlice — порция сообщений одного диалога вместе с пирами,
// на которых эти сообщения ссылаются.
type MessagesSlice struct {
	List  []Message
	Peers Peers
}

// PersonalInfo содержит данные владельца аккаунта.
type PersonalInfo struct {
	User User   `json:"user"`
	Bio  string `json:"bio"`
}

// UserpicsInfo содержит количество аватаров, которые будут выгружены.
type UserpicsInfo struct {
	Count int `json:"count"`
}

// UserpicsSlice содержит порцию аватаров.
type UserpicsSlice struct {
	List []Photo `json:"list"`
}

// Session представляет одну авторизованную сессию.
type Session struct {
	Platform           string    `json:"platform"`
	DeviceModel        string    `json:"device_model"`
	SystemVersion      string    `json:"system_version"`
	ApplicationName    string    `json:"application_name"`
	ApplicationVersion string    `json:"application_version"`
	Created            time.Time `json:"created"`
	LastActive         time.Time `json:"last_active"`
	IP                 string    `json:"ip"`
	Country            string    `json:"country"`
	Region             string    `json:"region"`
}

// SessionsList содержит список сессий.
type SessionsList struct {
	List []Session `json:"list"`
}

// DialogType определяет тип диалога.
type DialogType int

const (
	DialogUnknown DialogType = iota
	DialogPersonal
	DialogBot
	DialogPrivateGroup
	DialogPublicGroup
	DialogPrivateChannel
	DialogPublicChannel
)

// DialogInfo описывает один диалог, сообщения которого выгружаются в отдельный файл.
type DialogInfo struct {
	Type DialogType `json:"type"`
	Name string     `json:"name"`
	// Каталог диалога относительно корня выгрузки, например "chats/chat_01/".
	RelativePath   string `json:"relative_path"`
	OnlyMyMessages bool   `json:"only_my_messages"`
}

// HasLocalPath сообщает, что каталог диалога не выходит за корень выгрузки.
// Пустой путь означает сам корень.
func (i DialogInfo) HasLocalPath() bool {
	return i.RelativePath == "" || filepath.IsLocal(i.RelativePath)
}

// DialogsInfo содержит упорядоченный список диалогов.
type DialogsInfo struct {
	List []DialogInfo `json:"list"`
}

// ArchiveFile описывает один файл готового текстового архива.
type ArchiveFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	SHA256 string `json:"sha256"`
}

package telegram

import (
	"errors"
	"fmt"
	"slices"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/tg"

	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/ports"
)

// DumpTypeID открывает бинарный дамп аккаунта.
const DumpTypeID = 0x74787464

// Биты поля flags: какие необязательные разделы присутствуют в дампе.
const (
	dumpHasUserpics = iota
	dumpHasContacts
	dumpHasTopPeers
	dumpHasSessions
)

// ErrNoSelf возвращается для дампа без владельца аккаунта.
var ErrNoSelf = errors.New("dump has no account owner")

// DumpDialog — история одного диалога вместе с его пиром.
type DumpDialog struct {
	Peer    tg.PeerClass
	History tg.MessagesMessagesClass
}

// Dump — ответы Telegram API, сохраненные подряд в TL-сериализации:
//
//	dump#74787464 flags:# self:User about:string
//	    userpics:flags.0?photos.Photos contacts:flags.1?contacts.Contacts
//	    top_peers:flags.2?contacts.TopPeers sessions:flags.3?account.Authorizations
//	    dialogs:Vector<Peer messages.Messages> left_channels:Vector<Peer messages.Messages>
type Dump struct {
	Self         tg.UserClass
	About        string
	Userpics     tg.PhotosPhotosClass
	Contacts     tg.ContactsContactsClass
	TopPeers     tg.ContactsTopPeersClass
	Sessions     *tg.AccountAuthorizations
	Dialogs      []DumpDialog
	LeftChannels []DumpDialog
}

// Encode записывает дамп в буфер.
func (d *Dump) Encode(b *bin.Buffer) error {
	if d.Self == nil {
		return ErrNoSelf
	}

	var flags bin.Fields
	if d.Userpics != nil {
		flags.Set(dumpHasUserpics)
	}
	if d.Contacts != nil {
		flags.Set(dumpHasContacts)
	}
	if d.TopPeers != nil {
		flags.Set(dumpHasTopPeers)
	}
	if d.Sessions != nil {
		flags.Set(dumpHasSessions)
	}

	b.PutID(DumpTypeID)
	if err := flags.Encode(b); err != nil {
		return fmt.Errorf("encode flags: %w", err)
	}
	if err := d.Self.Encode(b); err != nil {
		return fmt.Errorf("encode self: %w", err)
	}
	b.PutString(d.About)

	sections := []struct {
		name string
		has  bool
		obj  bin.Encoder
	}{
		{"userpics", flags.Has(dumpHasUserpics), d.Userpics},
		{"contacts", flags.Has(dumpHasContacts), d.Contacts},
		{"top peers", flags.Has(dumpHasTopPeers), d.TopPeers},
		{"sessions", flags.Has(dumpHasSessions), d.Sessions},
	}
	for _, section := range sections {
		if !section.has {
			continue
		}
		if err := section.obj.Encode(b); err != nil {
			return fmt.Errorf("encode %s: %w", section.name, err)
		}
	}

	if err := encodeDialogs(b, d.Dialogs); err != nil {
		return fmt.Errorf("encode dialogs: %w", err)
	}
	if err := encodeDialogs(b, d.LeftChannels); err != nil {
		return fmt.Errorf("encode left channels: %w", err)
	}
	return nil
}

func encodeDialogs(b *bin.Buffer, list []DumpDialog) error {
	b.PutVectorHeader(len(list))
	for i, dialog := range list {
		if dialog.Peer == nil || dialog.History == nil {
			return fmt.Errorf("dialog #%d: peer and history are required", i)
		}
		if err := dialog.Peer.Encode(b); err != nil {
			return fmt.Errorf("dialog #%d peer: %w", i, err)
		}
		if err := dialog.History.Encode(b); err != nil {
			return fmt.Errorf("dialog #%d history: %w", i, err)
		}
	}
	return nil
}

// Decode читает дамп из буфера.
func (d *Dump) Decode(b *bin.Buffer) error {
	if err := b.ConsumeID(DumpTypeID); err != nil {
		return fmt.Errorf("not an account dump: %w", err)
	}

	var flags bin.Fields
	if err := flags.Decode(b); err != nil {
		return fmt.Errorf("decode flags: %w", err)
	}

	var err error
	if d.Self, err = tg.DecodeUser(b); err != nil {
		return fmt.Errorf("decode self: %w", err)
	}
	if d.About, err = b.String(); err != nil {
		return fmt.Errorf("decode about: %w", err)
	}
	if flags.Has(dumpHasUserpics) {
		if d.Userpics, err = tg.DecodePhotosPhotos(b); err != nil {
			return fmt.Errorf("decode userpics: %w", err)
		}
	}
	if flags.Has(dumpHasContacts) {
		if d.Contacts, err = tg.DecodeContactsContacts(b); err != nil {
			return fmt.Errorf("decode contacts: %w", err)
		}
	}
	if flags.Has(dumpHasTopPeers) {
		if d.TopPeers, err = tg.DecodeContactsTopPeers(b); err != nil {
			return fmt.Errorf("decode top peers: %w", err)
		}
	}
	if flags.Has(dumpHasSessions) {
		d.Sessions = &tg.AccountAuthorizations{}
		if err := d.Sessions.Decode(b); err != nil {
			return fmt.Errorf("decode sessions: %w", err)
		}
	}

	if d.Dialogs, err = decodeDialogs(b); err != nil {
		return fmt.Errorf("decode dialogs: %w", err)
	}
	if d.LeftChannels, err = decodeDialogs(b); err != nil {
		return fmt.Errorf("decode left channels: %w", err)
	}
	return nil
}

func decodeDialogs(b *bin.Buffer) ([]DumpDialog, error) {
	n, err := b.VectorHeader()
	if err != nil {
		return nil, err
	}
	if n < 0 || n > b.Len() {
		return nil, fmt.Errorf("invalid dialogs count %d", n)
	}

	list := make([]DumpDialog, 0, n)
	for i := 0; i < n; i++ {
		peer, err := tg.DecodePeer(b)
		if err != nil {
			return nil, fmt.Errorf("dialog #%d peer: %w", i, err)
		}
		history, err := tg.DecodeMessagesMessages(b)
		if err != nil {
			return nil, fmt.Errorf("dialog #%d history: %w", i, err)
		}
		list = append(list, DumpDialog{Peer: peer, History: history})
	}
	return list, nil
}

// DumpParser реализует интерфейс Parser для бинарного дампа аккаунта.
type DumpParser struct {
	opts []Option
}

// NewDumpParser создает парсер дампа. Опции передаются конвертеру.
func NewDumpParser(opts ...Option) ports.Parser {
	return &DumpParser{opts: opts}
}

// Parse декодирует дамп и собирает из него модель выгрузки.
func (p *DumpParser) Parse(data []byte) (*domain.Export, error) {
	var dump Dump
	if err := dump.Decode(&bin.Buffer{Buf: data}); err != nil {
		return nil, fmt.Errorf("failed to decode dump: %w", err)
	}

	self, ok := dump.Self.(*tg.User)
	if !ok {
		return nil, ErrNoSelf
	}
	opts := append(slices.Clone(p.opts), WithSelf(self.ID))
	return NewConverter(opts...).Export(&dump), nil
}

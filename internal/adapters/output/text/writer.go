package text

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"

	"telegram-text-export/internal/adapters/output"
	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/format"
	"telegram-text-export/internal/ports"
)

// Имена файлов архива.
const (
	MainFileName           = "overview.txt"
	UserpicsFileName       = "personal_photos.txt"
	ContactsFileName       = "contacts.txt"
	FrequentFileName       = "frequent.txt"
	SessionsFileName       = "sessions.txt"
	ChatsFileName          = "chats.txt"
	LeftChatsFileName      = "left_chats.txt"
	DialogMessagesFileName = "messages.txt"
)

// session — состояние одной коллекции: закрыта или открыта со своим файлом.
type session int

const (
	sessionClosed session = iota
	sessionOpen
)

// Option — функциональная опция для настройки Writer.
type Option func(*Writer)

// WithLogger устанавливает логгер писателя.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// Writer рендерит выгрузку в текстовые файлы по протоколу begin/slice/end.
// Не является потокобезопасным: вызовы должны идти строго последовательно от одного владельца.
type Writer struct {
	settings ports.Settings
	stats    ports.Stats
	codec    Codec
	log      *slog.Logger

	summary *output.File

	userpicsState session
	userpics      *output.File
	userpicsCount int

	chatsState session
	chats      *output.File
	chat       *output.File

	dialogIndex   int
	dialogsCount  int
	dialogNumber  string
	messagesCount int
	dialog        domain.DialogInfo
}

var _ ports.Writer = (*Writer)(nil)

// NewWriter создает писатель. Файлы не открываются до вызова Start.
func NewWriter(opts ...Option) *Writer {
	w := &Writer{log: slog.Default()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Writer) lineBreak() string {
	return w.codec.LineBreak
}

// Start создает главный файл выгрузки. overview.txt появляется даже для пустой модели.
func (w *Writer) Start(settings ports.Settings, stats ports.Stats) error {
	if !strings.HasSuffix(settings.Path, "/") && !strings.HasSuffix(settings.Path, string(os.PathSeparator)) {
		panic(fmt.Sprintf("text: export path %q must end with a path separator", settings.Path))
	}
	w.settings = settings
	w.stats = stats
	w.codec = NewCodec(settings.LineBreak, settings.InternalLinksDomain, settings.Location)
	w.summary = w.fileWithRelativePath(MainFileName)
	if err := w.summary.Open(); err != nil {
		return w.abort(err)
	}
	w.log.Debug("text export started", "path", settings.Path)
	return nil
}

// WritePersonal пишет блок с данными владельца в главный файл.
func (w *Writer) WritePersonal(data domain.PersonalInfo) error {
	w.expectStarted()

	info := data.User
	serialized := w.codec.KeyValue(
		Pair{"First name", info.FirstName},
		Pair{"Last name", info.LastName},
		Pair{"Phone number", format.PhoneNumber(info.PhoneNumber)},
		Pair{"Username", format.Username(info.Username)},
		Pair{"Bio", data.Bio},
	) + w.lineBreak()
	return w.writeSummary(serialized)
}

// WriteUserpicsStart открывает файл аватаров, если их больше нуля.
func (w *Writer) WriteUserpicsStart(data domain.UserpicsInfo) error {
	w.expectStarted()
	if w.userpicsState != sessionClosed {
		panic("text: userpics session is already open")
	}

	w.userpicsCount = data.Count
	if w.userpicsCount == 0 {
		return nil
	}
	w.userpics = w.fileWithRelativePath(UserpicsFileName)
	w.userpicsState = sessionOpen

	return w.writeSummary(w.pointer("Personal photos", w.userpicsCount, UserpicsFileName))
}

// WriteUserpicsSlice дописывает порцию аватаров.
func (w *Writer) WriteUserpicsSlice(data domain.UserpicsSlice) error {
	if w.userpicsState != sessionOpen {
		panic("text: userpics slice without an open userpics session")
	}
	if len(data.List) == 0 {
		panic("text: empty userpics slice")
	}

	lines := make([]string, 0, len(data.List))
	for _, userpic := range data.List {
		if userpic.Date.IsZero() {
			lines = append(lines, "(deleted photo)")
			continue
		}
		photo := "(file unavailable)"
		if userpic.Image.File.RelativePath != "" {
			photo = userpic.Image.File.RelativePath
		}
		lines = append(lines, w.codec.KeyValue(
			Pair{"Date", format.DateTime(userpic.Date, w.codec.Location)},
			Pair{"Photo", photo},
		))
	}
	return w.write(w.userpics, JoinList(w.lineBreak(), lines)+w.lineBreak())
}

// WriteUserpicsEnd закрывает файл аватаров.
func (w *Writer) WriteUserpicsEnd() error {
	if w.userpicsState == sessionClosed {
		return nil
	}
	file := w.userpics
	w.userpics = nil
	w.userpicsState = sessionClosed
	return w.closeFile(file)
}

// WriteContactsList пишет сохраненные и частые контакты.
func (w *Writer) WriteContactsList(data domain.ContactsList) error {
	w.expectStarted()

	if err := w.writeSavedContacts(data); err != nil {
		return err
	}
	return w.writeFrequentContacts(data)
}

func (w *Writer) writeSavedContacts(data domain.ContactsList) error {
	if len(data.List) == 0 {
		return nil
	}

	list := make([]string, 0, len(data.List))
	for _, index := range domain.SortedContactsIndices(data) {
		contact := data.List[index]
		if contact.FirstName == "" && contact.LastName == "" && contact.PhoneNumber == "" {
			list = append(list, "(deleted user)"+w.lineBreak())
			continue
		}
		list = append(list, w.codec.KeyValue(
			Pair{"First name", contact.FirstName},
			Pair{"Last name", contact.LastName},
			Pair{"Phone number", format.PhoneNumber(contact.PhoneNumber)},
			Pair{"Date", format.DateTime(contact.Date, w.codec.Location)},
		))
	}
	if err := w.writeWholeFile(ContactsFileName, JoinList(w.lineBreak(), list)); err != nil {
		return err
	}
	return w.writeSummary(w.pointer("Contacts", len(data.List), ContactsFileName))
}

func (w *Writer) writeFrequentContacts(data domain.ContactsList) error {
	size := len(data.Correspondents) + len(data.InlineBots) + len(data.PhoneCalls)
	if size == 0 {
		return nil
	}

	list := make([]string, 0, size)
	writeList := func(peers []domain.TopPeer, category string) {
		for _, top := range peers {
			list = append(list, w.topPeer(top, category))
		}
	}
	writeList(data.Correspondents, "Correspondents")
	writeList(data.InlineBots, "Inline bots")
	writeList(data.PhoneCalls, "Calls")

	if err := w.writeWholeFile(FrequentFileName, JoinList(w.lineBreak(), list)); err != nil {
		return err
	}
	return w.writeSummary(w.pointer("Frequent contacts", size, FrequentFileName))
}

func (w *Writer) topPeer(top domain.TopPeer, category string) string {
	var user, chatType, chat string
	switch peer := top.Peer.(type) {
	case domain.User:
		user = peer.Name()
		if user == "" {
			user = "(deleted user)"
		}
	case domain.Chat:
		chat = peer.Name()
		if chat == "" {
			chat = "(deleted chat)"
		}
		chatType = chatTypeLabel(peer)
	default:
		panic(fmt.Sprintf("text: unexpected top peer %T", top.Peer))
	}
	return w.codec.KeyValue(
		Pair{"Category", category},
		Pair{"User", user},
		Pair{chatType, chat},
		Pair{"Rating", format.Rating(top.Rating)},
	)
}

func chatTypeLabel(chat domain.Chat) string {
	switch {
	case chat.Username == "" && chat.IsBroadcast:
		return "Private channel"
	case chat.Username == "":
		return "Private group"
	case chat.IsBroadcast:
		return "Public channel"
	}
	return "Public group"
}

// WriteSessionsList пишет список активных сессий.
func (w *Writer) WriteSessionsList(data domain.SessionsList) error {
	w.expectStarted()

	if len(data.List) == 0 {
		return nil
	}

	list := make([]string, 0, len(data.List))
	for _, session := range data.List {
		applicationName := session.ApplicationName
		if applicationName == "" {
			applicationName = "(unknown)"
		}
		list = append(list, w.codec.KeyValue(
			Pair{"Last active", format.DateTime(session.LastActive, w.codec.Location)},
			Pair{"Last IP address", session.IP},
			Pair{"Last country", session.Country},
			Pair{"Last region", session.Region},
			Pair{"Application name", applicationName},
			Pair{"Application version", session.ApplicationVersion},
			Pair{"Device model", session.DeviceModel},
			Pair{"Platform", session.Platform},
			Pair{"System version", session.SystemVersion},
			Pair{"Created", format.DateTime(session.Created, w.codec.Location)},
		))
	}
	if err := w.writeWholeFile(SessionsFileName, JoinList(w.lineBreak(), list)); err != nil {
		return err
	}
	return w.writeSummary(w.pointer("Sessions", len(data.List), SessionsFileName))
}

func (w *Writer) WriteDialogsStart(data domain.DialogsInfo) error {
	return w.writeChatsStart(data, "Chats", ChatsFileName)
}

func (w *Writer) WriteDialogStart(data domain.DialogInfo) error {
	return w.writeChatStart(data)
}

func (w *Writer) WriteDialogSlice(data domain.MessagesSlice) error {
	return w.writeChatSlice(data)
}

func (w *Writer) WriteDialogEnd() error {
	return w.writeChatEnd()
}

func (w *Writer) WriteDialogsEnd() error {
	return w.writeChatsEnd()
}

func (w *Writer) WriteLeftChannelsStart(data domain.DialogsInfo) error {
	return w.writeChatsStart(data, "Left chats", LeftChatsFileName)
}

func (w *Writer) WriteLeftChannelStart(data domain.DialogInfo) error {
	return w.writeChatStart(data)
}

func (w *Writer) WriteLeftChannelSlice(data domain.MessagesSlice) error {
	return w.writeChatSlice(data)
}

func (w *Writer) WriteLeftChannelEnd() error {
	return w.writeChatEnd()
}

func (w *Writer) WriteLeftChannelsEnd() error {
	return w.writeChatsEnd()
}

func (w *Writer) writeChatsStart(data domain.DialogsInfo, listName, fileName string) error {
	w.expectStarted()
	if w.chatsState != sessionClosed {
		panic("text: chats session is already open")
	}

	if len(data.List) == 0 {
		return nil
	}

	w.chats = w.fileWithRelativePath(fileName)
	w.chatsState = sessionOpen
	w.dialogIndex = 0
	w.dialogsCount = len(data.List)

	return w.writeSummary(w.pointer(listName, len(data.List), fileName))
}

func (w *Writer) writeChatStart(data domain.DialogInfo) error {
	if w.chatsState != sessionOpen {
		panic("text: dialog start without an open chats session")
	}
	if w.chat != nil {
		panic("text: dialog start while another dialog is open")
	}
	if w.dialogIndex >= w.dialogsCount {
		panic(fmt.Sprintf("text: dialog start #%d exceeds declared count %d", w.dialogIndex+1, w.dialogsCount))
	}
	if !data.HasLocalPath() {
		panic(fmt.Sprintf("text: dialog path %q leaves the export directory", data.RelativePath))
	}

	w.dialogIndex++
	w.dialogNumber = DialogNumber(w.dialogIndex, w.dialogsCount)
	w.chat = w.fileWithRelativePath(dialogMessagesPath(data))
	w.messagesCount = 0
	w.dialog = data

	w.log.Debug("dialog started", "number", w.dialogNumber, "name", data.Name, "path", w.chat.Path())
	return nil
}

func (w *Writer) writeChatSlice(data domain.MessagesSlice) error {
	if w.chat == nil {
		panic("text: dialog slice without an open dialog")
	}
	if len(data.List) == 0 {
		panic("text: empty messages slice")
	}

	w.messagesCount += len(data.List)
	list := make([]string, 0, len(data.List))
	for _, message := range data.List {
		list = append(list, w.codec.Message(message, data.Peers))
	}
	full := JoinList(w.lineBreak(), list)
	if !w.chat.Empty() {
		full = w.lineBreak() + full
	}
	return w.write(w.chat, full)
}

func (w *Writer) writeChatEnd() error {
	if w.chatsState != sessionOpen {
		panic("text: dialog end without an open chats session")
	}
	if w.chat == nil {
		panic("text: dialog end without an open dialog")
	}

	chat := w.chat
	w.chat = nil
	if err := chat.Close(); err != nil {
		return w.abort(err)
	}

	countLabel := "Messages count"
	if w.dialog.OnlyMyMessages {
		countLabel = "Outgoing messages count"
	}
	content := ""
	if w.messagesCount > 0 {
		content = dialogMessagesPath(w.dialog)
	}
	w.log.Debug("dialog finished", "number", w.dialogNumber, "messages", w.messagesCount)

	return w.write(w.chats, w.codec.KeyValue(
		Pair{"Name", dialogName(w.dialog.Name, w.dialog.Type)},
		Pair{"Type", dialogTypeLabel(w.dialog.Type)},
		Pair{countLabel, format.Number(w.messagesCount)},
		Pair{"Content", content},
	)+w.lineBreak())
}

func (w *Writer) writeChatsEnd() error {
	if w.chatsState == sessionClosed {
		return nil
	}
	if w.chat != nil {
		panic("text: chats end while a dialog is still open")
	}
	chats := w.chats
	w.chats = nil
	w.chatsState = sessionClosed
	return w.closeFile(chats)
}

// Finish завершает выгрузку. К этому моменту все файлы коллекций должны быть закрыты.
func (w *Writer) Finish() error {
	if w.userpicsState != sessionClosed || w.chatsState != sessionClosed || w.chat != nil {
		panic("text: finish with an open collection session")
	}
	if w.summary == nil {
		return nil
	}
	summary := w.summary
	w.summary = nil
	return w.closeFile(summary)
}

// Close освобождает все открытые файлы. Используется при аварийном завершении выгрузки.
func (w *Writer) Close() error {
	var errs []error
	for _, f := range []**output.File{&w.chat, &w.chats, &w.userpics, &w.summary} {
		if *f != nil {
			errs = append(errs, (*f).Close())
			*f = nil
		}
	}
	w.userpicsState = sessionClosed
	w.chatsState = sessionClosed
	return errors.Join(errs...)
}

// MainFilePath возвращает путь к overview.txt.
func (w *Writer) MainFilePath() string {
	return w.pathWithRelativePath(MainFileName)
}

// DialogNumber возвращает порядковый номер диалога (с единицы), дополненный нулями
// до количества цифр в total-1.
func DialogNumber(index, total int) string {
	width := len(format.Number(total - 1))
	return format.PaddedNumber(index, width)
}

func dialogMessagesPath(dialog domain.DialogInfo) string {
	return path.Join(dialog.RelativePath, DialogMessagesFileName)
}

func dialogTypeLabel(t domain.DialogType) string {
	switch t {
	case domain.DialogUnknown:
		return "(unknown)"
	case domain.DialogPersonal:
		return "Personal chat"
	case domain.DialogBot:
		return "Bot chat"
	case domain.DialogPrivateGroup:
		return "Private group"
	case domain.DialogPublicGroup:
		return "Public group"
	case domain.DialogPrivateChannel:
		return "Private channel"
	case domain.DialogPublicChannel:
		return "Public channel"
	}
	panic(fmt.Sprintf("text: unexpected dialog type %d", t))
}

func dialogName(name string, t domain.DialogType) string {
	if name != "" {
		return name
	}
	switch t {
	case domain.DialogUnknown:
		return "(unknown)"
	case domain.DialogPersonal:
		return "(deleted user)"
	case domain.DialogBot:
		return "(deleted bot)"
	case domain.DialogPrivateGroup, domain.DialogPublicGroup:
		return "(deleted group)"
	case domain.DialogPrivateChannel, domain.DialogPublicChannel:
		return "(deleted channel)"
	}
	panic(fmt.Sprintf("text: unexpected dialog type %d", t))
}

// pointer строит строку главного файла, ссылающуюся на файл коллекции.
func (w *Writer) pointer(label string, count int, fileName string) string {
	return label + " (" + format.Number(count) + ") - " + fileName + w.lineBreak() + w.lineBreak()
}

func (w *Writer) expectStarted() {
	if w.summary == nil {
		panic("text: writer used before Start or after Finish")
	}
}

func (w *Writer) writeSummary(block string) error {
	return w.write(w.summary, block)
}

// writeWholeFile создает файл коллекции, записывает его целиком и закрывает.
func (w *Writer) writeWholeFile(relativePath, content string) (err error) {
	file := w.fileWithRelativePath(relativePath)
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = w.abort(closeErr)
		}
	}()
	return w.write(file, content)
}

// write пишет блок; при ошибке освобождает все открытые файлы.
func (w *Writer) write(file *output.File, block string) error {
	if err := file.WriteBlock(block); err != nil {
		return w.abort(err)
	}
	return nil
}

func (w *Writer) closeFile(file *output.File) error {
	if err := file.Close(); err != nil {
		return w.abort(err)
	}
	return nil
}

func (w *Writer) abort(err error) error {
	w.log.Error("text export aborted", "error", err)
	if closeErr := w.Close(); closeErr != nil {
		w.log.Warn("failed to release export files", "error", closeErr)
	}
	return err
}

func (w *Writer) pathWithRelativePath(relativePath string) string {
	return w.settings.Path + relativePath
}

func (w *Writer) fileWithRelativePath(relativePath string) *output.File {
	return output.NewFile(w.pathWithRelativePath(relativePath), w.stats)
}

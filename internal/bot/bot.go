package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/mattn/go-runewidth"

	"telegram-text-export/internal/adapters/output/text"
	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/config"
)

const (
	startCommand = "start"

	// Предел длины сообщения Telegram.
	maxMessageLength = 4096

	pathColumnWidth = 40
	sizeColumnWidth = 10
)

var errFileTooLarge = errors.New("file is too large")

// Bot принимает выгрузки в личных сообщениях, рендерит их через сервис
// и отвечает файлами текстового архива.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          config.Bot
	serverClient ServerAPI
	taskStore    *TaskStore
	logger       *slog.Logger
	httpClient   *http.Client

	// Подменяются в тестах.
	sendMessageFunc      func(tgbotapi.Chattable) (tgbotapi.Message, error)
	getFileDirectURLFunc func(fileID string) (string, error)

	polls sync.WaitGroup
}

// NewBot создает и инициализирует новый экземпляр бота.
func NewBot(cfg config.Bot, serverClient ServerAPI, taskStore *TaskStore, logger *slog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot api: %w", err)
	}

	logger.Info("authorized on account", slog.String("username", api.Self.UserName))

	return &Bot{
		api:                  api,
		cfg:                  cfg,
		serverClient:         serverClient,
		taskStore:            taskStore,
		logger:               logger,
		httpClient:           &http.Client{Timeout: cfg.HTTPTimeout},
		sendMessageFunc:      api.Send,
		getFileDirectURLFunc: api.GetFileDirectURL,
	}, nil
}

// Start запускает основной цикл обработки обновлений от Telegram и
// возвращается после отмены ctx, дождавшись фоновых опросов задач.
func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("context cancelled, stopping bot", slog.Int("active_tasks", b.taskStore.Len()))
			b.api.StopReceivingUpdates()
			b.polls.Wait()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение. Паника обработчика
// не останавливает цикл обновлений.
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("message handler panicked", "panic", r, "stack", string(debug.Stack()))
		}
	}()

	if msg.IsCommand() {
		b.handleCommand(msg)
		return
	}

	if msg.Document != nil {
		b.handleDocument(ctx, msg)
		return
	}

	b.reply(msg.Chat.ID, "Пожалуйста, отправьте мне файл выгрузки аккаунта: result.json или бинарный дамп.")
}

// handleCommand обрабатывает команды.
func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case startCommand:
		b.reply(msg.Chat.ID, "Добро пожаловать! Я превращаю выгрузку аккаунта Telegram в текстовый архив.\n\n"+
			"Отправьте мне один файл:\n"+
			"• result.json из Telegram Desktop;\n"+
			"• бинарный дамп аккаунта (любое другое расширение).\n\n"+
			fmt.Sprintf("Если в архиве не больше %d файлов, я пришлю их все, иначе только %s.",
				b.cfg.MaxFilesPerReply, text.MainFileName))
	default:
		b.reply(msg.Chat.ID, "Я не знаю такой команды.")
	}
}

// handleDocument скачивает документ и ставит задачу рендеринга.
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	doc := msg.Document
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("file_name", doc.FileName))

	maxSize := b.cfg.MaxFileSizeMB << 20
	if int64(doc.FileSize) > maxSize {
		logger.Warn("document rejected by size", slog.Int("size", doc.FileSize))
		b.reply(chatID, fmt.Sprintf("Файл слишком большой, предел %d МБ.", b.cfg.MaxFileSizeMB))
		return
	}

	// 1. Занимаем чат, пока задача не завершится.
	if !b.taskStore.Reserve(chatID) {
		logger.Warn("user tried to start a new task while another is active")
		b.reply(chatID, "Пожалуйста, подождите завершения предыдущей задачи, прежде чем начинать новую.")
		return
	}
	started := false
	defer func() {
		if !started {
			b.taskStore.Delete(chatID)
		}
	}()

	// 2. Скачиваем файл.
	data, err := b.downloadDocument(ctx, doc.FileID, maxSize)
	if err != nil {
		logger.Error("failed to download document", slog.String("error", err.Error()))
		if errors.Is(err, errFileTooLarge) {
			b.reply(chatID, fmt.Sprintf("Файл слишком большой, предел %d МБ.", b.cfg.MaxFileSizeMB))
			return
		}
		b.reply(chatID, "Не удалось скачать файл. Попробуйте отправить его еще раз.")
		return
	}

	// 3. Запускаем задачу на сервисе рендеринга.
	format := formatForFile(doc.FileName)
	startResp, err := b.serverClient.StartTask(ctx, doc.FileName, format, bytes.NewReader(data))
	if err != nil {
		logger.Error("failed to start task on backend", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось начать обработку файла на сервере. Пожалуйста, попробуйте позже.")
		return
	}

	taskID := startResp.TaskID
	logger.Info("task started on backend", slog.String("task_id", taskID), slog.String("format", format))

	// 4. Сохраняем task_id и запускаем опрос.
	b.taskStore.Set(chatID, taskID)
	started = true
	b.polls.Add(1)
	go func() {
		defer b.polls.Done()
		b.pollTaskStatus(ctx, chatID, taskID)
	}()

	b.reply(chatID, "✅ Файл получен и поставлен в очередь на обработку. Ожидайте результата.")
}

// formatForFile выбирает формат модели по расширению: .json для result.json,
// все остальное считается бинарным дампом.
func formatForFile(name string) string {
	if strings.EqualFold(filepath.Ext(name), ".json") {
		return parser.FormatJSON
	}
	return parser.FormatTL
}

func (b *Bot) downloadDocument(ctx context.Context, fileID string, maxSize int64) ([]byte, error) {
	fileURL, err := b.getFileDirectURLFunc(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file direct url: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > maxSize {
		return nil, errFileTooLarge
	}
	return data, nil
}

func (b *Bot) reply(chatID int64, message string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, message))
}

func (b *Bot) sendMessage(msg tgbotapi.Chattable) {
	if _, err := b.sendMessageFunc(msg); err != nil {
		b.logger.Error("failed to send message", slog.String("error", err.Error()))
	}
}

// pollTaskStatus опрашивает статус задачи, пока она не завершится или не будет отменен ctx.
func (b *Bot) pollTaskStatus(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))
	defer b.taskStore.Delete(chatID)

	ticker := time.NewTicker(b.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Warn("polling cancelled by context")
			return
		case <-ticker.C:
			status, err := b.serverClient.GetTaskStatus(ctx, taskID)
			if err != nil {
				logger.Error("failed to get task status", slog.String("error", err.Error()))
				continue
			}

			switch status.Status {
			case "completed":
				logger.Info("task completed", slog.Bool("cached", status.Cached))
				b.processCompletedTask(ctx, chatID, taskID)
				return
			case "failed":
				logger.Warn("task failed", slog.String("reason", status.ErrorMessage))
				b.reply(chatID, fmt.Sprintf("Произошла ошибка при обработке файла: %s", status.ErrorMessage))
				return
			case "pending", "processing":
				logger.Debug("task is in progress", slog.String("status", status.Status))
			default:
				logger.Warn("unknown task status", slog.String("status", status.Status))
			}
		}
	}
}

// processCompletedTask отправляет оглавление архива и сами файлы. Если файлов больше
// MaxFilesPerReply, отправляется только главный файл выгрузки.
func (b *Bot) processCompletedTask(ctx context.Context, chatID int64, taskID string) {
	logger := b.logger.With(slog.Int64("chat_id", chatID), slog.String("task_id", taskID))

	manifest, err := b.serverClient.GetTaskFiles(ctx, taskID)
	if err != nil {
		logger.Error("failed to fetch manifest", slog.String("error", err.Error()))
		b.reply(chatID, "Не удалось получить результаты для выполненной задачи. Пожалуйста, попробуйте позже.")
		return
	}
	files := manifest.Files
	logger.Info("sending archive", slog.Int("files", len(files)))

	b.sendManifest(chatID, files)

	toSend := files
	if len(files) > b.cfg.MaxFilesPerReply {
		toSend = nil
		for _, f := range files {
			if f.Path == text.MainFileName {
				toSend = append(toSend, f)
			}
		}
		b.reply(chatID, fmt.Sprintf("В архиве %d файлов, отправляю только %s.", len(files), text.MainFileName))
	}

	for _, f := range toSend {
		if f.Size == 0 {
			b.reply(chatID, fmt.Sprintf("%s пуст.", f.Path))
			continue
		}
		data, err := b.serverClient.DownloadFile(ctx, taskID, f.Path)
		if err != nil {
			logger.Error("failed to download archive file", slog.String("path", f.Path), slog.String("error", err.Error()))
			b.reply(chatID, fmt.Sprintf("Не удалось получить %s.", f.Path))
			continue
		}
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: attachmentName(f.Path), Bytes: data})
		msg.Caption = f.Path
		b.sendMessage(msg)
	}
}

// attachmentName делает из пути архива плоское имя вложения: chats/chat_1/messages.txt
// превращается в chats_chat_1_messages.txt.
func attachmentName(path string) string {
	return strings.ReplaceAll(path, "/", "_")
}

// sendManifest отправляет оглавление таблицей. Слишком длинное оглавление уходит файлом.
func (b *Bot) sendManifest(chatID int64, files []domain.ArchiveFile) {
	table := renderManifest(files)

	message := fmt.Sprintf("Архив готов, файлов: %d.\n<pre><code>%s</code></pre>", len(files), html.EscapeString(table))
	if len(message) > maxMessageLength {
		b.logger.Warn("manifest is too long, sending as file", slog.Int("length", len(message)))
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: "manifest.txt", Bytes: []byte(table)})
		msg.Caption = fmt.Sprintf("Архив готов, файлов: %d.", len(files))
		b.sendMessage(msg)
		return
	}

	reply := tgbotapi.NewMessage(chatID, message)
	reply.ParseMode = tgbotapi.ModeHTML
	b.sendMessage(reply)
}

// renderManifest рисует таблицу "путь | размер" моноширинным шрифтом.
func renderManifest(files []domain.ArchiveFile) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("| %s%s | %s%s |\n",
		"Path", generatePadding("Path", pathColumnWidth),
		"Size", generatePadding("Size", sizeColumnWidth)))
	sb.WriteString(fmt.Sprintf("|%s|%s|\n",
		strings.Repeat("-", pathColumnWidth+2),
		strings.Repeat("-", sizeColumnWidth+2)))

	for _, f := range files {
		pathLines := wrapString(strings.ToValidUTF8(f.Path, ""), pathColumnWidth)
		size := strconv.FormatInt(f.Size, 10)

		for i, line := range pathLines {
			sizePart := ""
			if i == 0 {
				sizePart = size
			}
			sb.WriteString(fmt.Sprintf("| %s%s | %s%s |\n",
				line, generatePadding(line, pathColumnWidth),
				generatePadding(sizePart, sizeColumnWidth), sizePart))
		}
	}
	return sb.String()
}

// generatePadding вычисляет отступ для строки с учетом поправки на CJK-символы.
func generatePadding(s string, colWidth int) string {
	paddingNeeded := colWidth - runewidth.StringWidth(s)

	// Некоторые клиенты рисуют CJK-символы шире, чем считает runewidth.
	hasCJK := false
	for _, r := range s {
		if unicode.Is(unicode.Han, r) || unicode.Is(unicode.Hangul, r) || unicode.Is(unicode.Hiragana, r) || unicode.Is(unicode.Katakana, r) {
			hasCJK = true
			break
		}
	}

	if hasCJK && paddingNeeded >= 0 {
		paddingNeeded++
	}

	if paddingNeeded > 0 {
		return strings.Repeat(" ", paddingNeeded)
	}
	return ""
}

// wrapString разбивает строку на строки ширины не больше width. Путь режется
// по '/', слишком длинный сегмент режется посимвольно.
func wrapString(s string, width int) []string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return []string{s}
	}

	var lines []string
	var current strings.Builder
	currentWidth := 0

	for _, segment := range strings.SplitAfter(s, "/") {
		segmentWidth := runewidth.StringWidth(segment)
		if currentWidth > 0 && currentWidth+segmentWidth > width {
			lines = append(lines, current.String())
			current.Reset()
			currentWidth = 0
		}
		if segmentWidth <= width {
			current.WriteString(segment)
			currentWidth += segmentWidth
			continue
		}

		for _, r := range segment {
			rw := runewidth.RuneWidth(r)
			if currentWidth+rw > width {
				lines = append(lines, current.String())
				current.Reset()
				currentWidth = 0
			}
			current.WriteRune(r)
			currentWidth += rw
		}
	}

	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

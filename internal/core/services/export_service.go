package services

import (
	"context"
	"fmt"
	"log/slog"

	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/ports"
)

// DefaultSliceSize задает размер порции сообщений и аватаров по умолчанию.
const DefaultSliceSize = 100

// Option — функциональная опция для настройки ExportService.
type Option func(*ExportService)

// WithSliceSize устанавливает размер порции.
func WithSliceSize(n int) Option {
	return func(s *ExportService) {
		if n > 0 {
			s.sliceSize = n
		}
	}
}

// WithLogger устанавливает логгер для сервиса.
func WithLogger(l *slog.Logger) Option {
	return func(s *ExportService) {
		if l != nil {
			s.log = l
		}
	}
}

// ExportService проводит собранную модель через протокол писателя.
// Сервис не хранит состояние выгрузки и безопасен для одновременного использования
// с разными писателями.
type ExportService struct {
	sliceSize int
	log       *slog.Logger
}

// NewExportService создает сервис выгрузки.
func NewExportService(opts ...Option) *ExportService {
	s := &ExportService{
		sliceSize: DefaultSliceSize,
		log:       slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// chatsProtocol связывает методы писателя для одного списка диалогов.
type chatsProtocol struct {
	name   string
	start  func(domain.DialogsInfo) error
	begin  func(domain.DialogInfo) error
	slice  func(domain.MessagesSlice) error
	end    func() error
	finish func() error
}

// Run выгружает модель: личные данные, аватары, контакты, сессии, диалоги,
// покинутые каналы. Между порциями проверяется отмена контекста.
// При ошибке все файлы писателя освобождаются.
func (s *ExportService) Run(ctx context.Context, export *domain.Export, writer ports.Writer, settings ports.Settings, stats ports.Stats) (err error) {
	defer func() {
		if err == nil {
			return
		}
		if closeErr := writer.Close(); closeErr != nil {
			s.log.Warn("failed to release writer after error", "error", closeErr)
		}
	}()

	if err := writer.Start(settings, stats); err != nil {
		return fmt.Errorf("start export: %w", err)
	}

	if export.Personal != nil {
		if err := writer.WritePersonal(*export.Personal); err != nil {
			return fmt.Errorf("write personal info: %w", err)
		}
	}

	if err := s.writeUserpics(ctx, writer, export.Userpics); err != nil {
		return err
	}

	if export.Contacts != nil {
		if err := writer.WriteContactsList(*export.Contacts); err != nil {
			return fmt.Errorf("write contacts: %w", err)
		}
	}

	if export.Sessions != nil {
		if err := writer.WriteSessionsList(*export.Sessions); err != nil {
			return fmt.Errorf("write sessions: %w", err)
		}
	}

	dialogs := chatsProtocol{
		name:   "dialogs",
		start:  writer.WriteDialogsStart,
		begin:  writer.WriteDialogStart,
		slice:  writer.WriteDialogSlice,
		end:    writer.WriteDialogEnd,
		finish: writer.WriteDialogsEnd,
	}
	if err := s.writeChats(ctx, dialogs, export.Dialogs); err != nil {
		return err
	}

	leftChannels := chatsProtocol{
		name:   "left channels",
		start:  writer.WriteLeftChannelsStart,
		begin:  writer.WriteLeftChannelStart,
		slice:  writer.WriteLeftChannelSlice,
		end:    writer.WriteLeftChannelEnd,
		finish: writer.WriteLeftChannelsEnd,
	}
	if err := s.writeChats(ctx, leftChannels, export.LeftChannels); err != nil {
		return err
	}

	if err := writer.Finish(); err != nil {
		return fmt.Errorf("finish export: %w", err)
	}

	s.log.Info("export finished",
		"main_file", writer.MainFilePath(),
		"dialogs", len(export.Dialogs),
		"left_channels", len(export.LeftChannels),
	)
	return nil
}

func (s *ExportService) writeUserpics(ctx context.Context, writer ports.Writer, userpics []domain.Photo) error {
	if err := writer.WriteUserpicsStart(domain.UserpicsInfo{Count: len(userpics)}); err != nil {
		return fmt.Errorf("start userpics: %w", err)
	}
	for from := 0; from < len(userpics); from += s.sliceSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		to := min(from+s.sliceSize, len(userpics))
		if err := writer.WriteUserpicsSlice(domain.UserpicsSlice{List: userpics[from:to]}); err != nil {
			return fmt.Errorf("write userpics: %w", err)
		}
	}
	if err := writer.WriteUserpicsEnd(); err != nil {
		return fmt.Errorf("finish userpics: %w", err)
	}
	return nil
}

func (s *ExportService) writeChats(ctx context.Context, protocol chatsProtocol, dialogs []domain.Dialog) error {
	if err := protocol.start(domain.DialogsInfoOf(dialogs)); err != nil {
		return fmt.Errorf("start %s: %w", protocol.name, err)
	}

	for i, dialog := range dialogs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := protocol.begin(dialog.Info); err != nil {
			return fmt.Errorf("start %s #%d: %w", protocol.name, i+1, err)
		}
		for _, slice := range SliceMessages(dialog, s.sliceSize) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := protocol.slice(slice); err != nil {
				return fmt.Errorf("write %s #%d: %w", protocol.name, i+1, err)
			}
		}
		if err := protocol.end(); err != nil {
			return fmt.Errorf("finish %s #%d: %w", protocol.name, i+1, err)
		}
		s.log.Debug("dialog exported", "list", protocol.name, "name", dialog.Info.Name, "messages", len(dialog.Messages))
	}

	if err := protocol.finish(); err != nil {
		return fmt.Errorf("finish %s: %w", protocol.name, err)
	}
	return nil
}

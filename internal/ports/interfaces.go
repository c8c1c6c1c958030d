package ports

import (
	"time"

	"telegram-text-export/internal/domain"
)

// DataSource определяет интерфейс для получения исходных данных модели выгрузки.
type DataSource interface {
	// Fetch загружает данные из источника и возвращает их в виде байтового среза.
	Fetch() ([]byte, error)
}

// Parser определяет интерфейс для разбора модели выгрузки.
type Parser interface {
	// Parse преобразует сырые данные в собранную модель выгрузки.
	Parse(data []byte) (*domain.Export, error)
}

// Stats принимает монотонную статистику записи.
type Stats interface {
	IncrementFiles()
	IncrementBytes(n int)
}

// Settings содержит параметры одного запуска писателя.
type Settings struct {
	// Каталог выгрузки, обязан оканчиваться разделителем пути.
	Path string
	// Перевод строки, используемый и для разбора, и для записи.
	LineBreak string
	// InternalLinksDomain — префикс ссылок на игры ботов, например "https://t.me/".
	InternalLinksDomain string
	// Часовой пояс для дат, nil означает UTC.
	Location *time.Location
}

// Writer — протокол begin/slice/end, через который конвейер выгрузки
// передает данные рендереру. Вызовы строго последовательные.
type Writer interface {
	Start(settings Settings, stats Stats) error

	WritePersonal(data domain.PersonalInfo) error

	WriteUserpicsStart(data domain.UserpicsInfo) error
	WriteUserpicsSlice(data domain.UserpicsSlice) error
	WriteUserpicsEnd() error

	WriteContactsList(data domain.ContactsList) error

	WriteSessionsList(data domain.SessionsList) error

	WriteDialogsStart(data domain.DialogsInfo) error
	WriteDialogStart(data domain.DialogInfo) error
	WriteDialogSlice(data domain.MessagesSlice) error
	WriteDialogEnd() error
	WriteDialogsEnd() error

	WriteLeftChannelsStart(data domain.DialogsInfo) error
	WriteLeftChannelStart(data domain.DialogInfo) error
	WriteLeftChannelSlice(data domain.MessagesSlice) error
	WriteLeftChannelEnd() error
	WriteLeftChannelsEnd() error

	Finish() error

	// MainFilePath возвращает путь к главному файлу выгрузки.
	MainFilePath() string
	// Close освобождает все открытые файлы, если выгрузка прервана.
	Close() error
}

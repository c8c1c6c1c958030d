package log

import (
	"context"
	"log/slog"
	"regexp"
)

// MaskingHandler - обертка для slog.Handler, которая маскирует номера телефонов
// и токены бота в логах. Модель выгрузки содержит контакты, а ссылки на файлы
// Telegram содержат токен, и ни то ни другое не должно попадать в журналы.
type MaskingHandler struct {
	handler slog.Handler
}

// NewMaskingHandler создает новый обработчик с маскировкой номеров
func NewMaskingHandler(handler slog.Handler) *MaskingHandler {
	return &MaskingHandler{
		handler: handler,
	}
}

// номер телефона: от 10 до 15 цифр подряд, возможно с ведущим '+'
var phoneNumberRegex = regexp.MustCompile(`\+?\b(\d{8,13})(\d{2})\b`)

// токен бота в формате botID:secret, как в ссылках api.telegram.org/bot<token>/
var botTokenRegex = regexp.MustCompile(`\b(bot)?\d+:[A-Za-z0-9_-]{35,}`)

// maskPhones оставляет от номера только две последние цифры
func maskPhones(text string) string {
	return phoneNumberRegex.ReplaceAllString(text, "+***$2")
}

// maskTokens заменяет токены бота маской
func maskTokens(text string) string {
	return botTokenRegex.ReplaceAllString(text, "${1}***:***masked-token***")
}

func maskSecrets(text string) string {
	return maskPhones(maskTokens(text))
}

// Enabled реализует интерфейс slog.Handler
func (h *MaskingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle реализует интерфейс slog.Handler
func (h *MaskingHandler) Handle(ctx context.Context, record slog.Record) error {
	// Clone не копирует атрибуты в новую запись, они добавляются заново уже маскированными.
	r := slog.NewRecord(record.Time, record.Level, maskSecrets(record.Message), record.PC)

	record.Attrs(func(a slog.Attr) bool {
		r.AddAttrs(maskAttr(a))
		return true
	})

	return h.handler.Handle(ctx, r)
}

// WithAttrs реализует интерфейс slog.Handler
func (h *MaskingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	masked := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		masked[i] = maskAttr(attr)
	}
	return &MaskingHandler{
		handler: h.handler.WithAttrs(masked),
	}
}

// WithGroup реализует интерфейс slog.Handler
func (h *MaskingHandler) WithGroup(name string) slog.Handler {
	return &MaskingHandler{
		handler: h.handler.WithGroup(name),
	}
}

func maskAttr(a slog.Attr) slog.Attr {
	return slog.Attr{Key: a.Key, Value: maskValue(a.Value)}
}

// maskValue рекурсивно маскирует значения атрибутов
func maskValue(value slog.Value) slog.Value {
	switch value.Kind() {
	case slog.KindString:
		return slog.StringValue(maskSecrets(value.String()))
	case slog.KindAny:
		// ошибки часто содержат пути и значения из модели
		if err, ok := value.Any().(error); ok {
			return slog.StringValue(maskSecrets(err.Error()))
		}
		return value
	case slog.KindLogValuer:
		return maskValue(value.Resolve())
	case slog.KindGroup:
		group := value.Group()
		masked := make([]slog.Attr, len(group))
		for i, attr := range group {
			masked[i] = maskAttr(attr)
		}
		return slog.GroupValue(masked...)
	default:
		return value
	}
}

// NewMaskedLogger создает новый экземпляр slog.Logger с маскировкой номеров телефонов и токенов
func NewMaskedLogger(handler slog.Handler) *slog.Logger {
	return slog.New(NewMaskingHandler(handler))
}

package parser

import (
	"fmt"
	"log/slog"

	"telegram-text-export/internal/adapters/telegram"
	"telegram-text-export/internal/ports"
)

// Форматы входной модели.
const (
	FormatJSON = "json"
	// FormatTL — бинарный дамп ответов Telegram API.
	FormatTL = "tl"
)

// ForFormat возвращает парсер для формата модели. Пустой формат означает JSON.
func ForFormat(format string, log *slog.Logger) (ports.Parser, error) {
	switch format {
	case "", FormatJSON:
		return NewJSONParser(), nil
	case FormatTL:
		return telegram.NewDumpParser(telegram.WithLogger(log)), nil
	}
	return nil, fmt.Errorf("unknown model format %q", format)
}

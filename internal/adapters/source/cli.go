package source

import (
	"errors"
	"fmt"
	"io"
	"os"

	"telegram-text-export/internal/ports"
)

// StdinPath означает чтение модели из стандартного ввода.
const StdinPath = "-"

// ErrEmptyPath возвращается, если путь к модели выгрузки не указан.
var ErrEmptyPath = errors.New("model path is not set")

// CliSource реализует интерфейс DataSource для чтения модели выгрузки из файла,
// указанного в командной строке, или из стандартного ввода.
type CliSource struct {
	filePath string
	stdin    io.Reader
}

// NewCliSource создает новый экземпляр CliSource.
func NewCliSource(filePath string) ports.DataSource {
	return &CliSource{filePath: filePath, stdin: os.Stdin}
}

// Fetch читает модель по указанному пути и возвращает ее содержимое.
func (s *CliSource) Fetch() ([]byte, error) {
	switch s.filePath {
	case "":
		return nil, ErrEmptyPath
	case StdinPath:
		data, err := io.ReadAll(s.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}

	data, err := os.ReadFile(s.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", s.filePath, err)
	}
	return data, nil
}

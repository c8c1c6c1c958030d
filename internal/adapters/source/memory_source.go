package source

import (
	"errors"
	"slices"

	"telegram-text-export/internal/ports"
)

// ErrNoData возвращается MemorySource без данных.
var ErrNoData = errors.New("data not set")

// MemorySource реализует интерфейс DataSource для модели, уже загруженной в память
// (например, тела HTTP-запроса).
type MemorySource struct {
	data []byte
}

// NewMemorySource создает новый экземпляр MemorySource.
func NewMemorySource(data []byte) ports.DataSource {
	return &MemorySource{data: data}
}

// Fetch возвращает копию данных, чтобы вызывающий не мог изменить исходный буфер.
func (s *MemorySource) Fetch() ([]byte, error) {
	if s.data == nil {
		return nil, ErrNoData
	}
	return slices.Clone(s.data), nil
}

package output

import (
	"errors"
	"fmt"
)

// ErrIO обозначает категорию ошибок ввода-вывода выгрузки. Проверяется через errors.Is.
var ErrIO = errors.New("export i/o failure")

// Error описывает сбой записи в конкретный файл выгрузки.
type Error struct {
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is позволяет сопоставлять любую ошибку записи с ErrIO.
func (e *Error) Is(target error) bool {
	return target == ErrIO
}

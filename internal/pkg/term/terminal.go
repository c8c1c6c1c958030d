// Package term определяет, подключен ли вывод к интерактивному терминалу.
package term

import (
	"os"

	"golang.org/x/term"
)

// DefaultWidth используется, когда ширину терминала определить не удалось.
const DefaultWidth = 80

// IsTerminal сообщает, что файл является терминалом.
func IsTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// Width возвращает ширину терминала в колонках или DefaultWidth.
func Width(f *os.File) int {
	if !IsTerminal(f) {
		return DefaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return DefaultWidth
	}
	return width
}

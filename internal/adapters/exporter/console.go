package exporter

import (
	"fmt"
	"io"

	"telegram-text-export/internal/domain"
	"telegram-text-export/internal/pkg/format"
)

// ConsoleExporter выводит оглавление текстового архива.
type ConsoleExporter struct {
	out io.Writer
}

// NewConsoleExporter создает новый экземпляр ConsoleExporter.
func NewConsoleExporter(out io.Writer) *ConsoleExporter {
	return &ConsoleExporter{out: out}
}

// Export выводит список файлов архива с размерами и контрольными суммами.
func (e *ConsoleExporter) Export(title string, files []domain.ArchiveFile) error {
	if _, err := fmt.Fprintf(e.out, "--- %s ---\n", title); err != nil {
		return err
	}
	if len(files) == 0 {
		_, err := fmt.Fprintln(e.out, "No files.")
		return err
	}

	var total int64
	for i, f := range files {
		total += f.Size
		if _, err := fmt.Fprintf(e.out, "%d. %s, Size: %s, SHA256: %s\n", i+1, f.Path, format.Number(f.Size), f.SHA256); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(e.out, "Files: %s, Total size: %s\n", format.Number(len(files)), format.Number(total))
	return err
}

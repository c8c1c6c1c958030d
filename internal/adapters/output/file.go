package output

import (
	"os"
	"path/filepath"

	"golang.org/x/xerrors"

	"telegram-text-export/internal/ports"
)

// File — файл выгрузки, который открывается при первой непустой записи
// и дописывается блоками до вызова Close.
type File struct {
	path   string
	stats  ports.Stats
	file   *os.File
	offset int64
	failed error
	closed bool
}

// NewFile создает файл по абсолютному пути. На диске файл появится после первой записи
// или явного Open.
func NewFile(path string, stats ports.Stats) *File {
	return &File{path: path, stats: stats}
}

// Path возвращает путь к файлу.
func (f *File) Path() string {
	return f.path
}

// Empty сообщает, что в файл еще ничего не записано.
func (f *File) Empty() bool {
	return f.offset == 0
}

// WriteBlock дописывает блок в конец файла.
// После первой ошибки файл больше не принимает записи и возвращает ту же ошибку.
func (f *File) WriteBlock(block string) error {
	if f.failed != nil {
		return f.failed
	}
	if f.closed {
		panic("output: write to closed file " + f.path)
	}
	if block == "" {
		return nil
	}
	if f.file == nil {
		if err := f.open(); err != nil {
			f.failed = err
			return err
		}
	}
	n, err := f.file.WriteString(block)
	f.offset += int64(n)
	if f.stats != nil && n > 0 {
		f.stats.IncrementBytes(n)
	}
	if err != nil {
		f.failed = &Error{Op: "write", Path: f.path, Err: xerrors.Errorf("write block of %d bytes: %w", len(block), err)}
		_ = f.Close()
		return f.failed
	}
	return nil
}

// Open создает файл на диске до первой записи. Для уже открытого файла ничего не делает.
func (f *File) Open() error {
	if f.failed != nil {
		return f.failed
	}
	if f.closed {
		panic("output: open of closed file " + f.path)
	}
	if f.file != nil {
		return nil
	}
	if err := f.open(); err != nil {
		f.failed = err
		return err
	}
	return nil
}

func (f *File) open() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return &Error{Op: "mkdir", Path: f.path, Err: xerrors.Errorf("create parent directory: %w", err)}
	}
	file, err := os.OpenFile(f.path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return &Error{Op: "open", Path: f.path, Err: xerrors.Errorf("open for writing: %w", err)}
	}
	f.file = file
	if f.stats != nil {
		f.stats.IncrementFiles()
	}
	return nil
}

// Close закрывает файл. Повторный вызов ничего не делает.
func (f *File) Close() error {
	f.closed = true
	if f.file == nil {
		return nil
	}
	file := f.file
	f.file = nil
	if err := file.Close(); err != nil {
		return &Error{Op: "close", Path: f.path, Err: err}
	}
	return nil
}

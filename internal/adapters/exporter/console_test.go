package exporter

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/domain"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed pipe")
}

func TestConsoleExporter(t *testing.T) {
	t.Run("NewConsoleExporter создает корректный экземпляр", func(t *testing.T) {
		assert.NotNil(t, NewConsoleExporter(&bytes.Buffer{}))
	})

	t.Run("Export корректно выводит оглавление", func(t *testing.T) {
		var out bytes.Buffer
		files := []domain.ArchiveFile{
			{Path: "chats.txt", Size: 120, SHA256: "aa"},
			{Path: "chats/chat_1/messages.txt", Size: 2048, SHA256: "bb"},
		}

		require.NoError(t, NewConsoleExporter(&out).Export("result", files))

		assert.Equal(t, "--- result ---\n"+
			"1. chats.txt, Size: 120, SHA256: aa\n"+
			"2. chats/chat_1/messages.txt, Size: 2048, SHA256: bb\n"+
			"Files: 2, Total size: 2168\n", out.String())
	})

	t.Run("Export с пустым списком", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, NewConsoleExporter(&out).Export("empty", nil))
		assert.Equal(t, "--- empty ---\nNo files.\n", out.String())
	})

	t.Run("Ошибка записи возвращается", func(t *testing.T) {
		err := NewConsoleExporter(failingWriter{}).Export("result", []domain.ArchiveFile{{Path: "a"}})
		assert.Error(t, err)
	})
}

package services_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/adapters/output"
	"telegram-text-export/internal/adapters/output/text"
	"telegram-text-export/internal/adapters/parser"
	"telegram-text-export/internal/adapters/source"
	"telegram-text-export/internal/core/services"
	"telegram-text-export/internal/ports"
)

const pipelineExport = `{
	"personal": {"user": {"id": 1, "first_name": "Ivan", "last_name": "Petrov", "phone_number": "79991234567"}},
	"userpics": [{"id": 1, "date": "2018-06-25T21:07:03Z", "image": {"file": {"relative_path": "profile_pictures/1.jpg"}}}],
	"dialogs": [
		{
			"info": {"type": "personal", "name": "Bob", "relative_path": "chats/chat_1/"},
			"peers": [{"type": "user", "id": 1, "first_name": "Ivan"}, {"type": "user", "id": 2, "first_name": "Bob"}],
			"messages": [
				{"id": 1, "date": "2018-06-25T21:07:03Z", "from_id": 2, "text": "Hello"},
				{"id": 2, "date": "2018-06-25T21:08:00Z", "from_id": 1, "text": "Hi"},
				{"id": 3, "date": "2018-06-25T21:09:00Z", "from_id": 2, "action": {"type": "pin_message"}}
			]
		}
	],
	"left_channels": [
		{"info": {"type": "public_channel", "name": "News", "relative_path": "chats/chat_2/"}}
	]
}`

// Полный прогон: источник, разбор, выгрузка в текстовые файлы.
func TestPipeline_JSONToText(t *testing.T) {
	data, err := source.NewMemorySource([]byte(pipelineExport)).Fetch()
	require.NoError(t, err)

	export, err := parser.NewJSONParser().Parse(data)
	require.NoError(t, err)

	dir := t.TempDir() + string(os.PathSeparator)
	stats := &output.Stats{}
	writer := text.NewWriter()
	service := services.NewExportService(services.WithSliceSize(2))

	err = service.Run(context.Background(), export, writer, ports.Settings{
		Path:                dir,
		LineBreak:           text.LF,
		InternalLinksDomain: "https://t.me/",
		Location:            time.UTC,
	}, stats)
	require.NoError(t, err)

	overview, err := os.ReadFile(writer.MainFilePath())
	require.NoError(t, err)
	assert.Contains(t, string(overview), "First name: Ivan")
	assert.Contains(t, string(overview), "Chats (1) - chats.txt")
	assert.Contains(t, string(overview), "Left chats (1) - left_chats.txt")

	messages, err := os.ReadFile(filepath.Join(dir, "chats", "chat_1", text.DialogMessagesFileName))
	require.NoError(t, err)
	assert.Contains(t, string(messages), "Hello")
	assert.Contains(t, string(messages), "Hi")
	assert.Contains(t, string(messages), "Action: Pin message")

	chats, err := os.ReadFile(filepath.Join(dir, text.ChatsFileName))
	require.NoError(t, err)
	assert.Contains(t, string(chats), "Messages count: 3")

	_, err = os.Stat(filepath.Join(dir, "chats", "chat_2", text.DialogMessagesFileName))
	assert.True(t, os.IsNotExist(err))

	files, bytes := stats.Snapshot()
	assert.Equal(t, int64(5), files)
	assert.Positive(t, bytes)
}

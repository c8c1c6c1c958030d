package parser

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/domain"
)

const sampleExport = `{
	"personal": {"user": {"id": 1, "first_name": "Ivan", "username": "ivan"}, "bio": "hi"},
	"userpics": [
		{"id": 5, "date": "2018-06-25T21:07:03Z", "image": {"file": {"relative_path": "profile_pictures/5.jpg"}}}
	],
	"contacts": {
		"list": [{"first_name": "Alice", "phone_number": "79991234567"}],
		"correspondents": [{"peer": {"type": "user", "id": 2, "first_name": "Bob"}, "rating": 0.5}],
		"phone_calls": [{"peer": {"type": "chat", "id": 3, "title": "Team"}, "rating": 1}]
	},
	"sessions": {"list": [{"platform": "Linux", "ip": "127.0.0.1"}]},
	"dialogs": [
		{
			"info": {"type": "private_group", "name": "Friends", "relative_path": "chats/chat_1/"},
			"peers": [
				{"type": "user", "id": 1, "first_name": "Ivan"},
				{"type": "user", "id": 2, "first_name": "Bob"},
				{"type": "user", "id": 9, "first_name": "Game", "username": "gamebot", "is_bot": true}
			],
			"messages": [
				{"id": 1, "date": "2018-06-25T21:07:03Z", "from_id": 1, "action": {"type": "chat_add_user", "user_ids": [2]}},
				{"id": 2, "from_id": 2, "text": "photo", "media": {"type": "photo", "ttl": 10, "image": {"width": 1, "height": 2, "file": {"relative_path": "photos/1.jpg"}}}},
				{"id": 3, "from_id": 2, "media": {"type": "document", "kind": "sticker", "sticker_emoji": "x", "file": {"skip_reason": 2}}},
				{"id": 4, "from_id": 2, "media": {"type": "geo", "point": {"latitude": 1.5, "longitude": 2.5}}},
				{"id": 5, "from_id": 2, "media": {"type": "poll"}},
				{"id": 6, "from_id": 1, "action": {"type": "phone_call", "discard_reason": "busy", "duration": 7}},
				{"id": 7, "from_id": 1, "action": {"type": "secure_values_sent", "values": ["passport", "email"]}},
				{"id": 8, "from_id": 1, "media": {"type": "game", "title": "Tetris", "short_name": "tetris", "bot_id": 9}}
			]
		}
	],
	"left_channels": [
		{"info": {"type": "public_channel", "name": "News", "relative_path": "chats/chat_2/"}, "messages": []}
	]
}`

func TestJSONParser(t *testing.T) {
	t.Run("NewJSONParser создает корректный экземпляр", func(t *testing.T) {
		assert.NotNil(t, NewJSONParser())
	})

	t.Run("Разбор полной модели", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(sampleExport))
		require.NoError(t, err)

		require.NotNil(t, export.Personal)
		assert.Equal(t, "Ivan", export.Personal.User.FirstName)
		assert.Equal(t, "hi", export.Personal.Bio)

		require.Len(t, export.Userpics, 1)
		assert.Equal(t, time.Date(2018, 6, 25, 21, 7, 3, 0, time.UTC), export.Userpics[0].Date.UTC())
		assert.Equal(t, "profile_pictures/5.jpg", export.Userpics[0].Image.File.RelativePath)

		require.NotNil(t, export.Contacts)
		assert.Len(t, export.Contacts.List, 1)
		require.Len(t, export.Contacts.Correspondents, 1)
		assert.Equal(t, domain.User{ID: 2, FirstName: "Bob"}, export.Contacts.Correspondents[0].Peer)
		require.Len(t, export.Contacts.PhoneCalls, 1)
		assert.Equal(t, domain.Chat{ID: 3, Title: "Team"}, export.Contacts.PhoneCalls[0].Peer)
		assert.Empty(t, export.Contacts.InlineBots)

		require.NotNil(t, export.Sessions)
		assert.Equal(t, "Linux", export.Sessions.List[0].Platform)

		require.Len(t, export.Dialogs, 1)
		dialog := export.Dialogs[0]
		assert.Equal(t, domain.DialogPrivateGroup, dialog.Info.Type)
		assert.Equal(t, "chats/chat_1/", dialog.Info.RelativePath)
		assert.Equal(t, "Bob", dialog.Peers.User(2).FirstName)
		require.Len(t, dialog.Messages, 8)

		msgs := dialog.Messages
		assert.Equal(t, domain.ActionChatAddUser{UserIDs: []int64{2}}, msgs[0].Action)
		assert.Equal(t, domain.Media{TTL: 10, Content: domain.Photo{Image: domain.Image{
			Width: 1, Height: 2, File: domain.File{RelativePath: "photos/1.jpg"},
		}}}, msgs[1].Media)
		assert.Equal(t, "photo", msgs[1].Text)
		assert.Equal(t, domain.Document{
			Kind: domain.DocumentSticker, StickerEmoji: "x", File: domain.File{SkipReason: domain.SkipFileSize},
		}, msgs[2].Media.Content)
		assert.Equal(t, domain.GeoPoint{Latitude: 1.5, Longitude: 2.5, Valid: true}, msgs[3].Media.Content)
		assert.Equal(t, domain.UnsupportedMedia{}, msgs[4].Media.Content)
		assert.Equal(t, domain.ActionPhoneCall{DiscardReason: domain.DiscardReasonBusy, Duration: 7}, msgs[5].Action)
		assert.Equal(t, domain.ActionSecureValuesSent{Types: []domain.SecureValueType{
			domain.SecureValuePassport, domain.SecureValueEmail,
		}}, msgs[6].Action)
		assert.Equal(t, domain.Game{Title: "Tetris", ShortName: "tetris", BotID: 9}, msgs[7].Media.Content)

		require.Len(t, export.LeftChannels, 1)
		assert.Equal(t, domain.DialogPublicChannel, export.LeftChannels[0].Info.Type)
		assert.Empty(t, export.LeftChannels[0].Messages)
	})

	t.Run("Сообщение без действия и вложения", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(`{"dialogs": [{"info": {}, "messages": [{"id": 1, "text": "x"}]}]}`))
		require.NoError(t, err)
		msg := export.Dialogs[0].Messages[0]
		assert.Nil(t, msg.Action)
		assert.Nil(t, msg.Media.Content)
		assert.Equal(t, domain.DialogUnknown, export.Dialogs[0].Info.Type)
	})

	t.Run("Пустая геопозиция", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(`{"dialogs": [{"info": {}, "messages": [{"id": 1, "media": {"type": "geo"}}]}]}`))
		require.NoError(t, err)
		assert.Equal(t, domain.GeoPoint{}, export.Dialogs[0].Messages[0].Media.Content)
	})

	t.Run("Неизвестное действие возвращает ошибку", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(`{"dialogs": [{"info": {}, "messages": [{"id": 3, "action": {"type": "dance"}}]}]}`))
		require.Error(t, err)
		assert.Nil(t, export)
		assert.Contains(t, err.Error(), `unknown action type "dance"`)
		assert.Contains(t, err.Error(), "message 3")
	})

	t.Run("Неизвестный тип пира возвращает ошибку", func(t *testing.T) {
		_, err := NewJSONParser().Parse([]byte(`{"contacts": {"inline_bots": [{"peer": {"type": "robot"}}]}}`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown peer type")
	})

	t.Run("Некорректные ссылки на файлы отклоняются", func(t *testing.T) {
		tests := []struct {
			name  string
			model string
			want  string
		}{
			{
				"фото без файла",
				`{"dialogs": [{"info": {"name": "Friends"}, "messages": [{"id": 1, "media": {"type": "photo"}}]}]}`,
				"neither relative path nor skip reason",
			},
			{
				"документ с неизвестной причиной пропуска",
				`{"dialogs": [{"info": {"name": "Friends"}, "messages": [{"id": 1, "media": {"type": "document", "file": {"skip_reason": 7}}}]}]}`,
				"unknown file skip reason 7",
			},
			{
				"смена фото группы без файла",
				`{"dialogs": [{"info": {"name": "Friends"}, "messages": [{"id": 1, "action": {"type": "chat_edit_photo"}}]}]}`,
				"chat photo",
			},
			{
				"аватар без файла",
				`{"userpics": [{"id": 1, "date": "2018-06-25T21:07:03Z"}]}`,
				"userpic #0",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				export, err := NewJSONParser().Parse([]byte(tt.model))
				require.Error(t, err)
				assert.Nil(t, export)
				assert.Contains(t, err.Error(), tt.want)
			})
		}

		_, err := NewJSONParser().Parse([]byte(tests[0].model))
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidFile)
		assert.Contains(t, err.Error(), `dialog #0 "Friends"`)
		assert.Contains(t, err.Error(), "message 1")
	})

	t.Run("Удаленный аватар допускается без файла", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(`{"userpics": [{"id": 1}]}`))
		require.NoError(t, err)
		assert.Len(t, export.Userpics, 1)
	})

	t.Run("Каталог диалога вне корня выгрузки", func(t *testing.T) {
		for _, path := range []string{"../escaped/", "chats/../../escaped/", "/tmp/escaped/"} {
			model := `{"dialogs": [{"info": {"relative_path": "` + path + `"}, "messages": []}]}`
			_, err := NewJSONParser().Parse([]byte(model))
			require.Error(t, err, "path %q", path)
			assert.Contains(t, err.Error(), "leaves the export directory")
		}
	})

	t.Run("Разбор некорректного JSON возвращает ошибку", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(`{"personal": {"bio":}`))
		assert.Error(t, err)
		assert.Nil(t, export)
	})

	t.Run("Разбор пустого JSON возвращает ошибку", func(t *testing.T) {
		export, err := NewJSONParser().Parse([]byte(``))
		assert.Error(t, err)
		assert.Nil(t, export)
	})
}

package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-text-export/internal/domain"
)

func TestSliceMessages(t *testing.T) {
	alice := domain.User{ID: 1, FirstName: "Alice"}
	bob := domain.User{ID: 2, FirstName: "Bob"}
	carol := domain.User{ID: 3, FirstName: "Carol"}
	bot := domain.User{ID: 4, FirstName: "Game", IsBot: true}
	channel := domain.Chat{ID: 5, Title: "News"}
	peers := domain.NewPeers(alice, bob, carol, bot, channel)

	t.Run("Порции не больше заданного размера", func(t *testing.T) {
		dialog := domain.Dialog{Peers: peers}
		for i := 1; i <= 5; i++ {
			dialog.Messages = append(dialog.Messages, domain.Message{ID: i, FromID: 1})
		}

		slices := SliceMessages(dialog, 2)
		require.Len(t, slices, 3)
		assert.Len(t, slices[0].List, 2)
		assert.Len(t, slices[1].List, 2)
		require.Len(t, slices[2].List, 1)
		assert.Equal(t, 5, slices[2].List[0].ID)
	})

	t.Run("Порция несет только упомянутых пиров", func(t *testing.T) {
		dialog := domain.Dialog{Peers: peers, Messages: []domain.Message{
			{ID: 1, FromID: 1, ForwardedFromID: channel.PeerID()},
			{ID: 2, FromID: 2, Action: domain.ActionChatAddUser{UserIDs: []int64{3}}},
			{ID: 3, FromID: 2, ViaBotID: 4},
		}}

		slices := SliceMessages(dialog, 2)
		require.Len(t, slices, 2)
		assert.Equal(t, domain.NewPeers(alice, bob, carol, channel), slices[0].Peers)
		assert.Equal(t, domain.NewPeers(bob, bot), slices[1].Peers)
	})

	t.Run("Ссылки из действий и игр", func(t *testing.T) {
		dialog := domain.Dialog{Peers: peers, Messages: []domain.Message{
			{ID: 1, Action: domain.ActionChatCreate{Title: "x", UserIDs: []int64{1, 2}}},
			{ID: 2, Action: domain.ActionChatDeleteUser{UserID: 3}},
			{ID: 3, Action: domain.ActionChatJoinedByLink{InviterID: 1}},
			{ID: 4, Media: domain.Media{Content: domain.Game{BotID: 4}}},
		}}

		slices := SliceMessages(dialog, 10)
		require.Len(t, slices, 1)
		assert.Equal(t, domain.NewPeers(alice, bob, carol, bot), slices[0].Peers)
	})

	t.Run("Неизвестные пиры пропускаются", func(t *testing.T) {
		dialog := domain.Dialog{Peers: peers, Messages: []domain.Message{{ID: 1, FromID: 42}}}

		slices := SliceMessages(dialog, 10)
		require.Len(t, slices, 1)
		assert.Empty(t, slices[0].Peers)
	})

	t.Run("Пустой диалог не дает порций", func(t *testing.T) {
		assert.Empty(t, SliceMessages(domain.Dialog{Peers: peers}, 10))
	})

	t.Run("Неположительный размер дает одну порцию", func(t *testing.T) {
		dialog := domain.Dialog{Messages: []domain.Message{{ID: 1}, {ID: 2}, {ID: 3}}}
		slices := SliceMessages(dialog, 0)
		require.Len(t, slices, 1)
		assert.Len(t, slices[0].List, 3)
	})
}

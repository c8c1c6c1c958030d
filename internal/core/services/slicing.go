package services

import "telegram-text-export/internal/domain"

// SliceMessages делит сообщения диалога на порции не больше size.
// Каждая порция несет только тех пиров, на которых ссылаются ее сообщения.
func SliceMessages(dialog domain.Dialog, size int) []domain.MessagesSlice {
	if size <= 0 {
		size = len(dialog.Messages)
	}
	slices := make([]domain.MessagesSlice, 0, (len(dialog.Messages)+size-1)/max(size, 1))
	for from := 0; from < len(dialog.Messages); from += size {
		to := min(from+size, len(dialog.Messages))
		list := dialog.Messages[from:to]
		slices = append(slices, domain.MessagesSlice{
			List:  list,
			Peers: referencedPeers(list, dialog.Peers),
		})
	}
	return slices
}

// referencedPeers собирает пиров, упомянутых в сообщениях. Отсутствующие в таблице пропускаются:
// при рендеринге они заменяются заглушками.
func referencedPeers(messages []domain.Message, all domain.Peers) domain.Peers {
	peers := make(domain.Peers)
	add := func(id domain.PeerID) {
		if id.IsZero() {
			return
		}
		if _, seen := peers[id]; seen {
			return
		}
		if peer, ok := all[id]; ok {
			peers[id] = peer
		}
	}
	addUsers := func(ids ...int64) {
		for _, id := range ids {
			add(domain.UserPeerID(id))
		}
	}

	for _, msg := range messages {
		addUsers(msg.FromID, msg.ViaBotID)
		add(msg.ForwardedFromID)

		switch action := msg.Action.(type) {
		case domain.ActionChatCreate:
			addUsers(action.UserIDs...)
		case domain.ActionChatAddUser:
			addUsers(action.UserIDs...)
		case domain.ActionChatDeleteUser:
			addUsers(action.UserID)
		case domain.ActionChatJoinedByLink:
			addUsers(action.InviterID)
		}

		if game, ok := msg.Media.Content.(domain.Game); ok {
			addUsers(game.BotID)
		}
	}
	return peers
}

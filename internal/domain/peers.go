package domain

import "strings"

// PeerKind разделяет пространства идентификаторов пользователей и чатов.
type PeerKind int

const (
	PeerKindUser PeerKind = iota + 1
	PeerKindChat
)

// PeerID — идентификатор пира с учетом его вида. Нулевое значение означает "нет пира".
type PeerID struct {
	Kind PeerKind `json:"kind"`
	ID   int64    `json:"id"`
}

// UserPeerID возвращает идентификатор пира для пользователя.
func UserPeerID(id int64) PeerID {
	return PeerID{Kind: PeerKindUser, ID: id}
}

// ChatPeerID возвращает идентификатор пира для чата или канала.
func ChatPeerID(id int64) PeerID {
	return PeerID{Kind: PeerKindChat, ID: id}
}

// IsZero сообщает, что идентификатор не задан.
func (id PeerID) IsZero() bool {
	return id.ID == 0
}

// Peer — пользователь или чат. Реализуется только типами User и Chat.
type Peer interface {
	PeerID() PeerID
	Name() string
	isPeer()
}

// User представляет пользователя Telegram.
type User struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	PhoneNumber string `json:"phone_number"`
	Username    string `json:"username"`
	IsBot       bool   `json:"is_bot"`
}

// PeerID реализует Peer.
func (u User) PeerID() PeerID { return UserPeerID(u.ID) }

// Name возвращает отображаемое имя пользователя.
func (u User) Name() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (User) isPeer() {}

// Chat представляет группу или канал.
type Chat struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Username    string `json:"username"`
	IsBroadcast bool   `json:"is_broadcast"`
}

// PeerID реализует Peer.
func (c Chat) PeerID() PeerID { return ChatPeerID(c.ID) }

// Name возвращает название чата.
func (c Chat) Name() string { return c.Title }

func (Chat) isPeer() {}

// Peers хранит таблицу пиров, передаваемую вместе с каждой порцией сообщений.
type Peers map[PeerID]Peer

// NewPeers строит таблицу из списка пиров.
func NewPeers(list ...Peer) Peers {
	peers := make(Peers, len(list))
	for _, p := range list {
		peers[p.PeerID()] = p
	}
	return peers
}

// Peer возвращает пира по идентификатору.
// Для отсутствующего идентификатора возвращается пустой пользователь.
func (p Peers) Peer(id PeerID) Peer {
	if peer, ok := p[id]; ok {
		return peer
	}
	return User{}
}

// User возвращает пользователя по его числовому идентификатору или пустого пользователя.
func (p Peers) User(id int64) User {
	if user, ok := p.Peer(UserPeerID(id)).(User); ok {
		return user
	}
	return User{}
}

// Chat возвращает чат по его числовому идентификатору или пустой чат.
func (p Peers) Chat(id int64) Chat {
	if chat, ok := p.Peer(ChatPeerID(id)).(Chat); ok {
		return chat
	}
	return Chat{}
}

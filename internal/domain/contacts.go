package domain

import (
	"sort"
	"strings"
)

// TopPeer — пир из списка часто используемых с его рейтингом.
type TopPeer struct {
	Peer   Peer
	Rating float64
}

// ContactsList содержит сохраненные контакты и три категории частых собеседников.
type ContactsList struct {
	List           []ContactInfo
	Correspondents []TopPeer
	InlineBots     []TopPeer
	PhoneCalls     []TopPeer
}

// SortedContactsIndices возвращает индексы контактов, упорядоченные по имени
// без учета регистра. Порядок равных имен сохраняется.
func SortedContactsIndices(data ContactsList) []int {
	names := make([]string, len(data.List))
	for i, contact := range data.List {
		names[i] = strings.ToLower(contact.FirstName + " " + contact.LastName)
	}
	indices := make([]int, len(data.List))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return names[indices[a]] < names[indices[b]]
	})
	return indices
}

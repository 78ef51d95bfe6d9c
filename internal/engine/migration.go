package engine

import (
	"time"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

// Migrate copies every account, live session and item from a source store
// into a destination store, preserving ids so ownership links stay intact.
// Used when the daemon is pointed at a fresh data dir and asked to import an
// old one. Records already present in the destination win.
func Migrate(src, dst *MemStore) error {
	src.mu.RLock()
	users := src.copyUsers()
	sessions := src.copySessions()
	items := make(map[string]map[string]schema.Item, len(src.items))
	for ownerID := range src.items {
		items[ownerID] = src.copyOwnerItems(ownerID)
	}
	src.mu.RUnlock()

	now := time.Now().UTC()

	dst.mu.Lock()
	for email, user := range users {
		if _, ok := dst.users[email]; ok {
			continue
		}
		dst.users[email] = user
	}
	for token, sess := range sessions {
		if sess.Expired(now) {
			continue
		}
		if _, ok := dst.sessions[token]; ok {
			continue
		}
		dst.sessions[token] = sess
	}
	for ownerID, owned := range items {
		if dst.items[ownerID] == nil {
			dst.items[ownerID] = make(map[string]schema.Item, len(owned))
		}
		for id, it := range owned {
			if _, ok := dst.items[ownerID][id]; ok {
				continue
			}
			dst.items[ownerID][id] = it
		}
	}
	usersCopy := dst.copyUsers()
	sessionsCopy := dst.copySessions()
	ownerCopies := make(map[string]map[string]schema.Item, len(dst.items))
	for ownerID := range dst.items {
		ownerCopies[ownerID] = dst.copyOwnerItems(ownerID)
	}
	dst.mu.Unlock()

	dst.persistUsers(usersCopy)
	dst.persistSessions(sessionsCopy)
	for ownerID, owned := range ownerCopies {
		dst.persistItems(ownerID, owned)
	}
	return nil
}

package engine

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/itemdeck/itemdeck/pkg/schema"
)

// MemStore is the thread-safe in-memory engine behind the daemon.
// Mutations are applied under the lock and then flushed to disk by a
// background goroutine; Wait drains those writers before shutdown.
type MemStore struct {
	mu       sync.RWMutex
	users    map[string]schema.UserRecord // keyed by lowercase email
	sessions map[string]schema.SessionRecord
	// Structure: [ownerID][itemID]Item
	items     map[string]map[string]schema.Item
	persister *Persistence
	wg        sync.WaitGroup

	now func() time.Time
}

// NewMemStore initializes a store from a loaded snapshot (may be zero-valued)
// and an optional persister.
func NewMemStore(snap Snapshot, p *Persistence) *MemStore {
	m := &MemStore{
		users:     snap.Users,
		sessions:  snap.Sessions,
		items:     snap.Items,
		persister: p,
		now:       func() time.Time { return time.Now().UTC() },
	}
	if m.users == nil {
		m.users = make(map[string]schema.UserRecord)
	}
	if m.sessions == nil {
		m.sessions = make(map[string]schema.SessionRecord)
	}
	if m.items == nil {
		m.items = make(map[string]map[string]schema.Item)
	}
	return m
}

// Wait blocks until all background persistence tasks have completed.
func (m *MemStore) Wait() {
	m.wg.Wait()
}

// --- Accounts ---

func (m *MemStore) CreateUser(name, email, passwordHash, verifyCode string) (schema.UserRecord, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || passwordHash == "" {
		return schema.UserRecord{}, ErrInvalidInput
	}

	m.mu.Lock()
	if _, ok := m.users[email]; ok {
		m.mu.Unlock()
		return schema.UserRecord{}, ErrEmailTaken
	}
	user := schema.UserRecord{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: passwordHash,
		Verified:     false,
		VerifyCode:   verifyCode,
		CreatedAt:    m.now(),
	}
	m.users[email] = user
	users := m.copyUsers()
	m.mu.Unlock()

	m.persistUsers(users)
	return user, nil
}

func (m *MemStore) UserByEmail(email string) (schema.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[normalizeEmail(email)]
	if !ok {
		return schema.UserRecord{}, ErrUserNotFound
	}
	return user, nil
}

func (m *MemStore) VerifyUser(email, code string) (schema.UserRecord, error) {
	email = normalizeEmail(email)

	m.mu.Lock()
	user, ok := m.users[email]
	if !ok {
		m.mu.Unlock()
		return schema.UserRecord{}, ErrUserNotFound
	}
	if user.Verified {
		m.mu.Unlock()
		return user, nil
	}
	if code == "" || user.VerifyCode != code {
		m.mu.Unlock()
		return schema.UserRecord{}, ErrBadVerifyCode
	}
	user.Verified = true
	user.VerifyCode = ""
	m.users[email] = user
	users := m.copyUsers()
	m.mu.Unlock()

	m.persistUsers(users)
	return user, nil
}

// --- Sessions ---

func (m *MemStore) PutSession(token, userID string, expiresAt time.Time) error {
	if token == "" || userID == "" {
		return ErrInvalidInput
	}

	m.mu.Lock()
	m.sessions[token] = schema.SessionRecord{
		Token:     token,
		UserID:    userID,
		ExpiresAt: expiresAt,
		CreatedAt: m.now(),
	}
	sessions := m.copySessions()
	m.mu.Unlock()

	m.persistSessions(sessions)
	return nil
}

func (m *MemStore) SessionUser(token string) (schema.UserRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sess, ok := m.sessions[token]
	if !ok || sess.Expired(m.now()) {
		return schema.UserRecord{}, ErrSessionNotFound
	}
	for _, user := range m.users {
		if user.ID == sess.UserID {
			return user, nil
		}
	}
	return schema.UserRecord{}, ErrSessionNotFound
}

func (m *MemStore) DeleteSession(token string) error {
	m.mu.Lock()
	delete(m.sessions, token)
	sessions := m.copySessions()
	m.mu.Unlock()

	m.persistSessions(sessions)
	return nil
}

// --- Items ---

func (m *MemStore) ListItems(ownerID string) ([]schema.Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owned := m.items[ownerID]
	list := make([]schema.Item, 0, len(owned))
	for _, it := range owned {
		list = append(list, it)
	}
	// Newest first; ties broken by id so the order is stable across calls.
	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].ID < list[j].ID
	})
	return list, nil
}

func (m *MemStore) CreateItem(ownerID, title, description string, status schema.Status) (schema.Item, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if status == "" {
		status = schema.StatusPending
	}
	if ownerID == "" || title == "" || description == "" || !status.Valid() {
		return schema.Item{}, ErrInvalidInput
	}

	m.mu.Lock()
	if m.items[ownerID] == nil {
		m.items[ownerID] = make(map[string]schema.Item)
	}
	item := schema.Item{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		Status:      status,
		CreatedAt:   m.now(),
		OwnerID:     ownerID,
	}
	m.items[ownerID][item.ID] = item
	owned := m.copyOwnerItems(ownerID)
	m.mu.Unlock()

	m.persistItems(ownerID, owned)
	return item, nil
}

func (m *MemStore) UpdateItem(ownerID, id, title, description string, status schema.Status) (schema.Item, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" || !status.Valid() {
		return schema.Item{}, ErrInvalidInput
	}

	m.mu.Lock()
	item, ok := m.items[ownerID][id]
	if !ok {
		m.mu.Unlock()
		return schema.Item{}, ErrNotFound
	}
	// id, CreatedAt and OwnerID carry over untouched.
	item.Title = title
	item.Description = description
	item.Status = status
	m.items[ownerID][id] = item
	owned := m.copyOwnerItems(ownerID)
	m.mu.Unlock()

	m.persistItems(ownerID, owned)
	return item, nil
}

func (m *MemStore) DeleteItem(ownerID, id string) error {
	m.mu.Lock()
	if _, ok := m.items[ownerID][id]; !ok {
		m.mu.Unlock()
		return ErrNotFound
	}
	delete(m.items[ownerID], id)
	owned := m.copyOwnerItems(ownerID)
	m.mu.Unlock()

	m.persistItems(ownerID, owned)
	return nil
}

// --- Copy helpers ---
// All MUST be called while holding m.mu; the copies let persistence run
// without the lock.

func (m *MemStore) copyUsers() map[string]schema.UserRecord {
	out := make(map[string]schema.UserRecord, len(m.users))
	for k, v := range m.users {
		out[k] = v
	}
	return out
}

func (m *MemStore) copySessions() map[string]schema.SessionRecord {
	out := make(map[string]schema.SessionRecord, len(m.sessions))
	for k, v := range m.sessions {
		out[k] = v
	}
	return out
}

func (m *MemStore) copyOwnerItems(ownerID string) map[string]schema.Item {
	owned := m.items[ownerID]
	out := make(map[string]schema.Item, len(owned))
	for k, v := range owned {
		out[k] = v
	}
	return out
}

// --- Background persistence ---

func (m *MemStore) persistUsers(users map[string]schema.UserRecord) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.persister.SaveUsers(users)
	}()
}

func (m *MemStore) persistSessions(sessions map[string]schema.SessionRecord) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.persister.SaveSessions(sessions)
	}()
}

func (m *MemStore) persistItems(ownerID string, owned map[string]schema.Item) {
	if m.persister == nil {
		return
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.persister.SaveOwnerItems(ownerID, owned)
	}()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

package identity

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store useful for tests.
// It is not intended for production use.

type MemoryStore struct {
	mu       sync.Mutex
	users    map[string]User          // by id
	byEmail  map[string]string       // lower(email) -> id
	sessions map[string]StoredSession // by id
	byHash   map[string]string       // refresh token hash -> session id
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]User),
		byEmail:  make(map[string]string),
		sessions: make(map[string]StoredSession),
		byHash:   make(map[string]string),
	}
}

// PutUser inserts or replaces a user record.
func (m *MemoryStore) PutUser(u User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
	m.byEmail[lower(u.Email)] = u.ID
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[lower(email)]
	if !ok {
		return User{}, ErrNotFound
	}
	return m.users[id], nil
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

func (m *MemoryStore) CreateSession(_ context.Context, s StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s
	m.byHash[s.RefreshTokenHash] = s.ID
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return StoredSession{}, ErrNotFound
	}
	return s, nil
}

func (m *MemoryStore) GetSessionByTokenHash(_ context.Context, hash string) (StoredSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byHash[hash]
	if !ok {
		return StoredSession{}, ErrNotFound
	}
	return m.sessions[id], nil
}

func (m *MemoryStore) RotateSession(_ context.Context, oldID string, next StoredSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.sessions[oldID]
	if !ok || old.RevokedAt != nil {
		return ErrNotFound
	}
	at := next.CreatedAt
	old.RevokedAt = &at
	m.sessions[oldID] = old
	m.sessions[next.ID] = next
	m.byHash[next.RefreshTokenHash] = next.ID
	return nil
}

func (m *MemoryStore) TouchSession(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return nil
	}
	s.LastActivityAt = at
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) RevokeSession(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return nil
	}
	s.RevokedAt = &at
	m.sessions[id] = s
	return nil
}

func (m *MemoryStore) RevokeUserSessions(_ context.Context, userID string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
			m.sessions[id] = s
			n++
		}
	}
	return n, nil
}

func (m *MemoryStore) CountActiveSessions(_ context.Context, userID string, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sessions {
		if s.UserID == userID && s.Active(now) {
			n++
		}
	}
	return n, nil
}

func lower(s string) string { return strings.ToLower(s) }

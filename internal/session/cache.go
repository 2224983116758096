package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// CacheKey is the fixed storage key for the cached-user record.
const CacheKey = "auth:cached_user"

// Store is the key-value capability backing the user cache. The same
// orchestration logic runs against an in-memory store in a server process or
// a persistent store on a client; the implementation is chosen by injection.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// cachedUser is the serialized snapshot shape: {user, cachedAt}.
type cachedUser struct {
	User     User  `json:"user"`
	CachedAt int64 `json:"cachedAt"` // unix milliseconds
}

// UserCache holds the last-known user identity for degraded-mode
// continuity. Reads honor the max-age strictly: a stale snapshot is
// indistinguishable from no snapshot.
type UserCache struct {
	store  Store
	key    string
	maxAge time.Duration
	clock  func() time.Time
}

// NewUserCache wraps a store with a snapshot max-age.
func NewUserCache(store Store, maxAge time.Duration) *UserCache {
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &UserCache{store: store, key: CacheKey, maxAge: maxAge, clock: time.Now}
}

// SnapshotCacheFor returns a cache scoped to one refresh token, keyed by the
// token's hash. Only a caller holding the exact credential can read the
// snapshot back, which makes it safe to serve in a shared store.
func SnapshotCacheFor(store Store, refreshToken string, maxAge time.Duration) *UserCache {
	c := NewUserCache(store, maxAge)
	sum := sha256.Sum256([]byte(refreshToken))
	c.key = "auth:snapshot:" + hex.EncodeToString(sum[:])
	return c
}

// Put writes the snapshot through to the store. Storage errors are
// swallowed: degraded-mode continuity is best effort and must never fail an
// otherwise successful authentication.
func (c *UserCache) Put(ctx context.Context, u User) {
	if c == nil || c.store == nil {
		return
	}
	snap := cachedUser{User: u, CachedAt: c.clock().UnixMilli()}
	data, err := json.Marshal(snap)
	if err != nil {
		return
	}
	_ = c.store.Set(ctx, c.key, data, c.maxAge)
}

// Get returns the cached user if a snapshot exists and is younger than the
// configured max-age.
func (c *UserCache) Get(ctx context.Context) (*User, bool) {
	return c.GetWithin(ctx, 0)
}

// GetWithin is Get with a per-call max-age override; zero falls back to the
// cache's configured max-age. The stricter of the two never applies: the
// caller's bound wins outright, since the orchestrator owns the degraded-mode
// policy.
func (c *UserCache) GetWithin(ctx context.Context, maxAge time.Duration) (*User, bool) {
	if c == nil || c.store == nil {
		return nil, false
	}
	if maxAge <= 0 {
		maxAge = c.maxAge
	}
	data, ok, err := c.store.Get(ctx, c.key)
	if err != nil || !ok {
		return nil, false
	}
	var snap cachedUser
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	age := c.clock().Sub(time.UnixMilli(snap.CachedAt))
	if age >= maxAge {
		return nil, false
	}
	return &snap.User, true
}

// Clear removes the snapshot.
func (c *UserCache) Clear(ctx context.Context) {
	if c == nil || c.store == nil {
		return
	}
	_ = c.store.Delete(ctx, c.key)
}

// MemoryStore is an in-process Store with per-entry expiry. Useful for
// server-side deployments and tests.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	clock   func() time.Time
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry), clock: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && !s.clock().Before(e.expiresAt) {
		delete(s.entries, key)
		return nil, false, nil
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := memoryEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.clock().Add(ttl)
	}
	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

package session

import (
	"context"
	"sync"
	"time"

	"scoutpulse-platform/pkg/logger"
)

// State is a snapshot of the manager's current authentication state.
type State struct {
	Authenticated bool
	User          *User
	Session       *Session
}

// Manager wraps the orchestrator with mutable current state and a single
// proactive-refresh timer. The timer is the only owned mutable resource:
// the manager alone creates, reschedules and cancels it, and every
// Initialize/Logout first cancels any prior timer before arming a new one.
//
// A generation counter guards against stale work: the timer callback and
// any in-flight refresh capture the generation they started under, and
// their results are discarded if Initialize or Logout advanced it since.
type Manager struct {
	validator Validator
	refresher Refresher
	cache     *UserCache
	cfg       Config
	handlers  Handlers
	clock     func() time.Time

	mu           sync.Mutex
	session      *Session
	user         *User
	refreshToken string
	timer        *time.Timer
	gen          uint64
}

// NewManager builds a manager. cache may be nil to disable degraded mode.
func NewManager(v Validator, r Refresher, cache *UserCache, cfg Config, handlers Handlers) *Manager {
	return &Manager{
		validator: v,
		refresher: r,
		cache:     cache,
		cfg:       cfg.withDefaults(),
		handlers:  handlers,
		clock:     time.Now,
	}
}

// State returns the current snapshot.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Authenticated: m.session != nil,
		User:          m.user,
		Session:       m.session,
	}
}

// Initialize resolves the given credentials through the orchestrator,
// adopts the result, and (re)arms the proactive-refresh timer.
func (m *Manager) Initialize(ctx context.Context, accessToken, refreshToken string) Outcome {
	gen := m.advance()

	result := Resolve(ctx, accessToken, refreshToken, m.validator, m.refresher, m.cache, DefaultOptions(), m.cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		// A later Initialize or Logout superseded this call while the
		// orchestrator was on the network. Drop the stale result.
		return result
	}

	switch {
	case result.Authenticated && result.User != nil:
		m.user = result.User
		m.session = result.Session
		m.refreshToken = refreshToken
		if result.Session != nil && result.Session.RefreshToken != "" {
			m.refreshToken = result.Session.RefreshToken
		}
		if m.cfg.AutoRefresh && m.session != nil {
			m.scheduleLocked(ctx, m.session.ExpiresAt)
		}
	case result.Degraded && result.User != nil:
		m.user = result.User
		m.session = nil
	default:
		m.user = nil
		m.session = nil
		m.refreshToken = ""
		m.cache.Clear(ctx)
	}

	return result
}

// Refresh runs one bounded-retry refresh and dispatches failure handlers.
func (m *Manager) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	result := RefreshWithRetry(ctx, refreshToken, m.refresher, m.cfg)
	if !result.Success {
		m.handlers.Dispatch(ctx, result.Err)
	}
	return result
}

// Validate runs one validation and dispatches failure handlers.
func (m *Manager) Validate(ctx context.Context, tok string) ValidationResult {
	result := Validate(ctx, tok, m.validator, m.cfg)
	if !result.Valid {
		m.handlers.Dispatch(ctx, result.Err)
	}
	return result
}

// Logout cancels the timer and clears both in-memory state and the cache.
func (m *Manager) Logout(ctx context.Context) {
	m.advance()
	m.mu.Lock()
	m.user = nil
	m.session = nil
	m.refreshToken = ""
	m.mu.Unlock()
	m.cache.Clear(ctx)
}

// Close cancels the timer without touching state or cache.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.gen++
}

// advance bumps the generation and cancels any armed timer, invalidating
// all outstanding work started under earlier generations.
func (m *Manager) advance() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cancelLocked()
	m.gen++
	return m.gen
}

func (m *Manager) cancelLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// scheduleLocked arms the single refresh timer for expiry−threshold.
// Caller holds m.mu.
func (m *Manager) scheduleLocked(ctx context.Context, expiresAt time.Time) {
	m.cancelLocked()

	refreshIn := expiresAt.Sub(m.clock()) - m.cfg.RefreshThreshold
	if refreshIn <= 0 {
		return
	}

	gen := m.gen
	m.timer = time.AfterFunc(refreshIn, func() {
		m.proactiveRefresh(ctx, gen)
	})
}

// proactiveRefresh is the timer callback. It re-checks the generation both
// before starting and before adopting the result, so a concurrent
// Initialize/Logout wins over a slow refresh.
func (m *Manager) proactiveRefresh(ctx context.Context, gen uint64) {
	m.mu.Lock()
	if gen != m.gen || m.refreshToken == "" {
		m.mu.Unlock()
		return
	}
	refreshToken := m.refreshToken
	m.mu.Unlock()

	log := logger.From(ctx)
	log.Debug("proactive token refresh triggered")

	result := RefreshWithRetry(ctx, refreshToken, m.refresher, m.cfg)

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen != m.gen {
		return
	}

	if !result.Success {
		if result.Err != nil && refreshTerminal(result.Err) {
			// The session is gone for good; degraded continuity would now
			// serve an identity that can never be re-authenticated.
			m.user = nil
			m.session = nil
			m.refreshToken = ""
			m.cache.Clear(ctx)
		}
		go m.handlers.Dispatch(ctx, result.Err)
		return
	}

	if m.session != nil {
		updated := *m.session
		updated.AccessToken = result.AccessToken
		if result.RefreshToken != "" {
			updated.RefreshToken = result.RefreshToken
			m.refreshToken = result.RefreshToken
		}
		if !result.ExpiresAt.IsZero() {
			updated.ExpiresAt = result.ExpiresAt
		}
		m.session = &updated
		if m.user != nil {
			m.cache.Put(ctx, *m.user)
		}
		m.scheduleLocked(ctx, updated.ExpiresAt)
	}
}

// ResolveFor exposes the orchestrator with explicit options without
// adopting the result into manager state. Useful for per-request checks
// that still want the manager's ports and config.
func (m *Manager) ResolveFor(ctx context.Context, accessToken, refreshToken string, opts Options) Outcome {
	return Resolve(ctx, accessToken, refreshToken, m.validator, m.refresher, m.cache, opts, m.cfg)
}

// Package sessions keeps the in-memory table of bearer sessions. Sessions
// are never persisted: a restart logs everybody out.
package sessions

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/dmitrijs2005/dailyops/internal/logging"
)

// TokenBytes is the amount of randomness behind each token (288 bits).
const TokenBytes = 36

type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func (s Session) expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session

	lifetime time.Duration
	now      func() time.Time
	newToken func() (string, error)
	logger   logging.Logger
}

type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithTokenSource replaces the random token generator.
func WithTokenSource(fn func() (string, error)) Option {
	return func(m *Manager) { m.newToken = fn }
}

func WithLogger(l logging.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

func NewManager(lifetime time.Duration, opts ...Option) *Manager {
	m := &Manager{
		sessions: make(map[string]*Session),
		lifetime: lifetime,
		now:      time.Now,
		newToken: func() (string, error) { return common.MakeRandToken(TokenBytes) },
		logger:   logging.Nop{},
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With("module", "sessions")
	return m
}

// Lifetime is the validity period given to new sessions.
func (m *Manager) Lifetime() time.Duration { return m.lifetime }

// Create opens a session for userID.
func (m *Manager) Create(userID string) (Session, error) {
	token, err := m.newToken()
	if err != nil {
		return Session{}, fmt.Errorf("generate session token: %w", err)
	}

	now := m.now()
	s := &Session{
		Token:     token,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(m.lifetime),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, taken := m.sessions[token]; taken {
		return Session{}, fmt.Errorf("session token collision: %w", common.ErrAlreadyExists)
	}
	m.sessions[token] = s
	return *s, nil
}

// Get returns a copy of the live session for token and marks it as used.
// An expired session is removed and reported as absent.
func (m *Manager) Get(token string) (Session, bool) {
	if token == "" {
		return Session{}, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[token]
	if !ok {
		return Session{}, false
	}
	now := m.now()
	if s.expired(now) {
		delete(m.sessions, token)
		return Session{}, false
	}
	s.UpdatedAt = now
	return *s, true
}

// Destroy removes the session. Unknown tokens are ignored.
func (m *Manager) Destroy(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
}

// Sweep evicts every expired session and returns how many were removed.
func (m *Manager) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	removed := 0
	for token, s := range m.sessions {
		if s.expired(now) {
			delete(m.sessions, token)
			removed++
		}
	}
	return removed
}

// Run sweeps every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		// expired sessions are still dropped lazily by Get
		<-ctx.Done()
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug(ctx, "expired sessions removed", "count", n)
			}
		}
	}
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

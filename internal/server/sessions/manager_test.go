package sessions

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/dailyops/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newClock() *clock {
	return &clock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

const lifetime = time.Hour

func TestCreate_TokenShape(t *testing.T) {
	m := NewManager(lifetime)

	s, err := m.Create("u1")
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(s.Token)
	require.NoError(t, err)
	assert.Len(t, raw, TokenBytes)
	assert.Equal(t, "u1", s.UserID)
	assert.Equal(t, s.CreatedAt.Add(lifetime), s.ExpiresAt)

	other, err := m.Create("u1")
	require.NoError(t, err)
	assert.NotEqual(t, s.Token, other.Token)
	assert.Equal(t, 2, m.Len())
}

func TestCreate_TokenSourceError(t *testing.T) {
	m := NewManager(lifetime, WithTokenSource(func() (string, error) { return "", errors.New("no entropy") }))

	_, err := m.Create("u1")
	assert.Error(t, err)
	assert.Zero(t, m.Len())
}

func TestCreate_RejectsCollision(t *testing.T) {
	m := NewManager(lifetime, WithTokenSource(func() (string, error) { return "same", nil }))

	_, err := m.Create("u1")
	require.NoError(t, err)
	_, err = m.Create("u2")
	assert.ErrorIs(t, err, common.ErrAlreadyExists)

	s, ok := m.Get("same")
	require.True(t, ok)
	assert.Equal(t, "u1", s.UserID)
}

func TestGet_Expiry(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		want    bool
	}{
		{"fresh", 0, true},
		{"just before expiry", lifetime - time.Millisecond, true},
		{"exactly at expiry", lifetime, true},
		{"just after expiry", lifetime + time.Millisecond, false},
		{"long gone", 30 * 24 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newClock()
			m := NewManager(lifetime, WithClock(c.Now))
			s, err := m.Create("u1")
			require.NoError(t, err)

			c.Advance(tt.elapsed)
			_, ok := m.Get(s.Token)
			assert.Equal(t, tt.want, ok)

			if !tt.want {
				assert.Zero(t, m.Len(), "expired session must be evicted on lookup")
			}
		})
	}
}

func TestGet_EmptyAndUnknownToken(t *testing.T) {
	m := NewManager(lifetime)
	_, ok := m.Get("")
	assert.False(t, ok)
	_, ok = m.Get("nope")
	assert.False(t, ok)
}

func TestGet_RefreshesUpdatedAtAndReturnsCopy(t *testing.T) {
	c := newClock()
	m := NewManager(lifetime, WithClock(c.Now))
	s, err := m.Create("u1")
	require.NoError(t, err)

	c.Advance(time.Minute)
	got, ok := m.Get(s.Token)
	require.True(t, ok)
	assert.Equal(t, c.Now(), got.UpdatedAt)
	assert.Equal(t, s.ExpiresAt, got.ExpiresAt, "lookups do not extend the session")

	got.UserID = "mallory"
	got.ExpiresAt = got.ExpiresAt.Add(100 * time.Hour)

	again, ok := m.Get(s.Token)
	require.True(t, ok)
	assert.Equal(t, "u1", again.UserID)
	assert.Equal(t, s.ExpiresAt, again.ExpiresAt)
}

func TestDestroy_Idempotent(t *testing.T) {
	m := NewManager(lifetime)
	s, err := m.Create("u1")
	require.NoError(t, err)

	m.Destroy(s.Token)
	m.Destroy(s.Token)
	m.Destroy("never-existed")

	_, ok := m.Get(s.Token)
	assert.False(t, ok)
}

func TestSweep_RemovesOnlyExpired(t *testing.T) {
	c := newClock()
	m := NewManager(lifetime, WithClock(c.Now))

	old, err := m.Create("u1")
	require.NoError(t, err)
	c.Advance(30 * time.Minute)
	young, err := m.Create("u2")
	require.NoError(t, err)

	c.Advance(45 * time.Minute)
	assert.Equal(t, 1, m.Sweep())
	assert.Equal(t, 1, m.Len())

	_, ok := m.Get(old.Token)
	assert.False(t, ok)
	_, ok = m.Get(young.Token)
	assert.True(t, ok)
}

func TestRun_SweepsUntilCancelled(t *testing.T) {
	c := newClock()
	m := NewManager(time.Millisecond, WithClock(c.Now))
	_, err := m.Create("u1")
	require.NoError(t, err)
	c.Advance(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return m.Len() == 0 }, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestManager_ConcurrentUse(t *testing.T) {
	m := NewManager(lifetime)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s, err := m.Create("u")
			if !assert.NoError(t, err) {
				return
			}
			_, ok := m.Get(s.Token)
			assert.True(t, ok)
			m.Sweep()
			m.Destroy(s.Token)
		}()
	}
	wg.Wait()
	assert.Zero(t, m.Len())
}

package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryEntry struct {
	attrs     Attrs
	expiresAt time.Time
}

// Memory is a mutex-guarded in-process store for dev and tests.
// Expiry is enforced lazily on Get.
type Memory struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

// NewMemory creates a store issuing sessions with the given fixed lifetime.
func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		ttl:     ttl,
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// Create issues a new opaque token bound to the username.
func (m *Memory) Create(_ context.Context, username string) (Grant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := uuid.NewString()
	exp := m.now().Add(m.ttl)
	m.entries[token] = memoryEntry{attrs: Attrs{Username: username}, expiresAt: exp}
	return Grant{Token: token, Username: username, ExpiresAt: exp}, nil
}

// Get returns the attributes for a live token, nil when unknown or expired.
func (m *Memory) Get(_ context.Context, token string) (*Attrs, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[token]
	if !ok {
		return nil, nil
	}
	if !m.now().Before(entry.expiresAt) {
		delete(m.entries, token)
		return nil, nil
	}
	attrs := entry.attrs
	return &attrs, nil
}

// Rebind swaps the username held by a live session, keeping its expiry.
func (m *Memory) Rebind(_ context.Context, token, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[token]
	if !ok || !m.now().Before(entry.expiresAt) {
		return nil
	}
	entry.attrs.Username = username
	m.entries[token] = entry
	return nil
}

// Destroy forgets the token. Unknown tokens are a no-op.
func (m *Memory) Destroy(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, token)
	return nil
}

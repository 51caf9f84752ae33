package cache

import (
    "context"
    "sync"
    "time"
)

// Memory is the fast tier: a single-slot in-process store with an absolute
// expiry timestamp. It holds at most one payload because this service
// exposes exactly one logical resource. Now is injectable so tests can
// drive the clock.
type Memory struct {
    Now func() time.Time

    mu        sync.RWMutex
    key       string
    payload   *Payload
    expiresAt time.Time
}

func NewMemory() *Memory {
    return &Memory{Now: time.Now}
}

func (m *Memory) Name() string { return "memory" }

// Get returns the slot when the key matches. Expired entries are still
// returned: an expired in-progress payload is the resumption base for the
// next batch, and the resolver decides what "expired" means.
func (m *Memory) Get(_ context.Context, key string) (*Payload, bool, error) {
    m.mu.RLock()
    defer m.mu.RUnlock()
    if m.payload == nil || m.key != key { return nil, false, nil }
    return m.payload, true, nil
}

// Put replaces the slot. The previous payload is dropped whatever its key.
func (m *Memory) Put(_ context.Context, key string, p *Payload, ttl time.Duration) error {
    m.mu.Lock()
    defer m.mu.Unlock()
    m.key = key
    m.payload = p
    m.expiresAt = m.Now().Add(ttl)
    return nil
}

// ExpiresAt exposes the slot's absolute expiry for inspection.
func (m *Memory) ExpiresAt() time.Time {
    m.mu.RLock()
    defer m.mu.RUnlock()
    return m.expiresAt
}

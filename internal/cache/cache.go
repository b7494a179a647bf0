// Package cache persists in-progress carts between requests, keyed by
// kiosk session id. The redis-backed implementation survives server
// restarts; the in-memory one is the fallback for single-node setups.
package cache

import (
	"context"
	"sync"
	"time"

	"minibar/backend/internal/domain"
)

type CartCache interface {
	// Get returns the stored snapshot and whether one existed.
	Get(ctx context.Context, sessionID string) (*domain.CartSnapshot, bool, error)
	Set(ctx context.Context, sessionID string, snap domain.CartSnapshot, ttl time.Duration) error
	Delete(ctx context.Context, sessionID string) error
}

type memoryEntry struct {
	snap      domain.CartSnapshot
	expiresAt time.Time
}

// Memory is a process-local CartCache with lazy expiry.
type Memory struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]memoryEntry)}
}

func (m *Memory) Get(_ context.Context, sessionID string) (*domain.CartSnapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.entries[sessionID]
	if !ok {
		return nil, false, nil
	}
	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		delete(m.entries, sessionID)
		return nil, false, nil
	}
	snap := entry.snap
	return &snap, true, nil
}

func (m *Memory) Set(_ context.Context, sessionID string, snap domain.CartSnapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{snap: snap}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}
	m.entries[sessionID] = entry
	return nil
}

func (m *Memory) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

package store

import (
	"context"
	"sync"

	"github.com/voyagen/drtvfeed/internal/models"
)

// maxMemoryHistory caps per-entity history kept by Memory.
const maxMemoryHistory = 100

// Memory is an in-process StateStore. It is the default when no database is configured.
type Memory struct {
	mu      sync.RWMutex
	latest  map[string]models.Snapshot
	history map[string][]models.Snapshot // oldest first
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{
		latest:  make(map[string]models.Snapshot),
		history: make(map[string][]models.Snapshot),
	}
}

// Publish implements StateStore.Publish.
func (m *Memory) Publish(_ context.Context, snap models.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latest[snap.EntityID] = snap
	h := append(m.history[snap.EntityID], snap)
	if len(h) > maxMemoryHistory {
		h = h[len(h)-maxMemoryHistory:]
	}
	m.history[snap.EntityID] = h
	return nil
}

// Latest implements StateStore.Latest.
func (m *Memory) Latest(_ context.Context, entityID string) (*models.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.latest[entityID]
	if !ok {
		return nil, ErrNotFound
	}
	return &snap, nil
}

// History implements StateStore.History.
func (m *Memory) History(_ context.Context, entityID string, limit int) ([]models.Snapshot, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	h := m.history[entityID]
	out := make([]models.Snapshot, 0, min(limit, len(h)))
	for i := len(h) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, h[i])
	}
	return out, nil
}

package session

import (
	"context"
	"hash/fnv"
	"sync"

	"github.com/Conceptual-Machines/gyanguru-api/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultCacheSize is the number of profiles kept in memory when no capacity is configured
	DefaultCacheSize = 1024

	lockStripes = 64
)

// Manager keeps the most recently used profile states in memory and reloads the rest from
// storage on demand. Every mutation writes through, so an evicted state loses nothing.
type Manager struct {
	store storage.Store
	mu    sync.Mutex
	cache *lru.Cache[string, *State]

	// States of one profile share a lock, even when an evicted instance is still in use.
	locks [lockStripes]sync.Mutex
}

// NewManager creates a manager backed by store that caches up to capacity profiles.
// A non-positive capacity falls back to DefaultCacheSize.
func NewManager(store storage.Store, capacity int) *Manager {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	// lru.New only fails for a non-positive size
	cache, _ := lru.New[string, *State](capacity)
	return &Manager{
		store: store,
		cache: cache,
	}
}

// State returns the state of profileID, loading it from storage when it is not cached
func (m *Manager) State(ctx context.Context, profileID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if state, ok := m.cache.Get(profileID); ok {
		return state, nil
	}

	state, err := Load(ctx, m.store, profileID)
	if err != nil {
		return nil, err
	}
	state.mu = m.lockFor(profileID)
	m.cache.Add(profileID, state)
	return state, nil
}

// Cached reports how many profile states are held in memory
func (m *Manager) Cached() int {
	return m.cache.Len()
}

func (m *Manager) lockFor(profileID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(profileID))
	return &m.locks[h.Sum32()%lockStripes]
}

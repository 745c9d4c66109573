package studio

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// Sessions maps session ids to their stores. Idle sessions expire after the TTL;
// nothing is persisted.
type Sessions struct {
	mu    sync.Mutex
	items *cache.Cache
	ttl   time.Duration
}

// NewSessions creates a registry whose sessions expire after ttl without access
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		items: cache.New(ttl, ttl),
		ttl:   ttl,
	}
}

// Get returns the store for id and refreshes its expiry
func (s *Sessions) Get(id string) (*Store, bool) {
	if id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(id)
}

// Resolve returns the store for id, creating a new session when id is empty or unknown.
// The returned id is the one the caller should remember.
func (s *Sessions) Resolve(id string) (string, *Store) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id != "" {
		if store, ok := s.get(id); ok {
			return id, store
		}
	}

	id = uuid.NewString()
	store := NewStore()
	s.items.Set(id, store, s.ttl)
	return id, store
}

// Delete drops a session
func (s *Sessions) Delete(id string) {
	s.items.Delete(id)
}

// Len returns the number of live sessions
func (s *Sessions) Len() int {
	return s.items.ItemCount()
}

func (s *Sessions) get(id string) (*Store, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	store := v.(*Store)
	s.items.Set(id, store, s.ttl)
	return store, true
}

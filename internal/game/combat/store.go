package combat

import (
	"context"
	"fmt"
	"sync"
)

// Store owns live sessions keyed by id. Every Put replaces the stored copy;
// sessions handed out by Get are independent of the stored value.
type Store interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-process Store. All methods are safe for concurrent use.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewMemoryStore creates an empty MemoryStore.
//
// Postcondition: Returns a non-nil MemoryStore ready for use.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

// Put stores a copy of s under s.ID.
//
// Precondition: s must be non-nil with a non-empty ID.
func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: session id is required", ErrPreconditionFailed)
	}
	cp := s.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = cp
	return nil
}

// Get returns a copy of the session stored under id.
//
// Postcondition: Returns ErrSessionNotFound if id is unknown.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %q: %w", id, ErrSessionNotFound)
	}
	return s.Clone(), nil
}

// Delete removes the session stored under id. Deleting an unknown id is a no-op.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

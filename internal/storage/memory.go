// Package storage provides persistence for recipes, history, learned
// profiles, live dialogue sessions and the turn log.
package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/hammamikhairi/souschef/internal/domain"
	"github.com/hammamikhairi/souschef/internal/logger"
)

// Compile-time interface check.
var _ domain.SessionStore = (*MemoryStore)(nil)

// MemoryStore keeps live dialogue sessions in memory. It stores the
// pointer it is given, so a session is owned by whoever is running a turn
// on it. The ended flag is captured on Save; ListActive never reads a
// session that may be mid-turn.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memEntry
	log      *logger.Logger
}

type memEntry struct {
	session *domain.Session
	ended   bool
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore(log *logger.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memEntry),
		log:      log,
	}
}

// Save stores a session. Overwrites if it already exists.
func (s *MemoryStore) Save(ctx context.Context, session *domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.log.Debug("saving session %s (recipe=%q, state=%s)", session.ID, session.Recipe.RecipeName, session.Recipe.Outcome())
	s.sessions[session.ID] = &memEntry{session: session, ended: session.Recipe.Ended()}
	return nil
}

// Load retrieves a session by ID.
func (s *MemoryStore) Load(ctx context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.sessions[id]
	if !ok {
		s.log.Debug("session not found: %s", id)
		return nil, domain.ErrNotFound
	}
	return e.session, nil
}

// Delete removes a session by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sessions, id)
	s.log.Debug("deleted session %s", id)
	return nil
}

// ListActive returns the sessions that had not ended when last saved,
// oldest first.
func (s *MemoryStore) ListActive(ctx context.Context) ([]*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Session
	for _, e := range s.sessions {
		if !e.ended {
			out = append(out, e.session)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartedAt.Equal(out[j].StartedAt) {
			return out[i].StartedAt.Before(out[j].StartedAt)
		}
		return out[i].ID < out[j].ID
	})
	s.log.Debug("listing active sessions, count=%d", len(out))
	return out, nil
}

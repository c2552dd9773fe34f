package store

import (
	"context"
	"strings"
	"time"

	"github.com/smallbiznis/fiberdesk/internal/cache"
	"github.com/smallbiznis/fiberdesk/internal/wizard/domain"
)

// MemoryStore keeps sessions in process. Sessions are lost on restart.
type MemoryStore struct {
	sessions cache.Cache[string, domain.Session]
	closed   cache.Cache[string, struct{}]
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: cache.NewTTLCache[string, domain.Session](),
		closed:   cache.NewTTLCache[string, struct{}](),
	}
}

func (s *MemoryStore) Get(_ context.Context, id string) (domain.Session, error) {
	session, ok := s.sessions.Get(strings.TrimSpace(id))
	if !ok {
		return domain.Session{}, domain.ErrSessionNotFound
	}
	return session.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, session domain.Session, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" {
		return domain.ErrInvalidSession
	}
	s.sessions.Set(session.ID, session.Clone(), ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.sessions.Delete(strings.TrimSpace(id))
	return nil
}

func (s *MemoryStore) MarkClosed(_ context.Context, id string, ttl time.Duration) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrInvalidSession
	}
	s.closed.Set(id, struct{}{}, ttl)
	return nil
}

func (s *MemoryStore) IsClosed(_ context.Context, id string) (bool, error) {
	_, ok := s.closed.Get(strings.TrimSpace(id))
	return ok, nil
}

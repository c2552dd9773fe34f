package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/fiberdesk/internal/wizard/domain"
)

const (
	keySession = "fiberdesk:wizard:session:%s"
	keyClosed  = "fiberdesk:wizard:closed:%s"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RedisStore shares sessions between instances.
type RedisStore struct {
	client redis.UniversalClient
}

func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, id string) (domain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Session{}, domain.ErrSessionNotFound
	}

	raw, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Session{}, domain.ErrSessionNotFound
		}
		return domain.Session{}, err
	}

	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}
	return session, nil
}

func (s *RedisStore) Save(ctx context.Context, session domain.Session, ttl time.Duration) error {
	if strings.TrimSpace(session.ID) == "" {
		return domain.ErrInvalidSession
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", session.ID, err)
	}
	return s.client.Set(ctx, sessionKey(session.ID), raw, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	return s.client.Del(ctx, sessionKey(id)).Err()
}

func (s *RedisStore) MarkClosed(ctx context.Context, id string, ttl time.Duration) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.ErrInvalidSession
	}
	return s.client.Set(ctx, closedKey(id), 1, ttl).Err()
}

func (s *RedisStore) IsClosed(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}
	n, err := s.client.Exists(ctx, closedKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func closedKey(id string) string {
	return fmt.Sprintf(keyClosed, id)
}

func sessionKey(id string) string {
	return fmt.Sprintf(keySession, id)
}

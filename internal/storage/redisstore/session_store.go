// Package redisstore provides a Redis-backed combat session store. Sessions
// survive a restart of the service and abandoned sessions expire after a TTL.
//
// Requests for one session are serialised only inside a single process. When
// several instances share a store, the caller must route every request for a
// given session id to the same instance; the store does no cross-process
// locking.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cory-johannsen/mudcombat/internal/config"
	"github.com/cory-johannsen/mudcombat/internal/game/combat"
)

// SessionStore implements combat.Store on Redis. Sessions are stored as JSON
// under KeyPrefix+id and expire after the configured TTL unless written again.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

var _ combat.Store = (*SessionStore)(nil)

// NewClient creates a go-redis client from cfg and verifies connectivity.
//
// Precondition: cfg.Addr must be a "host:port" address.
// Postcondition: Returns a client that answered PING, or a non-nil error.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}

// NewSessionStore wraps client. A ttl of zero stores sessions without expiry.
//
// Precondition: client must be non-nil; ttl >= 0.
func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *SessionStore) key(id string) string {
	return s.prefix + id
}

// Put writes s and refreshes its expiry.
//
// Precondition: s must be non-nil with a non-empty ID.
func (s *SessionStore) Put(ctx context.Context, sess *combat.Session) error {
	if sess == nil || sess.ID == "" {
		return fmt.Errorf("%w: session id is required", combat.ErrPreconditionFailed)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshaling session %q: %w", sess.ID, err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing session %q: %w", sess.ID, err)
	}
	return nil
}

// Get loads the session stored under id.
//
// Postcondition: Returns an error wrapping combat.ErrSessionNotFound when the
// key is absent or expired.
func (s *SessionStore) Get(ctx context.Context, id string) (*combat.Session, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("session %q: %w", id, combat.ErrSessionNotFound)
		}
		return nil, fmt.Errorf("loading session %q: %w", id, err)
	}
	var sess combat.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshaling session %q: %w", id, err)
	}
	return &sess, nil
}

// Delete removes the session stored under id. Deleting an unknown id is a no-op.
func (s *SessionStore) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("deleting session %q: %w", id, err)
	}
	return nil
}

// Ping reports whether Redis is reachable.
func (s *SessionStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

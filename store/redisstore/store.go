// Package redisstore adapts a Redis client to the PersistentStore contract
// for kiosk and CLI storefront frontends, where "origin-scoped storage" is a
// per-terminal Redis database instead of browser local storage.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level Redis failure.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Store is a PersistentStore over a Redis client. Keys are namespaced by
// prefix; values optionally carry a TTL so an abandoned terminal session
// ages out server-side.
type Store struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
	ctx    context.Context
}

// Option configures a Store.
type Option func(*Store)

// WithTTL ages values out after d. Zero keeps them indefinitely.
func WithTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithPrefix namespaces every key. Default "gosession-kv:".
func WithPrefix(prefix string) Option {
	return func(s *Store) { s.prefix = prefix }
}

// New creates a Store over client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		redis:  client,
		prefix: "gosession-kv:",
		ctx:    context.Background(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(key string) string {
	return s.prefix + key
}

// Get implements the PersistentStore contract. A missing key is reported
// through the boolean, not an error.
func (s *Store) Get(key string) (string, bool, error) {
	v, err := s.redis.Get(s.ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, true, nil
}

// Set implements the PersistentStore contract.
func (s *Store) Set(key, value string) error {
	if err := s.redis.Set(s.ctx, s.key(key), value, s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Remove implements the PersistentStore contract. Removing a missing key is
// not an error.
func (s *Store) Remove(key string) error {
	if err := s.redis.Del(s.ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

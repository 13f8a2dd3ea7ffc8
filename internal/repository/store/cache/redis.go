// Package cache decorates an entity store with a Redis read-through cache.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"neom/internal/repository"
	"neom/pkg/ddd"
	"neom/pkg/platform/circuit"
)

const defaultPrefix = "neom:entity:"

var errCircuitOpen = errors.New("entity cache circuit open")

// RedisStore serves Find from Redis when possible and writes through on Save.
// Redis failures are logged and the wrapped store is used instead; after
// repeated failures a circuit breaker stops calling Redis until a probe
// succeeds. Keys whose Save or Delete could not reach Redis are marked stale
// and bypass the cache until they are rewritten or evicted, so documents cached
// before an outage are not served after it.
type RedisStore struct {
	next    repository.Store
	client  redis.Cmdable
	ttl     time.Duration
	prefix  string
	breaker *circuit.Breaker
	logger  *slog.Logger

	mu    sync.Mutex
	stale map[string]struct{}
}

type Option func(*RedisStore)

func WithLogger(logger *slog.Logger) Option {
	return func(s *RedisStore) { s.logger = logger }
}

// WithPrefix sets the key prefix; the default is "neom:entity:".
func WithPrefix(prefix string) Option {
	return func(s *RedisStore) { s.prefix = prefix }
}

// WithBreaker replaces the default circuit breaker.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *RedisStore) { s.breaker = b }
}

// NewRedis wraps next. Cached documents expire after ttl.
func NewRedis(next repository.Store, client redis.Cmdable, ttl time.Duration, opts ...Option) *RedisStore {
	s := &RedisStore{next: next, client: client, ttl: ttl, prefix: defaultPrefix, stale: make(map[string]struct{})}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.breaker == nil {
		s.breaker = circuit.New("entity-cache")
	}
	return s
}

func (s *RedisStore) Save(ctx context.Context, e *ddd.Instance) error {
	if err := s.next.Save(ctx, e); err != nil {
		return err
	}
	id, err := e.Identity()
	if err != nil {
		return err
	}
	key, err := s.key(e.Schema(), id)
	if err != nil {
		return err
	}
	doc, err := repository.Encode(e)
	if err != nil {
		return err
	}
	s.write(ctx, key, doc, "entity cache write failed")
	return nil
}

func (s *RedisStore) Find(ctx context.Context, schema *ddd.Schema, identity any) (*ddd.Instance, error) {
	key, err := s.key(schema, identity)
	if err != nil {
		return nil, err
	}

	var doc []byte
	if s.isStale(key) {
		err = redis.Nil
	} else {
		err = s.guard(ctx, func() (err error) {
			doc, err = s.client.Get(ctx, key).Bytes()
			return err
		})
	}
	switch {
	case err == nil:
		e, decodeErr := repository.Decode(schema, doc)
		if decodeErr == nil {
			return e, nil
		}
		s.logger.WarnContext(ctx, "discarding undecodable cache entry", "key", key, "error", decodeErr)
		s.evict(ctx, key)
	case errors.Is(err, redis.Nil), errors.Is(err, errCircuitOpen):
	default:
		s.logger.WarnContext(ctx, "entity cache read failed", "key", key, "error", err)
	}

	e, err := s.next.Find(ctx, schema, identity)
	if err != nil {
		return nil, err
	}
	if doc, err := repository.Encode(e); err == nil {
		s.write(ctx, key, doc, "entity cache fill failed")
	}
	return e, nil
}

func (s *RedisStore) Delete(ctx context.Context, schema *ddd.Schema, identity any) error {
	key, err := s.key(schema, identity)
	if err != nil {
		return err
	}
	s.evict(ctx, key)
	return s.next.Delete(ctx, schema, identity)
}

func (s *RedisStore) Count(ctx context.Context, schema *ddd.Schema) (int, error) {
	return s.next.Count(ctx, schema)
}

func (s *RedisStore) key(schema *ddd.Schema, identity any) (string, error) {
	id, err := repository.IdentityKey(identity)
	if err != nil {
		return "", err
	}
	return s.prefix + schema.Name() + ":" + id, nil
}

// write caches doc under key. A failed write falls back to evicting key.
func (s *RedisStore) write(ctx context.Context, key string, doc []byte, msg string) {
	err := s.guard(ctx, func() error { return s.client.Set(ctx, key, doc, s.ttl).Err() })
	if err == nil {
		s.setStale(key, false)
		return
	}
	if !errors.Is(err, errCircuitOpen) {
		s.logger.WarnContext(ctx, msg, "key", key, "error", err)
	}
	s.evict(ctx, key)
}

// evict removes key, or marks it stale when Redis cannot be reached.
func (s *RedisStore) evict(ctx context.Context, key string) {
	err := s.guard(ctx, func() error { return s.client.Del(ctx, key).Err() })
	if err == nil {
		s.setStale(key, false)
		return
	}
	if !errors.Is(err, errCircuitOpen) {
		s.logger.WarnContext(ctx, "entity cache evict failed", "key", key, "error", err)
	}
	s.setStale(key, true)
}

func (s *RedisStore) setStale(key string, stale bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if stale {
		s.stale[key] = struct{}{}
	} else {
		delete(s.stale, key)
	}
}

func (s *RedisStore) isStale(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.stale[key]
	return ok
}

// guard runs fn unless the breaker is open. redis.Nil is a successful call.
func (s *RedisStore) guard(ctx context.Context, fn func() error) error {
	if !s.breaker.Allow() {
		return errCircuitOpen
	}
	err := fn()
	if err != nil && !errors.Is(err, redis.Nil) {
		if _, change := s.breaker.RecordFailure(); change.Opened {
			s.logger.WarnContext(ctx, "entity cache circuit opened", "breaker", s.breaker.Name(), "error", err)
		}
		return err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "entity cache circuit closed", "breaker", s.breaker.Name())
	}
	return err
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"vigil/core"
	"vigil/metrics"
)

const (
	redisKeyPrefix   = "catalog:"
	redisIndexPrefix = "catalog:index:"

	// defaultRedisTimeout bounds each store call. The catalog itself
	// exposes no cancellation; a slow store call blocks the caller.
	defaultRedisTimeout = 5 * time.Second
)

// RedisStore persists catalog content in Redis: one string key per item
// plus a per-type set indexing the names under each content type.
type RedisStore struct {
	client  *redis.Client
	timeout time.Duration
	logger  *zap.SugaredLogger
}

// NewRedisStore creates a catalog store over a Redis connection.
func NewRedisStore(addr, password string, db, poolSize int, logger *zap.SugaredLogger) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
	return &RedisStore{client: client, timeout: defaultRedisTimeout, logger: logger}
}

// Ping tests the Redis connection.
func (s *RedisStore) Ping() error {
	ctx, cancel := s.opContext()
	defer cancel()
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

func contentKey(name core.Name) string {
	return redisKeyPrefix + name.String()
}

func indexKey(t string) string {
	return redisIndexPrefix + t
}

// Get retrieves the document stored under name, or ErrNotFound.
func (s *RedisStore) Get(name core.Name) (*core.Document, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	data, err := s.client.Get(ctx, contentKey(name)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err != nil {
		metrics.StoreErrors.WithLabelValues("redis", "get").Inc()
		return nil, fmt.Errorf("failed to get content: %w", err)
	}
	doc, err := core.DocumentFromJSON(data)
	if err != nil {
		return nil, fmt.Errorf("stored content for '%s' is corrupt: %w", name, err)
	}
	return doc, nil
}

// Add inserts a new document under name, or ErrAlreadyExists.
func (s *RedisStore) Add(name core.Name, doc *core.Document) error {
	content, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize content: %w", err)
	}

	ctx, cancel := s.opContext()
	defer cancel()

	set, err := s.client.SetNX(ctx, contentKey(name), content, 0).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("redis", "add").Inc()
		return fmt.Errorf("failed to set content: %w", err)
	}
	if !set {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	if err := s.client.SAdd(ctx, indexKey(name.Part(0)), name.String()).Err(); err != nil {
		metrics.StoreErrors.WithLabelValues("redis", "add").Inc()
		return fmt.Errorf("failed to index content: %w", err)
	}
	return nil
}

// Update replaces the document under name, or ErrNotFound.
func (s *RedisStore) Update(name core.Name, doc *core.Document) error {
	content, err := doc.JSON()
	if err != nil {
		return fmt.Errorf("failed to serialize content: %w", err)
	}

	ctx, cancel := s.opContext()
	defer cancel()

	// SET XX: only overwrite an existing key.
	set, err := s.client.SetXX(ctx, contentKey(name), content, 0).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("redis", "update").Inc()
		return fmt.Errorf("failed to update content: %w", err)
	}
	if !set {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}

// Delete removes the document under name, or ErrNotFound.
func (s *RedisStore) Delete(name core.Name) error {
	ctx, cancel := s.opContext()
	defer cancel()

	deleted, err := s.client.Del(ctx, contentKey(name)).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("redis", "delete").Inc()
		return fmt.Errorf("failed to delete content: %w", err)
	}
	if deleted == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := s.client.SRem(ctx, indexKey(name.Part(0)), name.String()).Err(); err != nil {
		s.logger.Warnf("redis store: failed to unindex '%s': %v", name, err)
	}
	return nil
}

// List enumerates every item name under a content type, sorted by name.
func (s *RedisStore) List(t core.Type) ([]core.Name, error) {
	ctx, cancel := s.opContext()
	defer cancel()

	members, err := s.client.SMembers(ctx, indexKey(t.String())).Result()
	if err != nil {
		metrics.StoreErrors.WithLabelValues("redis", "list").Inc()
		return nil, fmt.Errorf("failed to list names: %w", err)
	}
	sort.Strings(members)

	var names []core.Name
	for _, raw := range members {
		name, err := core.NewName(raw)
		if err != nil {
			s.logger.Warnf("redis store: skipping malformed indexed name %q: %v", raw, err)
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

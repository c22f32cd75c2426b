package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pruebaingsoft/todos-service/internal/metrics"
)

// DefaultTTL applies when a caller does not specify an expiry.
const DefaultTTL = 5 * time.Minute

// Client is the subset of redis commands the cache depends on. *redis.Client
// satisfies it; tests supply fakes built from redis.NewStringResult and
// friends.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	SetEx(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Store is a best-effort key/value facade over a remote cache backend. The
// cache is a performance optimization, not a correctness dependency: a backend
// error on Get resolves to a miss and errors on Set/Del are swallowed after
// logging, so cache unavailability degrades to "always miss" and never fails
// a request.
type Store struct {
	client    Client
	logger    *slog.Logger
	collector *metrics.Collector
}

func NewStore(client Client, logger *slog.Logger, collector *metrics.Collector) *Store {
	return &Store{
		client:    client,
		logger:    logger,
		collector: collector,
	}
}

// Key derives the cache key for a tenant's collection.
func Key(tenantID string) string {
	return "todos:user:" + tenantID
}

// Get returns the raw cached value for key, reporting whether it was found.
// Backend errors resolve to a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool) {
	value, err := s.client.Get(ctx, key).Bytes()

	switch {
	case errors.Is(err, redis.Nil):
		s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheMiss})
		return nil, false
	case err != nil:
		s.logger.Warn("cache get failed, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheError})
		return nil, false
	}

	s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheHit})

	return value, true
}

// GetJSON unmarshals the cached value for key into dest. A value that fails
// to deserialize is treated as a miss.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) bool {
	value, ok := s.Get(ctx, key)
	if !ok {
		return false
	}

	if err := json.Unmarshal(value, dest); err != nil {
		s.logger.Warn("malformed cached value, treating as miss",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return false
	}

	return true
}

// Set stores value under key with the given TTL (DefaultTTL when ttl <= 0).
// Fire and forget: failures are logged and the caller proceeds as if the
// write succeeded.
func (s *Store) Set(ctx context.Context, key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	payload, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("cache set skipped, value not serializable",
			slog.String("key", key),
			slog.String("error", err.Error()))
		return
	}

	if err := s.client.SetEx(ctx, key, payload, ttl).Err(); err != nil {
		s.logger.Warn("cache set failed",
			slog.String("key", key),
			slog.String("error", err.Error()))
		s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheError})
	}
}

// Del removes key from the cache. It reports whether the invalidation is
// known to have reached the backend; a false return means a stale snapshot
// may be served until its TTL expires. The error itself is never surfaced.
func (s *Store) Del(ctx context.Context, key string) bool {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("cache invalidation failed, stale entry remains until TTL expiry",
			slog.String("key", key),
			slog.String("error", err.Error()))
		s.collector.Emit(metrics.MetricEvent{Type: metrics.EventCacheError})
		return false
	}

	return true
}

package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/geocoder89/avajson/internal/cache"
	"github.com/geocoder89/avajson/internal/domain/user"
	"github.com/geocoder89/avajson/internal/redisclient"
)

// Cache holds a decoded registry for a bounded time.
type Cache interface {
	Name() string
	Get(ctx context.Context, key string) (user.Registry, bool, error)
	Set(ctx context.Context, key string, reg user.Registry) error
}

type CacheObserver interface {
	ObserveCache(backend, result string)
}

type nopCacheObserver struct{}

func (nopCacheObserver) ObserveCache(string, string) {}

// CachedStore serves the registry from cache for up to the cache TTL, so a
// manual edit of the file is visible after at most that long. Cache failures
// fall through to the underlying loader.
type CachedStore struct {
	next  Loader
	cache Cache
	key   string
	log   *slog.Logger
	obs   CacheObserver
}

func NewCachedStore(next Loader, c Cache, key string, log *slog.Logger, obs CacheObserver) *CachedStore {
	if log == nil {
		log = slog.Default()
	}
	if obs == nil {
		obs = nopCacheObserver{}
	}

	return &CachedStore{next: next, cache: c, key: key, log: log, obs: obs}
}

func (s *CachedStore) Load(ctx context.Context) (user.Registry, error) {
	reg, ok, err := s.cache.Get(ctx, s.key)
	switch {
	case err != nil:
		s.obs.ObserveCache(s.cache.Name(), "error")
		s.log.WarnContext(ctx, "registry cache get failed", "backend", s.cache.Name(), "err", err)
	case ok:
		s.obs.ObserveCache(s.cache.Name(), "hit")
		return reg, nil
	default:
		s.obs.ObserveCache(s.cache.Name(), "miss")
	}

	reg, err = s.next.Load(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, s.key, reg); err != nil {
		s.log.WarnContext(ctx, "registry cache set failed", "backend", s.cache.Name(), "err", err)
	}

	return reg, nil
}

// CacheKey namespaces the cached registry by its absolute path so replicas
// reading different files never share an entry.
func CacheKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	return "avajson:registry:v1:path=" + path
}

// MemoryCache keeps the registry in process.
type MemoryCache struct {
	c *cache.Cache[user.Registry]
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: cache.New[user.Registry](ttl)}
}

func (m *MemoryCache) Name() string { return "memory" }

func (m *MemoryCache) Get(_ context.Context, key string) (user.Registry, bool, error) {
	reg, ok := m.c.Get(key)
	return reg, ok, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, reg user.Registry) error {
	m.c.Set(key, reg)
	return nil
}

type redisBackend interface {
	GetBytes(ctx context.Context, key string) ([]byte, error)
	SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache shares one cached registry across replicas.
type RedisCache struct {
	client redisBackend
	ttl    time.Duration
}

func NewRedisCache(client redisBackend, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Name() string { return "redis" }

func (r *RedisCache) Get(ctx context.Context, key string) (user.Registry, bool, error) {
	b, err := r.client.GetBytes(ctx, key)
	if errors.Is(err, redisclient.ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	reg, err := Parse(b)
	if err != nil {
		return nil, false, fmt.Errorf("decode cached registry: %w", err)
	}

	return reg, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, reg user.Registry) error {
	b, err := Encode(reg)
	if err != nil {
		return err
	}

	return r.client.SetBytes(ctx, key, b, r.ttl)
}

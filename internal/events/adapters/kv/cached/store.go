package cached

import (
	"context"
	"sync"
	"time"

	"landing-analytics/internal/config"
	"landing-analytics/internal/events/core/ports"

	"github.com/dgraph-io/ristretto"
)

// Store is a write-through read cache in front of another KVStore. The JSON
// collections are re-read on every click, so caching them saves a round trip
// to sqlite or redis.
//
// Every cache mutation happens under mu. Writers bump the key's generation
// before and after touching the backing store; a miss only fills the cache
// when the generation it started with is still current, so a slow read can
// never overwrite a newer write or bring back a removed key.
type Store struct {
	next  ports.KVStore
	cache *ristretto.Cache
	ttl   time.Duration

	mu  sync.Mutex
	gen map[string]uint64
}

var _ ports.KVStore = (*Store)(nil)

func New(next ports.KVStore, cfg config.CacheConfig) (*Store, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: int64(cfg.CounterSize),
		MaxCost:     int64(cfg.MaxSizeMB) * 1024 * 1024,
		BufferItems: 64,
		Metrics:     true,
	})
	if err != nil {
		return nil, err
	}

	return &Store{
		next:  next,
		cache: cache,
		ttl:   time.Duration(cfg.TTLSeconds) * time.Second,
		gen:   make(map[string]uint64),
	}, nil
}

func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(string), true, nil
	}

	s.mu.Lock()
	g := s.gen[key]
	s.mu.Unlock()

	v, ok, err := s.next.Get(ctx, key)
	if err != nil || !ok {
		return v, ok, err
	}

	s.mu.Lock()
	if s.gen[key] == g {
		s.cache.SetWithTTL(key, v, int64(len(v)), s.ttl)
	}
	s.mu.Unlock()
	return v, true, nil
}

// Set drops the cached entry before writing through, so a failed write never
// leaves a value in the cache that the backing store does not have.
func (s *Store) Set(ctx context.Context, key, value string) error {
	s.invalidate(key)
	if err := s.next.Set(ctx, key, value); err != nil {
		return err
	}

	s.mu.Lock()
	s.gen[key]++
	s.cache.SetWithTTL(key, value, int64(len(value)), s.ttl)
	s.mu.Unlock()
	s.cache.Wait()
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	s.invalidate(key)
	err := s.next.Remove(ctx, key)
	s.invalidate(key)
	return err
}

func (s *Store) invalidate(key string) {
	s.mu.Lock()
	s.gen[key]++
	s.cache.Del(key)
	s.mu.Unlock()
}

// Hits and Misses expose the cache counters for diagnostics.
func (s *Store) Hits() uint64 {
	if s.cache.Metrics == nil {
		return 0
	}
	return s.cache.Metrics.Hits()
}

func (s *Store) Misses() uint64 {
	if s.cache.Metrics == nil {
		return 0
	}
	return s.cache.Metrics.Misses()
}

func (s *Store) Close() {
	s.cache.Close()
}

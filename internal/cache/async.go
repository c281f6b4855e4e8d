package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const storeTimeout = 5 * time.Second

// AsyncStore performs cache writes off the request path. Pending writes
// are awaited with Drain during shutdown.
//
// Each key carries an invalidation generation. A write tagged with an older
// generation than the key's current one is dropped, so a value read before
// Invalidate never lands in the cache after it.
type AsyncStore struct {
	cache  Cache
	logger *zap.Logger
	wg     sync.WaitGroup

	mu          sync.RWMutex
	generations map[string]uint64
}

func NewAsyncStore(cache Cache, logger *zap.Logger) *AsyncStore {
	return &AsyncStore{cache: cache, logger: logger, generations: make(map[string]uint64)}
}

func (s *AsyncStore) Cache() Cache {
	return s.cache
}

// Generation returns the current invalidation generation of key. Take it
// before reading the data that will be passed to StoreAt.
func (s *AsyncStore) Generation(key string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.generations[key]
}

func (s *AsyncStore) Store(key string, entry Entry, ttl time.Duration) {
	s.StoreAt(key, s.Generation(key), entry, ttl)
}

// StoreAt writes entry unless key was invalidated after generation was read.
func (s *AsyncStore) StoreAt(key string, generation uint64, entry Entry, ttl time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		s.mu.RLock()
		defer s.mu.RUnlock()
		if s.generations[key] != generation {
			s.logger.Debug("dropping stale cache write", zap.String("key", key))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		if err := s.cache.Set(ctx, key, entry, ttl); err != nil {
			s.logger.Warn("cache store failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// Invalidate deletes key and advances its generation.
func (s *AsyncStore) Invalidate(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[key]++
	return s.cache.Delete(ctx, key)
}

// Drain blocks until pending writes finish or ctx is done.
func (s *AsyncStore) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

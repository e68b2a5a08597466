package catalog

import (
	"context"
	"time"

	"github.com/joshsymonds/appquality/internal/cache"
	"github.com/joshsymonds/appquality/internal/models"
	"github.com/joshsymonds/appquality/pkg/logger"
)

// DefaultCacheTTL applies when caching is enabled without a TTL.
const DefaultCacheTTL = time.Hour

// CachedSource answers queries from a file cache before asking the wrapped
// source. Failed queries and responses missing their required section are
// never cached.
type CachedSource struct {
	next   Source
	cache  *cache.FileCache
	logger logger.Logger
	ttl    time.Duration
}

// NewCachedSource wraps next with a cache stored under dir.
func NewCachedSource(next Source, dir string, ttl time.Duration, log logger.Logger) (*CachedSource, error) {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	fc, err := cache.NewFileCacheWithLogger(dir, log)
	if err != nil {
		return nil, newFetchError(next.Name(), KindConfig, err)
	}
	return &CachedSource{next: next, cache: fc, logger: log, ttl: ttl}, nil
}

// Name implements Source.
func (s *CachedSource) Name() string { return s.next.Name() }

// Query implements Source.
func (s *CachedSource) Query(ctx context.Context, q Query) (*models.Payload, error) {
	key := cache.Key(s.next.Name(), string(q.Kind), q.Text)

	payload, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Catalog cache read failed", "kind", q.Kind, "error", err)
	}
	if payload != nil && q.CheckComplete(payload) == nil {
		s.logger.Debug("Catalog cache hit", "kind", q.Kind)
		return payload, nil
	}

	payload, err = s.next.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if err := q.CheckComplete(payload); err != nil {
		s.logger.Debug("Not caching incomplete response", "kind", q.Kind, "error", err)
		return payload, nil
	}
	if err := s.cache.Set(ctx, key, payload, s.ttl); err != nil {
		s.logger.Warn("Catalog cache write failed", "kind", q.Kind, "error", err)
	}
	return payload, nil
}

// Stats returns the underlying cache statistics.
func (s *CachedSource) Stats(ctx context.Context) (*cache.Stats, error) {
	return s.cache.Stats(ctx)
}

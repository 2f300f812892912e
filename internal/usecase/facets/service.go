// Package facets serves facet counts for a filter context: fetch the matching
// records, aggregate, and cache the result briefly so bursts of identical
// filter contexts hit the datastore once.
package facets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain/search/facet"
	"github.com/encounterhq/discovery/internal/repository/facetcache"
)

// DefaultFetchLimit bounds the record set counted per request.
const DefaultFetchLimit = 1000

// callTimeout caps the cache lookup, record fetch, and cache write.
const callTimeout = 10 * time.Second

// Service computes cached facet counts.
type Service struct {
	records    RecordReader
	cache      Cache
	fetchLimit int
	now        func() time.Time
	logger     *zap.Logger
}

// New creates a facets service. A non-positive fetchLimit uses DefaultFetchLimit.
func New(records RecordReader, cache Cache, fetchLimit int, logger *zap.Logger) *Service {
	if fetchLimit <= 0 {
		fetchLimit = DefaultFetchLimit
	}
	return &Service{
		records:    records,
		cache:      cache,
		fetchLimit: fetchLimit,
		now:        time.Now,
		logger:     logger,
	}
}

// Counts returns the facet breakdown for the filter context, from cache when
// fresh. Cache write failures are logged and ignored; counts are served either
// way.
func (s *Service) Counts(ctx context.Context, filter db.Filter) (facet.Counts, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	key := facetcache.Key(filter)
	if counts, ok := s.cache.Get(ctx, key); ok {
		return counts, nil
	}

	records, err := s.records.ListFiltered(ctx, filter, s.fetchLimit)
	if err != nil {
		return facet.Counts{}, fmt.Errorf("fetch facet records: %w", err)
	}

	counts := facet.Aggregate(records, s.now())

	if err := s.cache.Set(ctx, key, counts); err != nil {
		s.logger.Warn("facet cache write failed", zap.Error(err))
	}
	return counts, nil
}

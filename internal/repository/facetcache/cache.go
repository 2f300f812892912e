// Package facetcache caches computed facet counts for a short TTL so repeated
// identical filter contexts skip the datastore fetch.
package facetcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain/search/facet"
)

const keyPrefix = "discovery:facets:"

// DefaultTTL bounds facet staleness; counts are cheap to recompute.
const DefaultTTL = 30 * time.Second

// store is the consumer interface for the cache backend (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache stores facet counts keyed by a hash of the filter context.
type Cache struct {
	store store
	ttl   time.Duration
}

// New creates a facet cache. A non-positive ttl uses DefaultTTL.
func New(s store, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{store: s, ttl: ttl}
}

// Key derives a stable cache key from the filter context.
func Key(filter db.Filter) string {
	payload, _ := json.Marshal(filter)
	sum := sha256.Sum256(payload)
	return keyPrefix + hex.EncodeToString(sum[:16])
}

// Get returns cached counts, or ok=false on miss or decode failure.
func (c *Cache) Get(ctx context.Context, key string) (facet.Counts, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		return facet.Counts{}, false
	}
	var counts facet.Counts
	if err := json.Unmarshal(data, &counts); err != nil {
		return facet.Counts{}, false
	}
	return counts, true
}

// Set stores counts under key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, counts facet.Counts) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return fmt.Errorf("encode facet counts: %w", err)
	}
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		return fmt.Errorf("store facet counts: %w", err)
	}
	return nil
}

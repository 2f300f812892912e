// Package db defines the narrow datastore facade this service consumes.
// Consumers depend on the sub-interfaces, never on the driver.
package db

import (
	"context"
	"time"
)

// Store is the database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	HashStore
	Searcher
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides key-value operations for caching and rate counters.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Incr(ctx context.Context, key string) (int64, error)
	PExpireNX(ctx context.Context, key string, ttl time.Duration) error
	PTTL(ctx context.Context, key string) (time.Duration, error)
}

// HashStore provides hash lookups for record and profile enrichment.
type HashStore interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
}

// Searcher provides ranked retrieval over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
	SearchBM25(ctx context.Context, q *TextQuery) (*SearchResult, error)
	SearchList(ctx context.Context, q *ListQuery) (*SearchResult, error)
}

// StreamStore appends entries to an event stream (analytics sink).
type StreamStore interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) error
}

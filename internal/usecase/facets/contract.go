package facets

import (
	"context"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain/experience"
	"github.com/encounterhq/discovery/internal/domain/search/facet"
)

// RecordReader fetches the filtered record set to aggregate over.
type RecordReader interface {
	ListFiltered(ctx context.Context, filter db.Filter, limit int) ([]experience.Experience, error)
}

// Cache stores computed counts for a short TTL.
type Cache interface {
	Get(ctx context.Context, key string) (facet.Counts, bool)
	Set(ctx context.Context, key string, counts facet.Counts) error
}

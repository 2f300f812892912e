package fusion

import (
	"context"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain"
	"github.com/encounterhq/discovery/internal/domain/experience"
	searchrepo "github.com/encounterhq/discovery/internal/repository/search"
)

// Repository defines the datastore contract for fused retrieval.
type Repository interface {
	FusedCandidates(
		ctx context.Context, queryText string, embedding []float32,
		filter db.Filter, topK int,
	) (searchrepo.RankedLists, error)
}

// RecordReader reads records and author profiles for enrichment.
type RecordReader interface {
	GetBatch(ctx context.Context, ids []string) ([]experience.Experience, error)
	Profiles(ctx context.Context, authorIDs []string) (map[string]experience.Profile, error)
}

// Embedder vectorizes text into embeddings.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

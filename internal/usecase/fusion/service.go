// Package fusion executes the hybrid retrieval pipeline: embed the query, pull
// the vector and lexical rankings in one parallel round trip, merge them with
// weighted Reciprocal Rank Fusion, and enrich the winners with record and
// author metadata.
package fusion

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain/experience"
	"github.com/encounterhq/discovery/internal/domain/search/result"
	"github.com/encounterhq/discovery/internal/metrics"
)

// overfetchFactor widens the per-list retrieval depth so fusion sees enough of
// both rankings before truncating to the requested limit.
const overfetchFactor = 2

// callTimeout caps the whole embed-retrieve-enrich pipeline. Expiry surfaces
// through the provider and datastore error wrapping.
const callTimeout = 10 * time.Second

// Params carries one fused search request.
type Params struct {
	// Text is the retrieval text; expansion may have widened it beyond what
	// the user typed.
	Text     string
	Category string
	Limit    int
	// VectorWeight and LexicalWeight must sum to 1.
	VectorWeight  float64
	LexicalWeight float64
}

// Outcome is the fused, enriched ranking plus the weights actually applied.
type Outcome struct {
	Candidates []result.Candidate
	// VectorWeight/LexicalWeight are the effective weights; they differ from
	// the requested ones after a lexical-only fallback.
	VectorWeight  float64
	LexicalWeight float64
	// Degraded is set when the embedding provider failed and ranking fell
	// back to lexical-only.
	Degraded bool
}

// Service fuses vector and lexical rankings into one scored list.
type Service struct {
	repo    Repository
	records RecordReader
	embed   Embedder
	rrfK    int
	logger  *zap.Logger
}

// New creates a fusion service. A non-positive rrfK uses DefaultRRFK.
func New(repo Repository, records RecordReader, embed Embedder, rrfK int, logger *zap.Logger) *Service {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	return &Service{repo: repo, records: records, embed: embed, rrfK: rrfK, logger: logger}
}

// Fuse runs the full pipeline. Embedding failure degrades to lexical-only
// ranking instead of failing the search; datastore failure is fatal.
func (s *Service) Fuse(ctx context.Context, p Params) (Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out := Outcome{
		VectorWeight:  p.VectorWeight,
		LexicalWeight: p.LexicalWeight,
	}

	var embedding []float32
	if p.VectorWeight > 0 {
		embResult, err := s.embed.Embed(ctx, p.Text)
		if err != nil {
			s.logger.Warn("embedding failed, falling back to lexical-only ranking",
				zap.Error(err))
			metrics.LexicalFallbacksTotal.Inc()
			out.VectorWeight = 0
			out.LexicalWeight = 1
			out.Degraded = true
		} else {
			embedding = embResult.Embedding
		}
	}

	lists, err := s.repo.FusedCandidates(
		ctx, p.Text, embedding,
		db.Filter{Category: p.Category},
		p.Limit*overfetchFactor,
	)
	if err != nil {
		return Outcome{}, fmt.Errorf("fused retrieval: %w", err)
	}

	out.Candidates = fuseWeighted(lists, out.VectorWeight, out.LexicalWeight, s.rrfK, p.Limit)

	if err := s.enrich(ctx, out.Candidates); err != nil {
		return Outcome{}, err
	}
	return out, nil
}

// enrich attaches record and author metadata to the ranked candidates in
// place. It never reorders: ranking is settled before enrichment starts.
func (s *Service) enrich(ctx context.Context, candidates []result.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	ids := make([]string, len(candidates))
	for i := range candidates {
		ids[i] = candidates[i].ID()
	}

	records, err := s.records.GetBatch(ctx, ids)
	if err != nil {
		return fmt.Errorf("enrich records: %w", err)
	}

	byID := make(map[string]*experience.Experience, len(records))
	authorIDs := make([]string, 0, len(records))
	for i := range records {
		rec := &records[i]
		byID[rec.ID()] = rec
		if rec.AuthorID() != "" {
			authorIDs = append(authorIDs, rec.AuthorID())
		}
	}

	profiles, err := s.records.Profiles(ctx, authorIDs)
	if err != nil {
		return fmt.Errorf("enrich profiles: %w", err)
	}

	for i := range candidates {
		rec, ok := byID[candidates[i].ID()]
		if !ok {
			continue
		}
		candidates[i].AttachRecord(rec)
		if p, ok := profiles[rec.AuthorID()]; ok {
			candidates[i].AttachAuthor(&p)
		}
	}
	return nil
}

// Package similar ranks records related to a source record by metadata
// affinity: category, tag overlap, duration, and geographic proximity. No
// embeddings involved; scoring is pure and cheap.
package similar

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain/experience"
	"github.com/encounterhq/discovery/internal/domain/search/result"
)

// Ranking defaults. Scores at or below the threshold never surface.
const (
	DefaultThreshold = 0.2
	DefaultTopN      = 5
	DefaultPoolSize  = 200
)

// callTimeout caps the source lookup and candidate pool fetches.
const callTimeout = 10 * time.Second

// Config tunes similarity ranking.
type Config struct {
	// Threshold drops candidates scoring at or below it (0 uses DefaultThreshold).
	Threshold float64
	// TopN caps the returned list (0 uses DefaultTopN).
	TopN int
	// PoolSize bounds the candidate pool fetched per request (0 uses DefaultPoolSize).
	PoolSize int
}

// Service ranks similar records.
type Service struct {
	records   RecordReader
	threshold float64
	topN      int
	poolSize  int
}

// New creates a similarity service.
func New(records RecordReader, cfg Config) *Service {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.TopN <= 0 {
		cfg.TopN = DefaultTopN
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = DefaultPoolSize
	}
	return &Service{
		records:   records,
		threshold: cfg.Threshold,
		topN:      cfg.TopN,
		poolSize:  cfg.PoolSize,
	}
}

// Rank returns up to limit records similar to sourceID, best first, each with
// its factor breakdown and match reasons. A non-positive limit uses the
// configured topN. Returns domain.ErrNotFound when the source does not exist.
func (s *Service) Rank(ctx context.Context, sourceID string, limit int) ([]result.Candidate, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	if limit <= 0 || limit > s.topN {
		limit = s.topN
	}

	source, err := s.records.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("load source record: %w", err)
	}

	pool, err := s.candidatePool(ctx, &source)
	if err != nil {
		return nil, err
	}

	candidates := make([]result.Candidate, 0, len(pool))
	for i := range pool {
		rec := &pool[i]
		if rec.ID() == sourceID {
			continue
		}
		total, factors, reasons := score(&source, rec)
		if total <= s.threshold {
			continue
		}
		candidates = append(candidates, result.NewSimilar(rec, total, factors, reasons))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score() != candidates[j].Score() {
			return candidates[i].Score() > candidates[j].Score()
		}
		return candidates[i].ID() < candidates[j].ID()
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// candidatePool fetches same-category records first and pads with recent
// records when the category slice runs short.
func (s *Service) candidatePool(ctx context.Context, source *experience.Experience) ([]experience.Experience, error) {
	var pool []experience.Experience
	seen := make(map[string]struct{})

	if source.Category() != "" {
		sameCategory, err := s.records.ListFiltered(
			ctx, db.Filter{Category: source.Category()}, s.poolSize,
		)
		if err != nil {
			return nil, fmt.Errorf("list category candidates: %w", err)
		}
		for i := range sameCategory {
			seen[sameCategory[i].ID()] = struct{}{}
		}
		pool = sameCategory
	}

	if len(pool) < s.poolSize {
		recent, err := s.records.ListFiltered(ctx, db.Filter{}, s.poolSize-len(pool))
		if err != nil {
			return nil, fmt.Errorf("list recent candidates: %w", err)
		}
		for i := range recent {
			if _, ok := seen[recent[i].ID()]; ok {
				continue
			}
			pool = append(pool, recent[i])
		}
	}
	return pool, nil
}

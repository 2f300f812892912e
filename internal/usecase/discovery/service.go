// Package discovery composes one search request end to end: classify the
// query's intent, optionally expand it, run weighted fusion, and record the
// event. Rate limiting happens upstream in transport middleware.
package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/encounterhq/discovery/internal/domain/search/intent"
	"github.com/encounterhq/discovery/internal/domain/search/query"
	"github.com/encounterhq/discovery/internal/domain/search/result"
	"github.com/encounterhq/discovery/internal/metrics"
	"github.com/encounterhq/discovery/internal/usecase/analytics"
	"github.com/encounterhq/discovery/internal/usecase/fusion"
)

// Meta describes how one search was executed.
type Meta struct {
	ExecutionTimeMs  int64
	VectorWeight     float64
	LexicalWeight    float64
	SearchType       string
	IntentConfidence float64
	Concepts         []string
	Degraded         bool
	Expanded         bool
}

// Response is one completed search.
type Response struct {
	Candidates []result.Candidate
	// Suggestions is populated only when the result set came back empty and
	// the generation provider produced alternatives.
	Suggestions []string
	Meta        Meta
}

// Service orchestrates discovery searches.
type Service struct {
	fuser    Fuser
	expander Expander
	recorder Recorder
}

// New creates a discovery service.
func New(fuser Fuser, expander Expander, recorder Recorder) *Service {
	return &Service{fuser: fuser, expander: expander, recorder: recorder}
}

// Search runs one discovery search. An explicit weight override on the query
// wins over the classifier's policy; an empty result set is a success and
// triggers best-effort suggestions.
func (s *Service) Search(ctx context.Context, q *query.Query) (Response, error) {
	start := time.Now()

	classified := intent.Classify(q.Text())

	vectorWeight := classified.VectorWeight()
	lexicalWeight := classified.LexicalWeight()
	if override := q.WeightOverride(); override != nil {
		vectorWeight = *override
		lexicalWeight = 1 - *override
	}

	searchText := q.Text()
	expanded := false
	if q.Expand() {
		expansion := s.expander.Expand(ctx, q.Text(), q.Language())
		if len(expansion.Queries) > 1 {
			searchText = strings.Join(expansion.Queries, " ")
			expanded = true
		}
	}

	outcome, err := s.fuser.Fuse(ctx, fusion.Params{
		Text:          searchText,
		Category:      q.Category(),
		Limit:         q.Limit(),
		VectorWeight:  vectorWeight,
		LexicalWeight: lexicalWeight,
	})
	if err != nil {
		return Response{}, fmt.Errorf("fuse: %w", err)
	}

	resp := Response{
		Candidates: outcome.Candidates,
		Meta: Meta{
			ExecutionTimeMs:  time.Since(start).Milliseconds(),
			VectorWeight:     outcome.VectorWeight,
			LexicalWeight:    outcome.LexicalWeight,
			SearchType:       classified.Label(),
			IntentConfidence: classified.Confidence(),
			Concepts:         classified.Concepts(),
			Degraded:         outcome.Degraded,
			Expanded:         expanded,
		},
	}

	if len(resp.Candidates) == 0 {
		resp.Suggestions = s.expander.Suggest(ctx, q.Text())
	}

	metrics.SearchesTotal.WithLabelValues(resp.Meta.SearchType).Inc()
	s.recorder.Record(analytics.Event{
		Query:         q.Text(),
		SearchType:    resp.Meta.SearchType,
		ResultCount:   len(resp.Candidates),
		DurationMs:    resp.Meta.ExecutionTimeMs,
		VectorWeight:  outcome.VectorWeight,
		LexicalWeight: outcome.LexicalWeight,
		Degraded:      outcome.Degraded,
	})

	return resp, nil
}

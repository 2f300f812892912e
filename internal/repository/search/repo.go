// Package search adapts the datastore's fused-search primitive: one parallel
// round trip producing a vector-ordered and a lexical-ordered identifier list.
package search

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain"
)

// Experience records are indexed under one FT index; keys carry the platform
// prefix so multiple services can share the datastore.
const (
	KeyPrefix = "discovery:exp:"
	IndexName = "discovery:exp:idx"
)

// store is the consumer interface for ranked retrieval (ISP).
type store interface {
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
	SearchBM25(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error)
}

// RankedLists holds the two raw identifier rankings returned by the datastore,
// best match first. Either list may be empty.
type RankedLists struct {
	Vector  []string
	Lexical []string
}

// Repo implements the fusion use case's datastore contract.
type Repo struct {
	store store
}

// New creates a search repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// FusedCandidates retrieves both rankings in one parallel round trip.
// A nil embedding skips the vector leg (lexical-only fallback).
func (r *Repo) FusedCandidates(
	ctx context.Context, queryText string, embedding []float32,
	filter db.Filter, topK int,
) (RankedLists, error) {
	var lists RankedLists

	g, gctx := errgroup.WithContext(ctx)

	if len(embedding) > 0 {
		g.Go(func() error {
			sr, err := r.store.SearchKNN(gctx, &db.KNNQuery{
				IndexName: IndexName,
				Filter:    filter,
				Vector:    embedding,
				K:         topK,
			})
			if err != nil {
				return fmt.Errorf("%w: knn: %w", domain.ErrDatastore, err)
			}
			lists.Vector = entryIDs(sr)
			return nil
		})
	}

	g.Go(func() error {
		sr, err := r.store.SearchBM25(gctx, &db.TextQuery{
			IndexName: IndexName,
			Query:     queryText,
			Filter:    filter,
			TopK:      topK,
		})
		if err != nil {
			return fmt.Errorf("%w: bm25: %w", domain.ErrDatastore, err)
		}
		lists.Lexical = entryIDs(sr)
		return nil
	})

	if err := g.Wait(); err != nil {
		return RankedLists{}, err
	}
	return lists, nil
}

func entryIDs(sr *db.SearchResult) []string {
	if sr == nil {
		return nil
	}
	ids := make([]string, 0, len(sr.Entries))
	for _, e := range sr.Entries {
		ids = append(ids, strings.TrimPrefix(e.Key, KeyPrefix))
	}
	return ids
}

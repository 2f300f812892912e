// Package query defines the validated search query value object.
package query

import (
	"fmt"
	"strings"

	"github.com/encounterhq/discovery/internal/domain"
)

// Query parameter limits.
const (
	MaxQueryLength = 2048
	DefaultLimit   = 20
	MaxLimit       = 100
)

// Query is a validated discovery search request.
type Query struct {
	text           string
	language       string
	category       string
	weightOverride *float64
	limit          int
	expand         bool
}

// New validates and normalizes search parameters.
// Defaults: limit=20. A weight override, when present, must lie in [0,1].
func New(
	text, language, category string,
	weightOverride *float64,
	limit int,
	expand bool,
) (Query, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return Query{}, fmt.Errorf("%w: query text is required", domain.ErrValidation)
	}
	if len(trimmed) > MaxQueryLength {
		return Query{}, fmt.Errorf("%w: query too long (max %d chars)", domain.ErrValidation, MaxQueryLength)
	}
	if weightOverride != nil && (*weightOverride < 0 || *weightOverride > 1) {
		return Query{}, fmt.Errorf("%w: weight override must be between 0 and 1", domain.ErrValidation)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Query{
		text:           trimmed,
		language:       language,
		category:       category,
		weightOverride: weightOverride,
		limit:          limit,
		expand:         expand,
	}, nil
}

// Text returns the trimmed query text.
func (q *Query) Text() string { return q.text }

// Language returns the declared source language ("" = undeclared).
func (q *Query) Language() string { return q.language }

// Category returns the category filter ("" = none).
func (q *Query) Category() string { return q.category }

// WeightOverride returns the explicit vector weight, or nil when the intent
// classifier decides.
func (q *Query) WeightOverride() *float64 { return q.weightOverride }

// Limit returns the maximum results to return.
func (q *Query) Limit() int { return q.limit }

// Expand reports whether multi-language expansion was requested.
func (q *Query) Expand() bool { return q.expand }

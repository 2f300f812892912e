// Package expand widens a query into multi-language variants and produces
// "no results" suggestions via the text-generation provider. Every failure
// degrades to doing without: expansion falls back to the original query,
// suggestions to none.
package expand

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/domain"
)

// DefaultTimeout caps one generation round trip.
const DefaultTimeout = 10 * time.Second

// MaxVariants bounds how many query variants expansion may return, the
// original included.
const MaxVariants = 5

// Expansion is the widened query set. Queries always starts with the original
// text; Degraded marks a provider or parse failure.
type Expansion struct {
	Queries  []string
	Degraded bool
}

// Service wraps the generation provider for expansion and suggestions.
type Service struct {
	generator domain.Generator
	timeout   time.Duration
	logger    *zap.Logger
}

// New creates an expansion service. A non-positive timeout uses DefaultTimeout.
func New(generator domain.Generator, timeout time.Duration, logger *zap.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{generator: generator, timeout: timeout, logger: logger}
}

// Expand asks the provider for translations and close synonyms of text.
// Never returns an error: a failed or unparseable response degrades to the
// original query alone.
func (s *Service) Expand(ctx context.Context, text, sourceLang string) Expansion {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	lang := sourceLang
	if lang == "" {
		lang = "unknown"
	}
	prompt := fmt.Sprintf(
		`Translate the search query below into English, Spanish, and French, and add close`+
			` synonym phrasings. Source language: %s. Respond with a single JSON object`+
			` {"variants": ["..."]} and nothing else.`+"\n\nQuery: %s", lang, text)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Debug("query expansion failed, using original query", zap.Error(err))
		return Expansion{Queries: []string{text}, Degraded: true}
	}

	var parsed struct {
		Variants []string `json:"variants"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.logger.Debug("query expansion response unparseable", zap.Error(err))
		return Expansion{Queries: []string{text}, Degraded: true}
	}

	return Expansion{Queries: dedupe(text, parsed.Variants)}
}

// Suggest asks the provider for alternative queries after an empty result set.
// Failures degrade to no suggestions.
func (s *Service) Suggest(ctx context.Context, text string) []string {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	prompt := fmt.Sprintf(
		`A search for the query below returned nothing. Propose up to 3 broader or`+
			` alternative queries likely to match. Respond with a single JSON object`+
			` {"suggestions": ["..."]} and nothing else.`+"\n\nQuery: %s", text)

	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		s.logger.Debug("suggestion generation failed", zap.Error(err))
		return nil
	}

	var parsed struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		s.logger.Debug("suggestion response unparseable", zap.Error(err))
		return nil
	}

	suggestions := make([]string, 0, len(parsed.Suggestions))
	for _, sug := range parsed.Suggestions {
		if sug = strings.TrimSpace(sug); sug != "" {
			suggestions = append(suggestions, sug)
		}
	}
	return suggestions
}

// dedupe builds the variant list: original first, blanks and repeats dropped,
// capped at MaxVariants.
func dedupe(original string, variants []string) []string {
	queries := []string{original}
	seen := map[string]struct{}{strings.ToLower(original): {}}

	for _, v := range variants {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := strings.ToLower(v)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		queries = append(queries, v)
		if len(queries) == MaxVariants {
			break
		}
	}
	return queries
}

package discovery

import (
	"context"

	"github.com/encounterhq/discovery/internal/usecase/analytics"
	"github.com/encounterhq/discovery/internal/usecase/expand"
	"github.com/encounterhq/discovery/internal/usecase/fusion"
)

// Fuser executes the hybrid retrieval pipeline.
type Fuser interface {
	Fuse(ctx context.Context, p fusion.Params) (fusion.Outcome, error)
}

// Expander widens queries and proposes alternatives for empty result sets.
type Expander interface {
	Expand(ctx context.Context, text, sourceLang string) expand.Expansion
	Suggest(ctx context.Context, text string) []string
}

// Recorder captures search events without ever failing the caller.
type Recorder interface {
	Record(event analytics.Event)
}

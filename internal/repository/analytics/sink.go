// Package analytics appends search events to a datastore stream. Write-only;
// downstream consumers read the stream out of band.
package analytics

import (
	"context"
	"fmt"
)

// DefaultStream is the stream key analytics events land on.
const DefaultStream = "discovery:analytics"

// store is the consumer interface for stream appends (ISP).
type store interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) error
}

// Sink writes analytics events to a stream.
type Sink struct {
	store  store
	stream string
}

// New creates an analytics sink. An empty stream name uses DefaultStream.
func New(s store, stream string) *Sink {
	if stream == "" {
		stream = DefaultStream
	}
	return &Sink{store: s, stream: stream}
}

// Write appends one event.
func (s *Sink) Write(ctx context.Context, fields map[string]string) error {
	if err := s.store.XAdd(ctx, s.stream, fields); err != nil {
		return fmt.Errorf("append analytics event: %w", err)
	}
	return nil
}

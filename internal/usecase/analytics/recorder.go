// Package analytics records search events on a best-effort basis. Recording
// never blocks the request path and never surfaces an error: events that
// cannot be queued or written are counted, logged, and dropped.
package analytics

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/metrics"
)

// Defaults for the background writer.
const (
	DefaultPoolSize     = 8
	DefaultWriteTimeout = 5 * time.Second
)

// Sink persists one event's fields.
type Sink interface {
	Write(ctx context.Context, fields map[string]string) error
}

// Event is one recorded search.
type Event struct {
	Query         string
	SearchType    string
	ResultCount   int
	DurationMs    int64
	VectorWeight  float64
	LexicalWeight float64
	Degraded      bool
}

// Recorder writes events through a bounded non-blocking worker pool.
type Recorder struct {
	pool         *ants.Pool
	sink         Sink
	writeTimeout time.Duration
	logger       *zap.Logger
}

// New creates a recorder. Non-positive poolSize uses DefaultPoolSize.
func New(sink Sink, poolSize int, logger *zap.Logger) (*Recorder, error) {
	if poolSize <= 0 {
		poolSize = DefaultPoolSize
	}
	pool, err := ants.NewPool(poolSize, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	return &Recorder{
		pool:         pool,
		sink:         sink,
		writeTimeout: DefaultWriteTimeout,
		logger:       logger,
	}, nil
}

// Record queues one event for background persistence. Fire-and-forget: a full
// pool or a failing sink drops the event.
func (r *Recorder) Record(event Event) {
	fields := map[string]string{
		"event_id":       uuid.NewString(),
		"recorded_at":    strconv.FormatInt(time.Now().UnixMilli(), 10),
		"query":          event.Query,
		"search_type":    event.SearchType,
		"result_count":   strconv.Itoa(event.ResultCount),
		"duration_ms":    strconv.FormatInt(event.DurationMs, 10),
		"vector_weight":  strconv.FormatFloat(event.VectorWeight, 'f', -1, 64),
		"lexical_weight": strconv.FormatFloat(event.LexicalWeight, 'f', -1, 64),
		"degraded":       strconv.FormatBool(event.Degraded),
	}

	err := r.pool.Submit(func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.writeTimeout)
		defer cancel()

		if err := r.sink.Write(ctx, fields); err != nil {
			metrics.AnalyticsDropsTotal.Inc()
			r.logger.Warn("analytics event dropped", zap.Error(err))
		}
	})
	if err != nil {
		metrics.AnalyticsDropsTotal.Inc()
		r.logger.Warn("analytics pool rejected event", zap.Error(err))
	}
}

// Close releases the worker pool. Queued events already running finish.
func (r *Recorder) Close() {
	r.pool.Release()
}

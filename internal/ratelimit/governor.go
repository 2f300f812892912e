// Package ratelimit implements per-identifier sliding-window rate limiting.
// Each endpoint class owns an independently keyed governor instance; the only
// shared mutable state in the service lives behind the governor's lock.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultSweepInterval is how often elapsed window records are collected.
const DefaultSweepInterval = 60 * time.Second

// Decision is the outcome of a single rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Governor admits or denies requests per identifier key.
type Governor interface {
	Check(ctx context.Context, key string) (Decision, error)
}

// record tracks one identifier's current window. Owned exclusively by the
// governor; reset when the window elapses, removed by the periodic sweep.
type record struct {
	windowStart time.Time
	count       int
}

// Memory is an in-process sliding-window governor. Suitable for
// single-instance deployments only; multi-instance deployments must use the
// Redis governor so concurrent instances share one atomic counter.
type Memory struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	records map[string]*record

	now       func() time.Time
	sweepStop chan struct{}
	sweepDone chan struct{}
}

var _ Governor = (*Memory)(nil)

// NewMemory creates a governor allowing limit requests per window for each key
// and starts the background cleanup sweep. Call Close to release it.
func NewMemory(limit int, window time.Duration) *Memory {
	return newMemory(limit, window, DefaultSweepInterval, time.Now)
}

func newMemory(limit int, window, sweepEvery time.Duration, now func() time.Time) *Memory {
	g := &Memory{
		limit:     limit,
		window:    window,
		records:   make(map[string]*record),
		now:       now,
		sweepStop: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	go g.sweepLoop(sweepEvery)
	return g
}

// Check applies the sliding-window algorithm for key. The whole decision is
// taken under one lock so that concurrent requests for the same key can never
// both consume the final slot.
func (g *Memory) Check(_ context.Context, key string) (Decision, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	rec, ok := g.records[key]
	if !ok || now.Sub(rec.windowStart) >= g.window {
		g.records[key] = &record{windowStart: now, count: 1}
		return Decision{
			Allowed:   true,
			Limit:     g.limit,
			Remaining: g.limit - 1,
			ResetAt:   now.Add(g.window),
		}, nil
	}

	resetAt := rec.windowStart.Add(g.window)
	if rec.count >= g.limit {
		return Decision{Allowed: false, Limit: g.limit, Remaining: 0, ResetAt: resetAt}, nil
	}

	rec.count++
	return Decision{
		Allowed:   true,
		Limit:     g.limit,
		Remaining: g.limit - rec.count,
		ResetAt:   resetAt,
	}, nil
}

// Close stops the cleanup sweep and waits for it to exit.
func (g *Memory) Close() {
	close(g.sweepStop)
	<-g.sweepDone
}

func (g *Memory) sweepLoop(every time.Duration) {
	defer close(g.sweepDone)

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-g.sweepStop:
			return
		case <-ticker.C:
			g.sweep()
		}
	}
}

// sweep removes records whose window has elapsed. Shares the Check lock so the
// sweep can never race an in-flight increment.
func (g *Memory) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	for key, rec := range g.records {
		if now.Sub(rec.windowStart) >= g.window {
			delete(g.records, key)
		}
	}
}

// size returns the tracked record count (test hook).
func (g *Memory) size() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

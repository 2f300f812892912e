package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeClock lets tests advance time deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestGovernor(limit int, window time.Duration) (*Memory, *fakeClock) {
	clock := newFakeClock()
	// Long sweep interval: tests trigger sweeps explicitly.
	g := newMemory(limit, window, time.Hour, clock.Now)
	return g, clock
}

func TestCheck_SequentialWindow(t *testing.T) {
	g, clock := newTestGovernor(3, time.Minute)
	defer g.Close()

	ctx := context.Background()
	wantAllowed := []bool{true, true, true, false}
	wantRemaining := []int{2, 1, 0, 0}

	for i := range wantAllowed {
		d, err := g.Check(ctx, "user-1")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if d.Allowed != wantAllowed[i] {
			t.Errorf("check %d: allowed = %v, want %v", i, d.Allowed, wantAllowed[i])
		}
		if d.Remaining != wantRemaining[i] {
			t.Errorf("check %d: remaining = %d, want %d", i, d.Remaining, wantRemaining[i])
		}
	}

	// Window elapses: fresh record, one slot consumed.
	clock.Advance(time.Minute)
	d, _ := g.Check(ctx, "user-1")
	if !d.Allowed || d.Remaining != 2 {
		t.Errorf("after window: allowed=%v remaining=%d, want true/2", d.Allowed, d.Remaining)
	}
}

func TestCheck_IndependentKeys(t *testing.T) {
	g, _ := newTestGovernor(1, time.Minute)
	defer g.Close()

	ctx := context.Background()
	if d, _ := g.Check(ctx, "a"); !d.Allowed {
		t.Fatal("first check for key a should be allowed")
	}
	if d, _ := g.Check(ctx, "b"); !d.Allowed {
		t.Error("key b must not share key a's counter")
	}
	if d, _ := g.Check(ctx, "a"); d.Allowed {
		t.Error("key a should be exhausted")
	}
}

func TestCheck_ResetAt(t *testing.T) {
	g, clock := newTestGovernor(2, time.Minute)
	defer g.Close()

	ctx := context.Background()
	start := clock.Now()

	d, _ := g.Check(ctx, "k")
	if !d.ResetAt.Equal(start.Add(time.Minute)) {
		t.Errorf("resetAt = %v, want %v", d.ResetAt, start.Add(time.Minute))
	}

	// Later checks in the same window keep the original reset time.
	clock.Advance(10 * time.Second)
	d, _ = g.Check(ctx, "k")
	if !d.ResetAt.Equal(start.Add(time.Minute)) {
		t.Errorf("resetAt moved within window: %v", d.ResetAt)
	}
}

func TestCheck_ConcurrentExactlyLimitAdmitted(t *testing.T) {
	const limit = 16
	const attempts = 64

	g, _ := newTestGovernor(limit, time.Minute)
	defer g.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	admitted := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := g.Check(context.Background(), "shared")
			if err != nil {
				t.Error(err)
				return
			}
			if d.Allowed {
				mu.Lock()
				admitted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if admitted != limit {
		t.Errorf("admitted %d of %d concurrent requests, want exactly %d", admitted, attempts, limit)
	}
}

func TestSweep_RemovesElapsedRecords(t *testing.T) {
	g, clock := newTestGovernor(5, time.Minute)
	defer g.Close()

	ctx := context.Background()
	for _, key := range []string{"a", "b", "c"} {
		if _, err := g.Check(ctx, key); err != nil {
			t.Fatal(err)
		}
	}
	if g.size() != 3 {
		t.Fatalf("size = %d, want 3", g.size())
	}

	clock.Advance(30 * time.Second)
	if _, err := g.Check(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}

	clock.Advance(31 * time.Second)
	g.sweep()

	// a, b, c elapsed; fresh (30s old) survives.
	if g.size() != 1 {
		t.Errorf("size after sweep = %d, want 1", g.size())
	}
}

// --- Redis governor ---

type fakeCounterStore struct {
	mu       sync.Mutex
	counts   map[string]int64
	ttls     map[string]time.Duration
	incrErr  error
	pttlMiss bool
}

func newFakeCounterStore() *fakeCounterStore {
	return &fakeCounterStore{counts: make(map[string]int64), ttls: make(map[string]time.Duration)}
}

func (s *fakeCounterStore) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incrErr != nil {
		return 0, s.incrErr
	}
	s.counts[key]++
	return s.counts[key], nil
}

func (s *fakeCounterStore) PExpireNX(_ context.Context, key string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ttls[key]; !ok {
		s.ttls[key] = ttl
	}
	return nil
}

func (s *fakeCounterStore) PTTL(_ context.Context, key string) (time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pttlMiss {
		return -1, nil
	}
	return s.ttls[key], nil
}

func TestRedisCheck_DecisionMath(t *testing.T) {
	store := newFakeCounterStore()
	g := NewRedis(store, "rl:search:", 3, time.Minute)

	ctx := context.Background()
	wantAllowed := []bool{true, true, true, false, false}
	wantRemaining := []int{2, 1, 0, 0, 0}

	for i := range wantAllowed {
		d, err := g.Check(ctx, "user-9")
		if err != nil {
			t.Fatalf("check %d: %v", i, err)
		}
		if d.Allowed != wantAllowed[i] || d.Remaining != wantRemaining[i] {
			t.Errorf("check %d: got (%v, %d), want (%v, %d)",
				i, d.Allowed, d.Remaining, wantAllowed[i], wantRemaining[i])
		}
	}

	if store.ttls["rl:search:user-9"] != time.Minute {
		t.Errorf("window TTL = %v, want 1m", store.ttls["rl:search:user-9"])
	}
}

func TestRedisCheck_PrefixIsolation(t *testing.T) {
	store := newFakeCounterStore()
	search := NewRedis(store, "rl:search:", 1, time.Minute)
	facets := NewRedis(store, "rl:facets:", 1, time.Minute)

	ctx := context.Background()
	if d, _ := search.Check(ctx, "u"); !d.Allowed {
		t.Fatal("first search check should pass")
	}
	if d, _ := facets.Check(ctx, "u"); !d.Allowed {
		t.Error("facets limiter must not share the search counter")
	}
}

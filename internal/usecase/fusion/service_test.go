package fusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain"
	"github.com/encounterhq/discovery/internal/domain/experience"
	searchrepo "github.com/encounterhq/discovery/internal/repository/search"
)

type mockEmbedder struct {
	result      domain.EmbeddingResult
	err         error
	calls       int
	hadDeadline bool
}

func (m *mockEmbedder) Embed(ctx context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	_, m.hadDeadline = ctx.Deadline()
	return m.result, m.err
}

type mockRepo struct {
	lists        searchrepo.RankedLists
	err          error
	gotEmbedding []float32
	gotFilter    db.Filter
	gotTopK      int
	hadDeadline  bool
}

func (m *mockRepo) FusedCandidates(
	ctx context.Context, _ string, embedding []float32, filter db.Filter, topK int,
) (searchrepo.RankedLists, error) {
	m.gotEmbedding = embedding
	m.gotFilter = filter
	m.gotTopK = topK
	_, m.hadDeadline = ctx.Deadline()
	return m.lists, m.err
}

type mockRecords struct {
	records  map[string]experience.Experience
	profiles map[string]experience.Profile
	err      error
}

func (m *mockRecords) GetBatch(_ context.Context, ids []string) ([]experience.Experience, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]experience.Experience, 0, len(ids))
	for _, id := range ids {
		if rec, ok := m.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *mockRecords) Profiles(_ context.Context, authorIDs []string) (map[string]experience.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make(map[string]experience.Profile, len(authorIDs))
	for _, id := range authorIDs {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func record(id, authorID string) experience.Experience {
	return experience.Reconstruct(
		id, "title "+id, "ufo", nil, 0, "", 0, 0, false,
		time.Time{}, authorID, nil,
	)
}

func newTestService(repo *mockRepo, records *mockRecords, embed *mockEmbedder) *Service {
	return New(repo, records, embed, 0, zap.NewNop())
}

func TestFuse_HappyPath(t *testing.T) {
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	repo := &mockRepo{lists: searchrepo.RankedLists{
		Vector:  []string{"a", "b"},
		Lexical: []string{"b", "c"},
	}}
	records := &mockRecords{
		records: map[string]experience.Experience{
			"a": record("a", "u1"), "b": record("b", "u2"), "c": record("c", "u1"),
		},
		profiles: map[string]experience.Profile{
			"u1": experience.NewProfile("u1", "Dana", ""),
			"u2": experience.NewProfile("u2", "Lee", ""),
		},
	}

	out, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "lights in the sky", Category: "ufo", Limit: 10,
		VectorWeight: 0.8, LexicalWeight: 0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if out.Degraded {
		t.Error("expected non-degraded outcome")
	}
	if out.VectorWeight != 0.8 || out.LexicalWeight != 0.2 {
		t.Errorf("effective weights = %v/%v, want 0.8/0.2", out.VectorWeight, out.LexicalWeight)
	}
	if len(out.Candidates) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(out.Candidates))
	}
	if out.Candidates[0].ID() != "b" {
		t.Errorf("expected dual-list candidate b first, got %q", out.Candidates[0].ID())
	}
	if repo.gotFilter.Category != "ufo" {
		t.Errorf("filter category = %q, want ufo", repo.gotFilter.Category)
	}
	if repo.gotTopK != 20 {
		t.Errorf("topK = %d, want limit*2 = 20", repo.gotTopK)
	}
	for i := range out.Candidates {
		c := &out.Candidates[i]
		if c.Record() == nil {
			t.Errorf("candidate %q missing enriched record", c.ID())
		}
		if c.Author() == nil {
			t.Errorf("candidate %q missing author profile", c.ID())
		}
	}
}

func TestFuse_EmbeddingFailureFallsBackToLexical(t *testing.T) {
	embed := &mockEmbedder{err: errors.New("provider down")}
	repo := &mockRepo{lists: searchrepo.RankedLists{Lexical: []string{"a", "b"}}}
	records := &mockRecords{records: map[string]experience.Experience{
		"a": record("a", ""), "b": record("b", ""),
	}}

	out, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "ufo", Limit: 10, VectorWeight: 0.8, LexicalWeight: 0.2,
	})
	if err != nil {
		t.Fatalf("expected degraded success, got error: %v", err)
	}

	if !out.Degraded {
		t.Error("expected degraded outcome")
	}
	if out.VectorWeight != 0 || out.LexicalWeight != 1 {
		t.Errorf("effective weights = %v/%v, want 0/1", out.VectorWeight, out.LexicalWeight)
	}
	if repo.gotEmbedding != nil {
		t.Error("expected nil embedding passed to repository after fallback")
	}
	if len(out.Candidates) != 2 || out.Candidates[0].ID() != "a" {
		t.Errorf("expected lexical order [a b], got %d candidates", len(out.Candidates))
	}
}

func TestFuse_SkipsEmbeddingWhenVectorWeightZero(t *testing.T) {
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockRepo{lists: searchrepo.RankedLists{Lexical: []string{"a"}}}
	records := &mockRecords{records: map[string]experience.Experience{"a": record("a", "")}}

	out, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "ufo", Limit: 5, VectorWeight: 0, LexicalWeight: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if embed.calls != 0 {
		t.Errorf("embedder called %d times, want 0", embed.calls)
	}
	if out.Degraded {
		t.Error("lexical-only by policy is not a degradation")
	}
}

func TestFuse_DatastoreErrorIsFatal(t *testing.T) {
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockRepo{err: domain.ErrDatastore}
	records := &mockRecords{}

	_, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "ufo", Limit: 5, VectorWeight: 0.6, LexicalWeight: 0.4,
	})

	if !errors.Is(err, domain.ErrDatastore) {
		t.Errorf("expected ErrDatastore, got %v", err)
	}
}

func TestFuse_EnrichmentPreservesOrder(t *testing.T) {
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockRepo{lists: searchrepo.RankedLists{
		Vector:  []string{"c", "a", "b"},
		Lexical: []string{"c", "a", "b"},
	}}
	// Records arrive in arbitrary map order; ranking must not follow it.
	records := &mockRecords{records: map[string]experience.Experience{
		"a": record("a", ""), "b": record("b", ""), "c": record("c", ""),
	}}

	out, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "ufo", Limit: 10, VectorWeight: 0.5, LexicalWeight: 0.5,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"c", "a", "b"}
	for i, id := range want {
		if out.Candidates[i].ID() != id {
			t.Fatalf("position %d = %q, want %q", i, out.Candidates[i].ID(), id)
		}
	}
}

func TestFuse_AppliesCallDeadline(t *testing.T) {
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockRepo{lists: searchrepo.RankedLists{Vector: []string{"a"}}}
	records := &mockRecords{records: map[string]experience.Experience{"a": record("a", "")}}

	_, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "ufo", Limit: 5, VectorWeight: 0.8, LexicalWeight: 0.2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !embed.hadDeadline {
		t.Error("embedding call ran with no deadline")
	}
	if !repo.hadDeadline {
		t.Error("datastore call ran with no deadline")
	}
}

func TestFuse_MissingRecordLeavesCandidateRanked(t *testing.T) {
	embed := &mockEmbedder{result: domain.EmbeddingResult{Embedding: []float32{1}}}
	repo := &mockRepo{lists: searchrepo.RankedLists{Vector: []string{"a", "ghost"}}}
	records := &mockRecords{records: map[string]experience.Experience{"a": record("a", "")}}

	out, err := newTestService(repo, records, embed).Fuse(context.Background(), Params{
		Text: "ufo", Limit: 10, VectorWeight: 1, LexicalWeight: 0,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(out.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(out.Candidates))
	}
	if out.Candidates[1].ID() != "ghost" || out.Candidates[1].Record() != nil {
		t.Error("expected unenriched candidate to stay ranked with nil record")
	}
}

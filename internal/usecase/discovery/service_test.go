package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/encounterhq/discovery/internal/domain"
	"github.com/encounterhq/discovery/internal/domain/search/query"
	"github.com/encounterhq/discovery/internal/domain/search/result"
	"github.com/encounterhq/discovery/internal/usecase/analytics"
	"github.com/encounterhq/discovery/internal/usecase/expand"
	"github.com/encounterhq/discovery/internal/usecase/fusion"
)

type mockFuser struct {
	outcome   fusion.Outcome
	err       error
	gotParams fusion.Params
	calls     int
}

func (m *mockFuser) Fuse(_ context.Context, p fusion.Params) (fusion.Outcome, error) {
	m.calls++
	m.gotParams = p
	return m.outcome, m.err
}

type mockExpander struct {
	expansion    expand.Expansion
	suggestions  []string
	expandCalls  int
	suggestCalls int
}

func (m *mockExpander) Expand(_ context.Context, text, _ string) expand.Expansion {
	m.expandCalls++
	if len(m.expansion.Queries) == 0 {
		return expand.Expansion{Queries: []string{text}}
	}
	return m.expansion
}

func (m *mockExpander) Suggest(_ context.Context, _ string) []string {
	m.suggestCalls++
	return m.suggestions
}

type mockRecorder struct {
	events []analytics.Event
}

func (m *mockRecorder) Record(event analytics.Event) {
	m.events = append(m.events, event)
}

func mustQuery(t *testing.T, text string, override *float64, limit int, expandFlag bool) query.Query {
	t.Helper()
	q, err := query.New(text, "", "", override, limit, expandFlag)
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	return q
}

func candidates(ids ...string) []result.Candidate {
	out := make([]result.Candidate, len(ids))
	for i, id := range ids {
		out[i] = result.New(id, i+1, i+1, 1.0/float64(i+1))
	}
	return out
}

func TestSearch_EndToEnd(t *testing.T) {
	fuser := &mockFuser{outcome: fusion.Outcome{
		Candidates:    candidates("a", "b", "c"),
		VectorWeight:  0.8,
		LexicalWeight: 0.2,
	}}
	expander := &mockExpander{}
	recorder := &mockRecorder{}
	svc := New(fuser, expander, recorder)

	q := mustQuery(t, "UFO sighting near the lake", nil, 10, false)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Location-seeking phrasing classifies as natural language: 0.8/0.2 split.
	if fuser.gotParams.VectorWeight != 0.8 || fuser.gotParams.LexicalWeight != 0.2 {
		t.Errorf("fusion weights = %v/%v, want 0.8/0.2",
			fuser.gotParams.VectorWeight, fuser.gotParams.LexicalWeight)
	}
	if fuser.gotParams.Limit != 10 {
		t.Errorf("limit = %d, want 10", fuser.gotParams.Limit)
	}
	if resp.Meta.SearchType != "natural_language" {
		t.Errorf("search type = %q, want natural_language", resp.Meta.SearchType)
	}
	if resp.Meta.IntentConfidence != 0.7 {
		t.Errorf("confidence = %v, want 0.7", resp.Meta.IntentConfidence)
	}
	if len(resp.Candidates) != 3 {
		t.Errorf("expected 3 candidates, got %d", len(resp.Candidates))
	}

	if len(recorder.events) != 1 {
		t.Fatalf("expected exactly one analytics event, got %d", len(recorder.events))
	}
	event := recorder.events[0]
	if event.ResultCount != len(resp.Candidates) {
		t.Errorf("analytics result count = %d, want %d", event.ResultCount, len(resp.Candidates))
	}
	if event.SearchType != "natural_language" || event.VectorWeight != 0.8 {
		t.Errorf("analytics event = %+v", event)
	}

	if expander.expandCalls != 0 {
		t.Errorf("expansion not requested but called %d times", expander.expandCalls)
	}
	if expander.suggestCalls != 0 {
		t.Errorf("suggestions only apply to empty results, called %d times", expander.suggestCalls)
	}
}

func TestSearch_WeightOverrideWinsOverIntent(t *testing.T) {
	fuser := &mockFuser{outcome: fusion.Outcome{VectorWeight: 0.25, LexicalWeight: 0.75}}
	svc := New(fuser, &mockExpander{}, &mockRecorder{})

	override := 0.25
	q := mustQuery(t, "what happened at the old mill?", &override, 5, false)
	if _, err := svc.Search(context.Background(), &q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fuser.gotParams.VectorWeight != 0.25 || fuser.gotParams.LexicalWeight != 0.75 {
		t.Errorf("fusion weights = %v/%v, want override 0.25/0.75",
			fuser.gotParams.VectorWeight, fuser.gotParams.LexicalWeight)
	}
}

func TestSearch_ExpansionWidensSearchText(t *testing.T) {
	fuser := &mockFuser{outcome: fusion.Outcome{Candidates: candidates("a")}}
	expander := &mockExpander{expansion: expand.Expansion{
		Queries: []string{"ghost", "fantasma", "fantôme"},
	}}
	svc := New(fuser, expander, &mockRecorder{})

	q := mustQuery(t, "ghost", nil, 5, true)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fuser.gotParams.Text != "ghost fantasma fantôme" {
		t.Errorf("search text = %q, want joined variants", fuser.gotParams.Text)
	}
	if !resp.Meta.Expanded {
		t.Error("expected Expanded meta flag")
	}
}

func TestSearch_EmptyResultsTriggerSuggestions(t *testing.T) {
	fuser := &mockFuser{outcome: fusion.Outcome{}}
	expander := &mockExpander{suggestions: []string{"strange lights", "glowing orbs"}}
	recorder := &mockRecorder{}
	svc := New(fuser, expander, recorder)

	q := mustQuery(t, "xyzzy plugh", nil, 5, false)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("empty result set is a success, got error: %v", err)
	}

	if len(resp.Candidates) != 0 {
		t.Errorf("expected no candidates, got %d", len(resp.Candidates))
	}
	if len(resp.Suggestions) != 2 {
		t.Errorf("suggestions = %v", resp.Suggestions)
	}
	if len(recorder.events) != 1 || recorder.events[0].ResultCount != 0 {
		t.Errorf("expected one analytics event with zero results, got %+v", recorder.events)
	}
}

func TestSearch_FusionErrorPropagatesWithoutAnalytics(t *testing.T) {
	fuser := &mockFuser{err: domain.ErrDatastore}
	recorder := &mockRecorder{}
	svc := New(fuser, &mockExpander{}, recorder)

	q := mustQuery(t, "anything", nil, 5, false)
	_, err := svc.Search(context.Background(), &q)

	if !errors.Is(err, domain.ErrDatastore) {
		t.Errorf("expected ErrDatastore, got %v", err)
	}
	if len(recorder.events) != 0 {
		t.Errorf("failed searches must not be recorded, got %d events", len(recorder.events))
	}
}

func TestSearch_DegradedOutcomeReflectedInMeta(t *testing.T) {
	fuser := &mockFuser{outcome: fusion.Outcome{
		Candidates:    candidates("a"),
		VectorWeight:  0,
		LexicalWeight: 1,
		Degraded:      true,
	}}
	recorder := &mockRecorder{}
	svc := New(fuser, &mockExpander{}, recorder)

	q := mustQuery(t, "lights over the ridge at midnight", nil, 5, false)
	resp, err := svc.Search(context.Background(), &q)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !resp.Meta.Degraded {
		t.Error("expected degraded meta flag")
	}
	if resp.Meta.VectorWeight != 0 || resp.Meta.LexicalWeight != 1 {
		t.Errorf("meta weights = %v/%v, want effective 0/1",
			resp.Meta.VectorWeight, resp.Meta.LexicalWeight)
	}
	if !recorder.events[0].Degraded {
		t.Error("analytics event must carry the degraded flag")
	}
}

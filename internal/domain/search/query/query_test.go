package query

import (
	"errors"
	"testing"

	"github.com/encounterhq/discovery/internal/domain"
)

func f64(v float64) *float64 { return &v }

func TestNew_Valid(t *testing.T) {
	q, err := New("  lights over the bay ", "en", "ufo", f64(0.5), 10, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Text() != "lights over the bay" {
		t.Errorf("text not trimmed: %q", q.Text())
	}
	if q.Limit() != 10 || q.Category() != "ufo" || !q.Expand() {
		t.Errorf("fields not carried: %+v", q)
	}
}

func TestNew_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		_, err := New(text, "", "", nil, 0, false)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("text %q: expected ErrValidation, got %v", text, err)
		}
	}
}

func TestNew_WeightOverrideRange(t *testing.T) {
	for _, w := range []float64{-0.01, 1.01, 2} {
		_, err := New("query", "", "", f64(w), 0, false)
		if !errors.Is(err, domain.ErrValidation) {
			t.Errorf("weight %f: expected ErrValidation, got %v", w, err)
		}
	}
	for _, w := range []float64{0, 0.5, 1} {
		if _, err := New("query", "", "", f64(w), 0, false); err != nil {
			t.Errorf("weight %f: unexpected error %v", w, err)
		}
	}
}

func TestNew_LimitDefaults(t *testing.T) {
	q, _ := New("query", "", "", nil, 0, false)
	if q.Limit() != DefaultLimit {
		t.Errorf("limit = %d, want default %d", q.Limit(), DefaultLimit)
	}
	q, _ = New("query", "", "", nil, 9999, false)
	if q.Limit() != MaxLimit {
		t.Errorf("limit = %d, want clamp to %d", q.Limit(), MaxLimit)
	}
}

package intent

import (
	"math"
	"strings"
	"testing"
)

func TestClassify_WeightsSumToOne(t *testing.T) {
	queries := []string{
		"ufo",
		"strange lights",
		"what was that sound in the attic?",
		"looking for stories about lake monsters",
		"a long rambling description of the thing i saw last night near the old mill",
	}
	for _, q := range queries {
		r := Classify(q)
		if sum := r.VectorWeight() + r.LexicalWeight(); math.Abs(sum-1.0) > 1e-12 {
			t.Errorf("weights for %q sum to %f, want 1.0", q, sum)
		}
	}
}

func TestClassify_QuestionMark(t *testing.T) {
	r := Classify("has anyone seen this before?")
	if !r.IsQuestion() {
		t.Error("query ending in ? should be a question")
	}
	if r.Confidence() != 0.95 {
		t.Errorf("question confidence = %f, want 0.95", r.Confidence())
	}
	if !r.IsNaturalLanguage() {
		t.Error("questions imply natural language")
	}
	if r.VectorWeight() != 0.8 {
		t.Errorf("question vector weight = %f, want 0.8", r.VectorWeight())
	}
}

func TestClassify_InterrogativeOpeners(t *testing.T) {
	for _, q := range []string{
		"what happened at the lighthouse",
		"is there a pattern to these sightings",
		"could this be sleep related",
	} {
		if r := Classify(q); !r.IsQuestion() {
			t.Errorf("%q should be detected as a question", q)
		}
	}
}

func TestClassify_Keyword(t *testing.T) {
	r := Classify("black triangle craft")
	if !r.IsKeyword() {
		t.Error("3-word non-question should be keyword")
	}
	if r.IsNaturalLanguage() {
		t.Error("keyword query should not be natural language")
	}
	if r.Confidence() != 0.9 {
		t.Errorf("keyword confidence = %f, want 0.9", r.Confidence())
	}
	if r.VectorWeight() != 0.3 || r.LexicalWeight() != 0.7 {
		t.Errorf("keyword weights = (%f, %f), want (0.3, 0.7)", r.VectorWeight(), r.LexicalWeight())
	}
}

func TestClassify_NaturalLanguagePhrase(t *testing.T) {
	r := Classify("looking for encounters near mountain lakes at dusk")
	if !r.IsNaturalLanguage() {
		t.Error("phrase query should be natural language")
	}
	if r.IsKeyword() {
		t.Error("phrase query should not be keyword")
	}
	if r.Confidence() != 0.7 {
		t.Errorf("natural non-question confidence = %f, want 0.7", r.Confidence())
	}
	if r.VectorWeight() != 0.8 {
		t.Errorf("natural vector weight = %f, want 0.8", r.VectorWeight())
	}
}

func TestClassify_DefaultWeights(t *testing.T) {
	// 4 words, no phrase, no question: neither keyword nor natural.
	r := Classify("glowing orb field sighting")
	if r.IsKeyword() || r.IsNaturalLanguage() || r.IsQuestion() {
		t.Fatalf("expected balanced classification, got %+v", r)
	}
	if r.VectorWeight() != 0.6 || r.LexicalWeight() != 0.4 {
		t.Errorf("default weights = (%f, %f), want (0.6, 0.4)", r.VectorWeight(), r.LexicalWeight())
	}
	if r.Confidence() != 0.5 {
		t.Errorf("default confidence = %f, want 0.5", r.Confidence())
	}
	if r.Label() != "balanced" {
		t.Errorf("label = %q, want balanced", r.Label())
	}
}

func TestClassify_Empty(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		r := Classify(q)
		if !r.Empty() {
			t.Errorf("%q should yield an empty result", q)
		}
		if r.Confidence() != 0 {
			t.Errorf("empty confidence = %f, want 0", r.Confidence())
		}
		if r.VectorWeight() != 0.6 {
			t.Errorf("empty vector weight = %f, want default 0.6", r.VectorWeight())
		}
	}
}

func TestClassify_Deterministic(t *testing.T) {
	q := "tell me about the shadow figure in my bedroom. it happened twice."
	first := Classify(q)
	for i := 0; i < 5; i++ {
		again := Classify(q)
		if !equalResults(first, again) {
			t.Fatal("classification is not deterministic")
		}
	}
}

func equalResults(a, b Result) bool {
	return a.IsQuestion() == b.IsQuestion() &&
		a.IsNaturalLanguage() == b.IsNaturalLanguage() &&
		a.IsKeyword() == b.IsKeyword() &&
		a.Confidence() == b.Confidence() &&
		a.VectorWeight() == b.VectorWeight() &&
		strings.Join(a.Concepts(), ",") == strings.Join(b.Concepts(), ",")
}

func TestClassify_Concepts(t *testing.T) {
	r := Classify("saw a saucer and a ghost the same night")
	got := r.Concepts()
	want := map[string]bool{"ufo": true, "haunting": true}
	if len(got) != 2 {
		t.Fatalf("expected 2 concepts, got %v", got)
	}
	for _, c := range got {
		if !want[c] {
			t.Errorf("unexpected concept %q", c)
		}
	}
}

func TestClassify_LocationSeekingPhrase(t *testing.T) {
	// Location-seeking phrasing plus a function word crosses the NL cutoff.
	r := Classify("UFO sighting near the lake")
	if !r.IsNaturalLanguage() {
		t.Error("expected natural language")
	}
	if r.VectorWeight() != 0.8 || r.LexicalWeight() != 0.2 {
		t.Errorf("weights = (%f, %f), want (0.8, 0.2)", r.VectorWeight(), r.LexicalWeight())
	}
}

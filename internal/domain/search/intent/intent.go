// Package intent classifies free-text queries into a retrieval-mode estimate
// and the vector/lexical weight split used by fusion. Classification is a pure
// function over fixed rule tables: new patterns and concepts are additive data,
// not code changes.
package intent

import "strings"

// Weight policy per detected mode. The fusion layer receives these verbatim.
const (
	NaturalVectorWeight = 0.8
	KeywordVectorWeight = 0.3
	DefaultVectorWeight = 0.6
)

// Confidence calibration constants. Fixed, not derived; tune against real
// query logs before changing.
const (
	confidenceBase     = 0.5
	confidenceNatural  = 0.7
	confidenceKeyword  = 0.9
	confidenceQuestion = 0.95
)

// naturalScoreThreshold is the cutoff at or above which a query counts as a
// natural-language phrase even without a question mark.
const naturalScoreThreshold = 0.5

// interrogativeOpeners mark a query as a question when it starts with one.
var interrogativeOpeners = []string{
	"what", "how", "why", "when", "where", "who", "which",
	"is there", "are there", "can", "could", "would", "should",
}

// conversationalPhrases mark a query as natural language when present.
var conversationalPhrases = []string{
	"looking for", "tell me about", "show me", "i want to",
	"i am searching", "i'm searching", "find me", "help me find",
	"similar to", "anything about", "near the", "close to", "around the",
}

// functionWords is a small fixed list of common English function words used
// as a weak natural-language signal.
var functionWords = []string{
	"the", "a", "an", "of", "in", "on", "at", "with", "for", "and",
}

// conceptRule maps a concept tag to the substrings that trigger it.
type conceptRule struct {
	tag      string
	keywords []string
}

// conceptRules is the fixed category/keyword table used for concept detection.
var conceptRules = []conceptRule{
	{tag: "ufo", keywords: []string{"ufo", "saucer", "craft", "lights in the sky", "abduction"}},
	{tag: "haunting", keywords: []string{"ghost", "haunt", "apparition", "spirit", "poltergeist"}},
	{tag: "cryptid", keywords: []string{"bigfoot", "sasquatch", "creature", "cryptid", "beast"}},
	{tag: "dream", keywords: []string{"dream", "lucid", "sleep paralysis", "nightmare"}},
	{tag: "nde", keywords: []string{"near-death", "near death", "out of body", "nde"}},
	{tag: "synchronicity", keywords: []string{"coincidence", "synchronicity", "deja vu"}},
}

// Result is the immutable outcome of classifying one query.
type Result struct {
	isQuestion        bool
	isNaturalLanguage bool
	isKeyword         bool
	confidence        float64
	vectorWeight      float64
	lexicalWeight     float64
	concepts          []string
	empty             bool
}

// IsQuestion reports whether the query reads as an explicit question.
func (r *Result) IsQuestion() bool { return r.isQuestion }

// IsNaturalLanguage reports whether the query reads as a conversational phrase.
func (r *Result) IsNaturalLanguage() bool { return r.isNaturalLanguage }

// IsKeyword reports whether the query is a short keyword lookup.
func (r *Result) IsKeyword() bool { return r.isKeyword }

// Confidence returns the calibrated classification confidence in [0,1].
func (r *Result) Confidence() float64 { return r.confidence }

// VectorWeight returns the semantic retrieval weight. VectorWeight and
// LexicalWeight always sum to 1.
func (r *Result) VectorWeight() float64 { return r.vectorWeight }

// LexicalWeight returns the full-text retrieval weight.
func (r *Result) LexicalWeight() float64 { return r.lexicalWeight }

// Concepts returns the detected concept tags (may be empty).
func (r *Result) Concepts() []string { return r.concepts }

// Empty reports whether the query was blank after trimming. Callers must not
// execute a fused search on an empty result.
func (r *Result) Empty() bool { return r.empty }

// Label returns the search-type label recorded in response meta and analytics.
func (r *Result) Label() string {
	switch {
	case r.isQuestion:
		return "question"
	case r.isKeyword:
		return "keyword"
	case r.isNaturalLanguage:
		return "natural_language"
	default:
		return "balanced"
	}
}

// Classify derives the retrieval intent of a free-text query. Deterministic
// and free of I/O.
func Classify(text string) Result {
	normalized := strings.ToLower(strings.TrimSpace(text))
	if normalized == "" {
		return Result{
			vectorWeight:  DefaultVectorWeight,
			lexicalWeight: 1 - DefaultVectorWeight,
			empty:         true,
		}
	}

	words := strings.Fields(normalized)
	wordCount := len(words)

	isQuestion := detectQuestion(normalized)
	phraseMatch := matchesAny(normalized, conversationalPhrases)

	score := 0.0
	if wordCount > 5 {
		score += 0.3
	}
	if phraseMatch {
		score += 0.4
	}
	if countSentenceSeparators(normalized) > 1 {
		score += 0.2
	}
	if containsFunctionWord(words) {
		score += 0.1
	}

	isNatural := score >= naturalScoreThreshold || isQuestion
	isKeyword := wordCount <= 3 && !isQuestion && !phraseMatch

	confidence := confidenceBase
	switch {
	case isQuestion:
		confidence = confidenceQuestion
	case isKeyword:
		confidence = confidenceKeyword
	case isNatural:
		confidence = confidenceNatural
	}

	vectorWeight := DefaultVectorWeight
	switch {
	case isNatural:
		vectorWeight = NaturalVectorWeight
	case isKeyword:
		vectorWeight = KeywordVectorWeight
	}

	return Result{
		isQuestion:        isQuestion,
		isNaturalLanguage: isNatural,
		isKeyword:         isKeyword,
		confidence:        confidence,
		vectorWeight:      vectorWeight,
		lexicalWeight:     1 - vectorWeight,
		concepts:          detectConcepts(normalized),
	}
}

func detectQuestion(normalized string) bool {
	if strings.Contains(normalized, "?") {
		return true
	}
	for _, opener := range interrogativeOpeners {
		if normalized == opener || strings.HasPrefix(normalized, opener+" ") {
			return true
		}
	}
	return false
}

func matchesAny(normalized string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(normalized, p) {
			return true
		}
	}
	return false
}

func countSentenceSeparators(normalized string) int {
	return strings.Count(normalized, ".") +
		strings.Count(normalized, "!") +
		strings.Count(normalized, ";")
}

func containsFunctionWord(words []string) bool {
	for _, w := range words {
		for _, fw := range functionWords {
			if w == fw {
				return true
			}
		}
	}
	return false
}

func detectConcepts(normalized string) []string {
	var tags []string
	for _, rule := range conceptRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				tags = append(tags, rule.tag)
				break
			}
		}
	}
	return tags
}

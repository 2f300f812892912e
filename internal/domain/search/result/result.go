// Package result defines the ranked candidate produced by fusion and
// similarity ranking. Fused scores are derived per request and never persisted.
package result

import "github.com/encounterhq/discovery/internal/domain/experience"

// NotRanked marks a candidate absent from one of the two source rank lists.
const NotRanked = 0

// Candidate is a single ranked search hit.
type Candidate struct {
	id          string
	vectorRank  int // 1-indexed; NotRanked if absent from the vector list
	lexicalRank int // 1-indexed; NotRanked if absent from the lexical list
	score       float64
	record      *experience.Experience
	author      *experience.Profile
	reasons     []string
	factors     map[string]float64
}

// New creates a ranked candidate.
func New(id string, vectorRank, lexicalRank int, score float64) Candidate {
	return Candidate{id: id, vectorRank: vectorRank, lexicalRank: lexicalRank, score: score}
}

// NewSimilar creates a candidate produced by similarity ranking, carrying the
// per-factor breakdown and human-readable match reasons.
func NewSimilar(rec *experience.Experience, score float64, factors map[string]float64, reasons []string) Candidate {
	return Candidate{id: rec.ID(), score: score, record: rec, factors: factors, reasons: reasons}
}

// ID returns the record identifier.
func (c *Candidate) ID() string { return c.id }

// VectorRank returns the raw 1-indexed vector rank (NotRanked if absent).
func (c *Candidate) VectorRank() int { return c.vectorRank }

// LexicalRank returns the raw 1-indexed lexical rank (NotRanked if absent).
func (c *Candidate) LexicalRank() int { return c.lexicalRank }

// Score returns the fused or similarity score.
func (c *Candidate) Score() float64 { return c.score }

// Record returns the enriched experience record, if attached.
func (c *Candidate) Record() *experience.Experience { return c.record }

// Author returns the enriched author profile, if attached.
func (c *Candidate) Author() *experience.Profile { return c.author }

// Reasons returns the human-readable match reasons (similarity ranking only).
func (c *Candidate) Reasons() []string { return c.reasons }

// Factors returns the per-factor score contributions (similarity ranking only).
func (c *Candidate) Factors() map[string]float64 { return c.factors }

// AttachRecord sets the enriched record. Enrichment never alters ranking.
func (c *Candidate) AttachRecord(rec *experience.Experience) { c.record = rec }

// AttachAuthor sets the enriched author profile.
func (c *Candidate) AttachAuthor(p *experience.Profile) { c.author = p }

package fusion

import (
	"sort"

	"github.com/encounterhq/discovery/internal/domain/search/result"
	searchrepo "github.com/encounterhq/discovery/internal/repository/search"
)

// DefaultRRFK is the Reciprocal Rank Fusion constant (standard value from
// Cormack et al. 2009).
const DefaultRRFK = 60

// fuseWeighted merges the two identifier rankings via weighted Reciprocal Rank
// Fusion: score(d) = vw/(k + vRank(d)) + lw/(k + lexRank(d)), ranks 1-indexed,
// an absent list contributes 0. Union of both lists, sorted by score descending;
// ties break on the better vector rank, then the better lexical rank, then
// ascending identifier, so output order is fully deterministic.
func fuseWeighted(lists searchrepo.RankedLists, vw, lw float64, k, limit int) []result.Candidate {
	type ranks struct {
		vector  int
		lexical int
	}

	merged := make(map[string]*ranks, len(lists.Vector)+len(lists.Lexical))

	for i, id := range lists.Vector {
		if _, ok := merged[id]; !ok {
			merged[id] = &ranks{vector: i + 1}
		}
	}
	for i, id := range lists.Lexical {
		if r, ok := merged[id]; ok {
			if r.lexical == result.NotRanked {
				r.lexical = i + 1
			}
			continue
		}
		merged[id] = &ranks{lexical: i + 1}
	}

	candidates := make([]result.Candidate, 0, len(merged))
	for id, r := range merged {
		score := 0.0
		if r.vector != result.NotRanked {
			score += vw / float64(k+r.vector)
		}
		if r.lexical != result.NotRanked {
			score += lw / float64(k+r.lexical)
		}
		candidates = append(candidates, result.New(id, r.vector, r.lexical, score))
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := &candidates[i], &candidates[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		if a.VectorRank() != b.VectorRank() {
			return rankBetter(a.VectorRank(), b.VectorRank())
		}
		if a.LexicalRank() != b.LexicalRank() {
			return rankBetter(a.LexicalRank(), b.LexicalRank())
		}
		return a.ID() < b.ID()
	})

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates
}

// rankBetter reports whether rank a beats rank b; NotRanked loses to any rank.
func rankBetter(a, b int) bool {
	if a == result.NotRanked {
		return false
	}
	if b == result.NotRanked {
		return true
	}
	return a < b
}

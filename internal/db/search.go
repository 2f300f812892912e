package db

// Filter restricts a search to matching records before ranking.
type Filter struct {
	Category       string
	Tags           []string
	OccurredAfter  int64 // unix ms, 0 = unbounded
	OccurredBefore int64 // unix ms, 0 = unbounded
}

// IsEmpty reports whether the filter restricts nothing.
func (f *Filter) IsEmpty() bool {
	return f.Category == "" && len(f.Tags) == 0 && f.OccurredAfter == 0 && f.OccurredBefore == 0
}

// KNNQuery is the input for vector similarity search.
type KNNQuery struct {
	IndexName    string
	Filter       Filter
	Vector       []float32
	K            int
	ReturnFields []string
}

// TextQuery is the input for BM25 text search.
type TextQuery struct {
	IndexName    string
	Query        string
	Filter       Filter
	TopK         int
	ReturnFields []string
}

// ListQuery is the input for a filter-only fetch (no ranking semantics).
type ListQuery struct {
	IndexName    string
	Filter       Filter
	Offset       int
	Limit        int
	ReturnFields []string
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

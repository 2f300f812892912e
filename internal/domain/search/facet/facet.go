// Package facet computes categorical counts over an already-fetched candidate
// set to drive filter UI. Aggregation is pure: no datastore round-trips.
package facet

import (
	"sort"
	"time"

	"github.com/encounterhq/discovery/internal/domain/experience"
)

// Ranked list truncation limits.
const (
	MaxLocations = 20
	MaxTags      = 30
)

// Date bucket labels, evaluated in ascending order; the first matching
// threshold wins and each record falls into exactly one bucket.
const (
	BucketWeek    = "last_7_days"
	BucketMonth   = "last_30_days"
	BucketQuarter = "last_90_days"
	BucketYear    = "last_365_days"
	BucketOlder   = "older"
)

// dateThresholds pairs each bucket with its inclusive whole-day upper bound.
var dateThresholds = []struct {
	label string
	days  int
}{
	{BucketWeek, 7},
	{BucketMonth, 30},
	{BucketQuarter, 90},
	{BucketYear, 365},
}

// Entry is one (value, count) pair in a ranked facet list.
type Entry struct {
	Value string
	Count int
}

// WitnessCounts buckets records by declared witness presence.
type WitnessCounts struct {
	WithWitnesses int
	Alone         int
}

// Counts holds the full facet breakdown for one filtered result set.
// Recomputed per request and cached only briefly upstream.
type Counts struct {
	Categories  map[string]int
	Locations   []Entry
	Tags        []Entry
	Witnesses   WitnessCounts
	DateBuckets map[string]int
}

// Aggregate tallies facet counts over records relative to now.
func Aggregate(records []experience.Experience, now time.Time) Counts {
	counts := Counts{
		Categories:  make(map[string]int),
		DateBuckets: make(map[string]int),
	}

	locations := make(map[string]int)
	tags := make(map[string]int)

	for i := range records {
		rec := &records[i]

		if c := rec.Category(); c != "" {
			counts.Categories[c]++
		}
		if l := rec.Location(); l != "" {
			locations[l]++
		}
		for _, tag := range rec.Tags() {
			if tag != "" {
				tags[tag]++
			}
		}

		if rec.HasWitnesses() {
			counts.Witnesses.WithWitnesses++
		} else {
			counts.Witnesses.Alone++
		}

		counts.DateBuckets[dateBucket(rec.OccurredAt(), now)]++
	}

	counts.Locations = rankEntries(locations, MaxLocations)
	counts.Tags = rankEntries(tags, MaxTags)
	return counts
}

// dateBucket assigns a record to exactly one bucket by whole elapsed days.
func dateBucket(occurredAt, now time.Time) string {
	days := int(now.Sub(occurredAt).Hours() / 24)
	for _, t := range dateThresholds {
		if days <= t.days {
			return t.label
		}
	}
	return BucketOlder
}

// rankEntries sorts tallies descending by count (value ascending on ties, for
// deterministic output) and truncates to limit.
func rankEntries(tally map[string]int, limit int) []Entry {
	entries := make([]Entry, 0, len(tally))
	for v, c := range tally {
		entries = append(entries, Entry{Value: v, Count: c})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Count != entries[j].Count {
			return entries[i].Count > entries[j].Count
		}
		return entries[i].Value < entries[j].Value
	})
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries
}

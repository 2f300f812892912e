package similar

import (
	"fmt"

	"github.com/encounterhq/discovery/internal/domain/experience"
	"github.com/encounterhq/discovery/internal/domain/geo"
)

// Factor weights. Independent additive signals; the sum is clamped to 1.
const (
	categoryWeight   = 0.4
	tagWeight        = 0.3
	durationWeight   = 0.1
	nearbyWeight     = 0.2
	sameRegionWeight = 0.1
)

// Geo proximity thresholds in kilometers.
const (
	nearbyKm     = 50.0
	sameRegionKm = 200.0
)

// Factor keys in the per-factor breakdown.
const (
	FactorCategory = "category"
	FactorTags     = "tags"
	FactorDuration = "duration"
	FactorLocation = "location"
)

// score computes the similarity of candidate to source: the additive factor
// total clamped to 1.0, the per-factor contributions, and a human-readable
// reason per factor that fired.
func score(source, candidate *experience.Experience) (float64, map[string]float64, []string) {
	total := 0.0
	factors := make(map[string]float64)
	var reasons []string

	if source.Category() != "" && source.Category() == candidate.Category() {
		total += categoryWeight
		factors[FactorCategory] = categoryWeight
		reasons = append(reasons, "same category")
	}

	if shared, ratio := tagOverlap(source.Tags(), candidate.Tags()); shared > 0 {
		contribution := tagWeight * ratio
		total += contribution
		factors[FactorTags] = contribution
		reasons = append(reasons, fmt.Sprintf("%d matching tags", shared))
	}

	if source.DurationMin() > 0 && source.DurationMin() == candidate.DurationMin() {
		total += durationWeight
		factors[FactorDuration] = durationWeight
		reasons = append(reasons, "same duration")
	}

	if contribution, reason := geoProximity(source, candidate); contribution > 0 {
		total += contribution
		factors[FactorLocation] = contribution
		reasons = append(reasons, reason)
	}

	if total > 1.0 {
		total = 1.0
	}
	return total, factors, reasons
}

// tagOverlap returns the shared tag count and |∩| / max(|a|, |b|).
func tagOverlap(a, b []string) (int, float64) {
	if len(a) == 0 || len(b) == 0 {
		return 0, 0
	}
	set := make(map[string]struct{}, len(a))
	for _, tag := range a {
		set[tag] = struct{}{}
	}
	shared := 0
	for _, tag := range b {
		if _, ok := set[tag]; ok {
			shared++
			delete(set, tag)
		}
	}
	denom := len(a)
	if len(b) > denom {
		denom = len(b)
	}
	return shared, float64(shared) / float64(denom)
}

// geoProximity scores coordinate distance when both records carry coordinates.
func geoProximity(source, candidate *experience.Experience) (float64, string) {
	slat, slng, ok := source.Coordinates()
	if !ok {
		return 0, ""
	}
	clat, clng, ok := candidate.Coordinates()
	if !ok {
		return 0, ""
	}

	switch distance := geo.HaversineKm(slat, slng, clat, clng); {
	case distance < nearbyKm:
		return nearbyWeight, "nearby location"
	case distance < sameRegionKm:
		return sameRegionWeight, "same region"
	default:
		return 0, ""
	}
}

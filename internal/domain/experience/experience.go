// Package experience holds the narrative record value objects this service ranks
// and scores. Records are owned by the platform's record store; this tier only
// reads them, so the type is reconstructed from lookups and never persisted here.
package experience

import (
	"fmt"
	"strings"
	"time"
)

// Witness metadata may arrive under either of two legacy keys, depending on
// which version of the publishing pipeline wrote the record.
const (
	WitnessKey       = "witnesses"
	WitnessLegacyKey = "witness_details"
)

// Experience is a single narrative record.
type Experience struct {
	id          string
	title       string
	category    string
	tags        []string
	durationMin int
	location    string
	lat         float64
	lng         float64
	hasCoords   bool
	occurredAt  time.Time
	authorID    string
	metadata    map[string]any
}

// Reconstruct rebuilds an experience from stored fields without validation.
// Used by repositories when hydrating lookup results.
func Reconstruct(
	id, title, category string, tags []string, durationMin int,
	location string, lat, lng float64, hasCoords bool,
	occurredAt time.Time, authorID string, metadata map[string]any,
) Experience {
	return Experience{
		id: id, title: title, category: category, tags: tags,
		durationMin: durationMin, location: location,
		lat: lat, lng: lng, hasCoords: hasCoords,
		occurredAt: occurredAt, authorID: authorID, metadata: metadata,
	}
}

// New validates and creates an experience record.
func New(id, title, category string, tags []string) (Experience, error) {
	if strings.TrimSpace(id) == "" {
		return Experience{}, fmt.Errorf("experience id is required")
	}
	if strings.TrimSpace(title) == "" {
		return Experience{}, fmt.Errorf("experience title is required")
	}
	return Experience{id: id, title: title, category: category, tags: tags}, nil
}

// ID returns the record identifier.
func (e *Experience) ID() string { return e.id }

// Title returns the record title.
func (e *Experience) Title() string { return e.title }

// Category returns the record category.
func (e *Experience) Category() string { return e.category }

// Tags returns the record tags.
func (e *Experience) Tags() []string { return e.tags }

// DurationMin returns the reported duration in minutes (0 = unknown).
func (e *Experience) DurationMin() int { return e.durationMin }

// Location returns the human-readable location name.
func (e *Experience) Location() string { return e.location }

// Coordinates returns latitude/longitude and whether the record carries them.
func (e *Experience) Coordinates() (lat, lng float64, ok bool) {
	return e.lat, e.lng, e.hasCoords
}

// OccurredAt returns when the experience happened.
func (e *Experience) OccurredAt() time.Time { return e.occurredAt }

// AuthorID returns the identifier of the record's author.
func (e *Experience) AuthorID() string { return e.authorID }

// Metadata returns auxiliary record attributes (witness info and similar).
func (e *Experience) Metadata() map[string]any { return e.metadata }

// HasWitnesses reports whether the record declares any witnesses, reading both
// legacy metadata keys as synonyms.
func (e *Experience) HasWitnesses() bool {
	for _, key := range []string{WitnessKey, WitnessLegacyKey} {
		v, ok := e.metadata[key]
		if !ok {
			continue
		}
		switch w := v.(type) {
		case float64:
			if w > 0 {
				return true
			}
		case int:
			if w > 0 {
				return true
			}
		case []any:
			if len(w) > 0 {
				return true
			}
		case map[string]any:
			if len(w) > 0 {
				return true
			}
		}
	}
	return false
}

// Profile is the author metadata attached to ranked results during enrichment.
type Profile struct {
	id          string
	displayName string
	avatarURL   string
}

// NewProfile creates an author profile.
func NewProfile(id, displayName, avatarURL string) Profile {
	return Profile{id: id, displayName: displayName, avatarURL: avatarURL}
}

// ID returns the profile identifier.
func (p *Profile) ID() string { return p.id }

// DisplayName returns the public display name.
func (p *Profile) DisplayName() string { return p.displayName }

// AvatarURL returns the avatar image URL.
func (p *Profile) AvatarURL() string { return p.avatarURL }

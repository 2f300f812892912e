// Package experience reads narrative records and author profiles from the
// platform's record store. This tier never writes records.
package experience

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain"
	domexp "github.com/encounterhq/discovery/internal/domain/experience"
	searchrepo "github.com/encounterhq/discovery/internal/repository/search"
)

const profileKeyPrefix = "discovery:profile:"

// store is the consumer interface for record lookups (ISP).
type store interface {
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	SearchList(ctx context.Context, q *db.ListQuery) (*db.SearchResult, error)
}

// Repo implements batch record and profile lookups.
type Repo struct {
	store store
}

// New creates an experience repository.
func New(s store) *Repo {
	return &Repo{store: s}
}

// Get fetches a single record by identifier.
func (r *Repo) Get(ctx context.Context, id string) (domexp.Experience, error) {
	fields, err := r.store.HGetAll(ctx, searchrepo.KeyPrefix+id)
	if err != nil {
		return domexp.Experience{}, fmt.Errorf("%w: get experience %s: %w", domain.ErrDatastore, id, err)
	}
	if len(fields) == 0 {
		return domexp.Experience{}, fmt.Errorf("%w: experience %s", domain.ErrNotFound, id)
	}
	return recordFromFields(id, fields), nil
}

// GetBatch fetches records for the given identifiers in one round trip.
// Missing records are silently skipped; order follows ids.
func (r *Repo) GetBatch(ctx context.Context, ids []string) ([]domexp.Experience, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = searchrepo.KeyPrefix + id
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: batch get experiences: %w", domain.ErrDatastore, err)
	}

	records := make([]domexp.Experience, 0, len(ids))
	for i, fields := range maps {
		if len(fields) == 0 {
			continue
		}
		records = append(records, recordFromFields(ids[i], fields))
	}
	return records, nil
}

// Profiles fetches author profiles for the given author identifiers.
// Missing profiles are skipped.
func (r *Repo) Profiles(ctx context.Context, authorIDs []string) (map[string]domexp.Profile, error) {
	if len(authorIDs) == 0 {
		return nil, nil
	}

	keys := make([]string, len(authorIDs))
	for i, id := range authorIDs {
		keys[i] = profileKeyPrefix + id
	}

	maps, err := r.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("%w: batch get profiles: %w", domain.ErrDatastore, err)
	}

	profiles := make(map[string]domexp.Profile, len(authorIDs))
	for i, fields := range maps {
		if len(fields) == 0 {
			continue
		}
		profiles[authorIDs[i]] = domexp.NewProfile(
			authorIDs[i], fields["display_name"], fields["avatar_url"],
		)
	}
	return profiles, nil
}

// ListFiltered fetches up to limit records matching the filter, for faceting
// and similarity candidate pools.
func (r *Repo) ListFiltered(ctx context.Context, filter db.Filter, limit int) ([]domexp.Experience, error) {
	sr, err := r.store.SearchList(ctx, &db.ListQuery{
		IndexName: searchrepo.IndexName,
		Filter:    filter,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: list experiences: %w", domain.ErrDatastore, err)
	}

	records := make([]domexp.Experience, 0, len(sr.Entries))
	for _, entry := range sr.Entries {
		id := strings.TrimPrefix(entry.Key, searchrepo.KeyPrefix)
		records = append(records, recordFromFields(id, entry.Fields))
	}
	return records, nil
}

// recordFromFields hydrates a domain record from flat hash fields.
func recordFromFields(id string, fields map[string]string) domexp.Experience {
	var tags []string
	if raw := fields["tags"]; raw != "" {
		tags = strings.Split(raw, ",")
	}

	durationMin, _ := strconv.Atoi(fields["duration_min"])

	var lat, lng float64
	hasCoords := false
	if latStr, lngStr := fields["lat"], fields["lng"]; latStr != "" && lngStr != "" {
		var errLat, errLng error
		lat, errLat = strconv.ParseFloat(latStr, 64)
		lng, errLng = strconv.ParseFloat(lngStr, 64)
		hasCoords = errLat == nil && errLng == nil
	}

	var occurredAt time.Time
	if ms, err := strconv.ParseInt(fields["occurred_at"], 10, 64); err == nil && ms > 0 {
		occurredAt = time.UnixMilli(ms).UTC()
	}

	return domexp.Reconstruct(
		id,
		fields["title"],
		fields["category"],
		tags,
		durationMin,
		fields["location"],
		lat, lng, hasCoords,
		occurredAt,
		fields["author_id"],
		metadataFromFields(fields),
	)
}

// metadataFromFields extracts auxiliary attributes. Witness info appears under
// either legacy key: a plain count or a JSON structure.
func metadataFromFields(fields map[string]string) map[string]any {
	metadata := make(map[string]any)
	for _, key := range []string{domexp.WitnessKey, domexp.WitnessLegacyKey} {
		raw, ok := fields[key]
		if !ok || raw == "" {
			continue
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			metadata[key] = n
			continue
		}
		var parsed any
		if err := json.Unmarshal([]byte(raw), &parsed); err == nil {
			metadata[key] = parsed
		}
	}
	if len(metadata) == 0 {
		return nil
	}
	return metadata
}

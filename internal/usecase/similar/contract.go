package similar

import (
	"context"

	"github.com/encounterhq/discovery/internal/db"
	"github.com/encounterhq/discovery/internal/domain/experience"
)

// RecordReader loads the source record and the candidate pool.
type RecordReader interface {
	Get(ctx context.Context, id string) (experience.Experience, error)
	ListFiltered(ctx context.Context, filter db.Filter, limit int) ([]experience.Experience, error)
}

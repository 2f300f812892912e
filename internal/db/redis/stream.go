package redis

import (
	"context"

	"github.com/encounterhq/discovery/internal/db"
)

// XAdd appends an entry to a stream with an auto-generated ID.
func (s *Store) XAdd(ctx context.Context, stream string, fields map[string]string) error {
	cmd := s.b().Xadd().Key(stream).Id("*").FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpXAdd, Err: err}
	}
	return nil
}

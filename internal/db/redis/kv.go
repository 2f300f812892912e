package redis

import (
	"context"
	"time"

	"github.com/redis/rueidis"

	"github.com/encounterhq/discovery/internal/db"
)

// Get retrieves a value by key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	cmd := s.b().Get().Key(key).Build()
	data, err := s.do(ctx, cmd).AsBytes()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return data, nil
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	cmd := s.b().Set().Key(key).Value(string(value)).Ex(ttl).Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}

// Incr atomically increments a key and returns the new value.
func (s *Store) Incr(ctx context.Context, key string) (int64, error) {
	cmd := s.b().Incr().Key(key).Build()
	val, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpIncr, Err: err}
	}
	return val, nil
}

// PExpireNX sets a millisecond TTL on a key only if it has no expiry yet.
func (s *Store) PExpireNX(ctx context.Context, key string, ttl time.Duration) error {
	cmd := s.b().Pexpire().Key(key).Milliseconds(ttl.Milliseconds()).Nx().Build()
	if err := s.do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpExpire, Err: err}
	}
	return nil
}

// PTTL returns the remaining TTL of a key (negative when none).
func (s *Store) PTTL(ctx context.Context, key string) (time.Duration, error) {
	cmd := s.b().Pttl().Key(key).Build()
	ms, err := s.do(ctx, cmd).AsInt64()
	if err != nil {
		return 0, &db.Error{Op: db.OpTTL, Err: err}
	}
	return time.Duration(ms) * time.Millisecond, nil
}

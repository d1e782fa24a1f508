package redis

import (
	"context"

	"github.com/hyperlocal-cloud/bazaar/internal/db"
)

// HSet sets hash fields. Vector-index entries store the embedding as a binary
// FLOAT32 string field alongside the JSON payload.
func (s *Store) HSet(ctx context.Context, key string, fields map[string]string) error {
	cmd := s.b().Hset().Key(key).FieldValue()
	for k, v := range fields {
		cmd = cmd.FieldValue(k, v)
	}
	if err := s.do(ctx, cmd.Build()).Error(); err != nil {
		return &db.Error{Op: db.OpHSet, Err: err}
	}
	return nil
}

// Package history stores each traveler's recent search queries, newest first.
// Recommendations are seeded from the most recent query.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperlocal-cloud/bazaar/internal/db"
)

const maxEntries = 10

type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
}

// Repo keeps a bounded per-user query log.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a history repository.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = "bazaar:"
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Append records a query for the user, newest first, keeping at most 10.
func (r *Repo) Append(ctx context.Context, userID, query string) error {
	if userID == "" || query == "" {
		return nil
	}

	queries, err := r.Recent(ctx, userID)
	if err != nil {
		return err
	}

	queries = append([]string{query}, queries...)
	if len(queries) > maxEntries {
		queries = queries[:maxEntries]
	}

	data, err := json.Marshal(queries)
	if err != nil {
		return fmt.Errorf("marshal history: %w", err)
	}
	key := r.key(userID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Recent returns the user's queries, newest first. Missing user means empty.
func (r *Repo) Recent(ctx context.Context, userID string) ([]string, error) {
	key := r.key(userID)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("json.get %s: %w", key, err)
	}

	// JSON.GET $ wraps the array in a one-element array.
	var wrapped [][]string
	if err := json.Unmarshal(raw, &wrapped); err == nil && len(wrapped) > 0 {
		return wrapped[0], nil
	}
	var queries []string
	if err := json.Unmarshal(raw, &queries); err != nil {
		return nil, fmt.Errorf("unmarshal history: %w", err)
	}
	return queries, nil
}

func (r *Repo) key(userID string) string {
	return r.keyPrefix + "history:" + userID
}

// Package record persists listing and event records as JSON documents keyed
// by id within a named collection.
package record

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperlocal-cloud/bazaar/internal/db"
	"github.com/hyperlocal-cloud/bazaar/internal/domain"
)

// store is the consumer interface for record documents (ISP).
type store interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// Repo implements the document-store side of the write fan-out.
type Repo struct {
	store     store
	keyPrefix string
}

// New creates a record repository.
func New(s store, keyPrefix string) *Repo {
	if keyPrefix == "" {
		keyPrefix = "bazaar:"
	}
	return &Repo{store: s, keyPrefix: keyPrefix}
}

// Upsert writes the record under its collection and id.
func (r *Repo) Upsert(ctx context.Context, rec domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	key := r.key(rec.Type.Collection(), rec.ID)
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

// Get returns a record by collection and id.
func (r *Repo) Get(ctx context.Context, collection, id string) (domain.Record, error) {
	key := r.key(collection, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Record{}, domain.ErrNotFound
		}
		return domain.Record{}, fmt.Errorf("json.get %s: %w", key, err)
	}
	return parseRecord(raw)
}

// Patch merges the given fields into the stored record. Used by the trivial
// out-of-core metadata update path only; createdAt and id are never touched.
func (r *Repo) Patch(ctx context.Context, collection, id string, update map[string]any) error {
	key := r.key(collection, id)
	raw, err := r.store.JSONGet(ctx, key, "$")
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("json.get %s: %w", key, err)
	}

	var docs []map[string]any
	if err := json.Unmarshal(raw, &docs); err != nil || len(docs) == 0 {
		return fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	doc := docs[0]
	for k, v := range update {
		if k == "id" || k == "created_at" {
			continue
		}
		doc[k] = v
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := r.store.JSONSet(ctx, key, "$", data); err != nil {
		return fmt.Errorf("json.set %s: %w", key, err)
	}
	return nil
}

func (r *Repo) key(collection, id string) string {
	return r.keyPrefix + collection + ":" + id
}

// parseRecord handles the JSON.GET "$" result, which wraps the document in a
// one-element array.
func parseRecord(raw []byte) (domain.Record, error) {
	var recs []domain.Record
	if err := json.Unmarshal(raw, &recs); err == nil && len(recs) > 0 {
		return recs[0], nil
	}
	var rec domain.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return domain.Record{}, fmt.Errorf("unmarshal record: %w", err)
	}
	return rec, nil
}

// Package vector indexes record embeddings in Redis FT and serves KNN
// similarity search. Collections are created on first use.
package vector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/hyperlocal-cloud/bazaar/internal/db"
	"github.com/hyperlocal-cloud/bazaar/internal/domain"
)

const keyPrefix = "bazaarvec:"

// store is the consumer interface for vector entries (ISP).
type store interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
	CreateIndex(ctx context.Context, def *db.IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
	SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)
}

// HNSWConfig tunes index construction.
type HNSWConfig struct {
	M           int
	EFConstruct int
}

// Repo implements the vector-index side of the write fan-out and the
// similarity-search read path.
type Repo struct {
	store store
	dim   int
	hnsw  HNSWConfig

	mu      sync.Mutex
	ensured map[string]struct{}
}

// New creates a vector repository for embeddings of the given dimensionality.
func New(s store, dim int) *Repo {
	return &Repo{store: s, dim: dim, ensured: make(map[string]struct{})}
}

// WithHNSW sets HNSW construction parameters.
func (r *Repo) WithHNSW(cfg HNSWConfig) *Repo {
	r.hnsw = cfg
	return r
}

// Dimensions returns the configured vector dimensionality. Callers use it to
// build the zero-vector fallback.
func (r *Repo) Dimensions() int { return r.dim }

// Upsert indexes one embedding with its payload under the record id.
func (r *Repo) Upsert(ctx context.Context, collection, id string, vector []float32, payload map[string]any) error {
	if len(vector) != r.dim {
		return fmt.Errorf("vector has %d dims, index expects %d", len(vector), r.dim)
	}
	if err := r.ensureCollection(ctx, collection); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	key := entryKey(collection, id)
	fields := map[string]string{
		"vector":  db.VectorToBytes(vector),
		"payload": string(data),
	}
	if err := r.store.HSet(ctx, key, fields); err != nil {
		return fmt.Errorf("hset %s: %w", key, err)
	}
	return nil
}

// Search runs KNN over the collection and returns ranked hits.
func (r *Repo) Search(ctx context.Context, collection string, vector []float32, topK int) ([]domain.SearchHit, error) {
	if err := r.ensureCollection(ctx, collection); err != nil {
		return nil, err
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    indexName(collection),
		Vector:       vector,
		K:            topK,
		ReturnFields: []string{"__vector_score", "payload"},
	})
	if err != nil {
		return nil, fmt.Errorf("search knn %s: %w", collection, err)
	}

	hits := make([]domain.SearchHit, 0, len(res.Entries))
	for _, e := range res.Entries {
		hit := domain.SearchHit{
			ID:    strings.TrimPrefix(e.Key, keyPrefix+collection+":"),
			Score: e.Score,
		}
		if raw := e.Fields["payload"]; raw != "" {
			var payload map[string]any
			if err := json.Unmarshal([]byte(raw), &payload); err == nil {
				hit.Payload = payload
			}
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

// ensureCollection creates the FT index on first use; subsequent calls are a
// map lookup.
func (r *Repo) ensureCollection(ctx context.Context, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.ensured[collection]; ok {
		return nil
	}

	name := indexName(collection)
	exists, err := r.store.IndexExists(ctx, name)
	if err != nil {
		return fmt.Errorf("index exists %s: %w", name, err)
	}
	if !exists {
		err := r.store.CreateIndex(ctx, &db.IndexDefinition{
			Name:        name,
			Prefixes:    []string{keyPrefix + collection + ":"},
			VectorDim:   r.dim,
			Distance:    db.DistanceCosine,
			M:           r.hnsw.M,
			EFConstruct: r.hnsw.EFConstruct,
		})
		if err != nil && !errors.Is(err, db.ErrIndexExists) {
			return fmt.Errorf("create index %s: %w", name, err)
		}
	}

	r.ensured[collection] = struct{}{}
	return nil
}

func indexName(collection string) string {
	return "idx:" + collection
}

func entryKey(collection, id string) string {
	return keyPrefix + collection + ":" + id
}

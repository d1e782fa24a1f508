// Package db defines the storage facade shared by the document store and the
// vector index. Both are backed by the same Redis instance; consumers depend
// on the narrow sub-interfaces only.
package db

import (
	"context"
	"time"
)

// Store is the combined database facade.
type Store interface {
	Pinger
	JSONStore
	HashStore
	IndexManager
	Searcher
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string, paths ...string) ([]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// HashStore provides hash operations for vector-index entries.
type HashStore interface {
	HSet(ctx context.Context, key string, fields map[string]string) error
}

// IndexManager provides FT index lifecycle operations.
type IndexManager interface {
	CreateIndex(ctx context.Context, def *IndexDefinition) error
	IndexExists(ctx context.Context, name string) (bool, error)
}

// Searcher provides KNN search over FT indexes.
type Searcher interface {
	SearchKNN(ctx context.Context, q *KNNQuery) (*SearchResult, error)
}

// VectorDistance selects the FT vector distance metric.
type VectorDistance string

// DistanceCosine is the only metric the pipelines use.
const DistanceCosine VectorDistance = "COSINE"

// IndexDefinition describes an FT index over hash keys with one HNSW vector
// field plus plain text payload fields.
type IndexDefinition struct {
	Name        string
	Prefixes    []string
	VectorDim   int
	Distance    VectorDistance
	M           int
	EFConstruct int
}

// KNNQuery is a vector similarity query.
type KNNQuery struct {
	IndexName    string
	Vector       []float32
	K            int
	ReturnFields []string
}

// SearchEntry is one hit of an FT.SEARCH response.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// SearchResult is a parsed FT.SEARCH response.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

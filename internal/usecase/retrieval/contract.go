package retrieval

import (
	"context"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
)

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Embedder vectorizes texts, one fixed-dimension vector per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// VectorSearcher runs similarity search against a vector collection.
type VectorSearcher interface {
	Search(ctx context.Context, collection string, vector []float32, topK int) ([]domain.SearchHit, error)
}

// RecordReader looks records up by id in a document-store collection.
type RecordReader interface {
	Get(ctx context.Context, collection, id string) (domain.Record, error)
}

// History tracks per-user query history for recommendations.
type History interface {
	Append(ctx context.Context, userID, query string) error
	Recent(ctx context.Context, userID string) ([]string, error)
}

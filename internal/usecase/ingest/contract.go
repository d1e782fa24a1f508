package ingest

import (
	"context"

	"github.com/hyperlocal-cloud/bazaar/internal/domain"
)

// ItemProcessor turns one uploaded file into a tagged item plus a text
// fragment. It degrades instead of failing.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, path string) domain.ProcessedItem
}

// Generator produces text from a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Embedder vectorizes texts, one fixed-dimension vector per input.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Records is the document-store side of the write fan-out.
type Records interface {
	Upsert(ctx context.Context, rec domain.Record) error
}

// Vectors is the vector-index side of the write fan-out.
type Vectors interface {
	Dimensions() int
	Upsert(ctx context.Context, collection, id string, vector []float32, payload map[string]any) error
}

// Publisher announces persisted records on the message bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

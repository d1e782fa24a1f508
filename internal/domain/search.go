package domain

import "context"

// SearchHit is a single similarity-search result. ID round-trips from the
// vector index back to Record.ID.
type SearchHit struct {
	ID      string         `json:"id"`
	Score   float64        `json:"score"`
	Payload map[string]any `json:"payload"`
}

// Generator is the opaque generative-model capability shared between layers.
// When structured is true the model is instructed to emit JSON, but the raw
// text is returned untrusted; callers re-parse with their own fallback.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Embedder vectorizes texts, one fixed-dimension vector per input in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

package media

import "context"

// Transcriber converts a stored audio file into source-language text.
type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

// Enhancer normalizes a stored image and derives coarse color tags from it.
type Enhancer interface {
	Enhance(path string) (enhancedPath string, err error)
	ColorTags(path string) ([]string, error)
}

// Generator produces text from a prompt, optionally instructed to emit JSON.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Publisher emits pipeline progress events on the message bus.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

package health

import "context"

// StorePinger checks document/vector store availability.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// ModelChecker checks generative-model endpoint availability.
type ModelChecker interface {
	HealthCheck(ctx context.Context) error
}

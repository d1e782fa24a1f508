package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUpstreamUnavailable signals a transport or timeout failure reaching an
	// external service (generative model, STT, store).
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamError signals a non-success response from an external service.
	ErrUpstreamError = errors.New("upstream error")
	// ErrParseFailure signals unparsable generative-model output. Always absorbed
	// locally with a deterministic fallback, never surfaced to callers.
	ErrParseFailure = errors.New("parse failure")
	// ErrNotFound signals a missing record or id.
	ErrNotFound = errors.New("not found")
	// ErrPartialWrite signals a fan-out step that failed after the primary durable
	// write succeeded. Logged, not retried.
	ErrPartialWrite = errors.New("partial write inconsistency")
)

// PartialWriteError reports which fan-out steps failed after the document-store
// upsert succeeded. The durable record exists; the operation is still a success.
type PartialWriteError struct {
	RecordID string
	Steps    []string
	Err      error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("%s: record %s, failed steps %v: %v", ErrPartialWrite.Error(), e.RecordID, e.Steps, e.Err)
}

func (e *PartialWriteError) Unwrap() error { return ErrPartialWrite }

package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog and playback operations
var (
	// ErrNetwork indicates a transport failure talking to the catalog API
	ErrNetwork = errors.New("catalog API is unreachable")

	// ErrMalformedResponse indicates an unexpected shape from the catalog or play endpoint
	ErrMalformedResponse = errors.New("malformed catalog response")

	// ErrMissingURL indicates a play response without an extractable URL
	ErrMissingURL = errors.New("no URL in play response")

	// ErrPlayback indicates a native player or adaptive engine failure
	ErrPlayback = errors.New("playback failed")

	// ErrSuperseded indicates a result was discarded because a newer selection started
	ErrSuperseded = errors.New("superseded by a newer selection")
)

// CatalogError wraps a sentinel with request context.
type CatalogError struct {
	Sentinel  error
	Operation string // "list" or "play"
	Status    int    // HTTP status, 0 when no response was received
	Err       error  // Lower-level cause
}

func (e *CatalogError) Error() string {
	msg := fmt.Sprintf("catalog: %s: %v", e.Operation, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CatalogError) Unwrap() error {
	return e.Sentinel
}

// PlaybackError carries a best-effort human-readable playback message
type PlaybackError struct {
	Message string
	Err     error
}

func (e *PlaybackError) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Is reports ErrPlayback so callers can match the category
func (e *PlaybackError) Is(target error) bool {
	return target == ErrPlayback
}

func (e *PlaybackError) Unwrap() error {
	return e.Err
}

package domain

import (
	"errors"
	"fmt"
)

// ErrMediaUnavailable means a media handle could not be resolved to bytes.
var ErrMediaUnavailable = errors.New("media unavailable")

// ErrEmptyInput means no usable text remained after normalization. It is
// raised before any collaborator call.
var ErrEmptyInput = errors.New("empty input")

// CollaboratorError wraps a failed call to an external capability (model
// API or chat transport). Op names the call that failed.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("collaborator %s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error { return e.Err }

// MalformedExtraction reports a collaborator response that did not match
// the requested schema. The raw payload is kept for logging, truncated by
// the caller if needed.
type MalformedExtraction struct {
	Schema string
	Raw    string
	Err    error
}

func (e *MalformedExtraction) Error() string {
	return fmt.Sprintf("malformed %s extraction: %v", e.Schema, e.Err)
}

func (e *MalformedExtraction) Unwrap() error { return e.Err }

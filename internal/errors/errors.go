package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSessionRunning  = errors.New("a download is already in progress")
	ErrSessionNotFound = errors.New("session not found")
	ErrNoPlaylist      = errors.New("no playlist loaded")
)

// Error kinds reported alongside a failed session.
const (
	KindValidation   = "validation"
	KindCollaborator = "collaborator"
	KindConsistency  = "consistency"
	KindInternal     = "internal"
)

// ValidationError is raised before any call to the fetcher.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// CollaboratorError carries the fetcher's rejection message verbatim.
type CollaboratorError struct {
	Message string
	Err     error
}

func (e *CollaboratorError) Error() string {
	return e.Message
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}

// ConsistencyError reports a batch outcome that does not line up with the request.
type ConsistencyError struct {
	Requested int
	Returned  int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("batch outcome mismatch: requested %d items, fetcher returned %d paths", e.Requested, e.Returned)
}

// Kind classifies err into one of the Kind* constants.
func Kind(err error) string {
	var (
		validationErr   *ValidationError
		collaboratorErr *CollaboratorError
		consistencyErr  *ConsistencyError
	)
	switch {
	case errors.As(err, &validationErr):
		return KindValidation
	case errors.As(err, &collaboratorErr):
		return KindCollaborator
	case errors.As(err, &consistencyErr):
		return KindConsistency
	default:
		return KindInternal
	}
}

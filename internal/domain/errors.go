package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrRequestNotFound signals a missing request.
	ErrRequestNotFound = errors.New("request not found")
	// ErrUnknownDomain signals a domain id absent from the capability registry.
	ErrUnknownDomain = errors.New("unknown domain")
	// ErrRequestNotDone signals a report demanded before every task is terminal.
	ErrRequestNotDone = errors.New("request not finished")
	// ErrIndexNotReady signals a lookup against an index with no loaded snapshot.
	ErrIndexNotReady = errors.New("index not ready")
	// ErrSnapshotVersion signals an index snapshot with an unsupported version.
	ErrSnapshotVersion = errors.New("unsupported snapshot version")

	// ErrUnsupportedFormat signals a document format the extractor cannot read.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrCorruptDocument signals a document that failed to parse.
	ErrCorruptDocument = errors.New("corrupt document")
	// ErrEmptyDocument signals a document with no extractable fields.
	ErrEmptyDocument = errors.New("empty document")
)

// InvalidTransitionError wraps an attempted non-monotonic task state change.
type InvalidTransitionError struct {
	Domain string
	From   TaskState
	To     TaskState
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid task transition for %s: %s -> %s", e.Domain, e.From, e.To)
}

// NewInvalidTransition creates an invalid transition error.
func NewInvalidTransition(domain string, from, to TaskState) error {
	return &InvalidTransitionError{Domain: domain, From: from, To: to}
}

// RequestTransitionError wraps an illegal coordinator state change.
type RequestTransitionError struct {
	RequestID string
	From      RequestState
	To        RequestState
}

func (e *RequestTransitionError) Error() string {
	return fmt.Sprintf("invalid request transition for %s: %s -> %s", e.RequestID, e.From, e.To)
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorKind classifies an ingestion failure so callers and tests can react
// to the kind instead of matching message text.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindTimeout
	KindHTTPStatus
	KindEncodingFailed
)

// String returns a stable name for the kind
func (k ErrorKind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindHTTPStatus:
		return "http_status"
	case KindEncodingFailed:
		return "encoding_failed"
	default:
		return "unknown"
	}
}

// Error is a structured ingestion error
type Error struct {
	Kind    ErrorKind
	Status  int // HTTP status code, set when Kind == KindHTTPStatus
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindHTTPStatus:
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the error kind, defaulting to KindUnknown
func KindOf(err error) ErrorKind {
	var ingErr *Error
	if errors.As(err, &ingErr) {
		return ingErr.Kind
	}
	return KindUnknown
}

// Classify wraps a transport-level error with the matching kind
func Classify(err error) *Error {
	var ingErr *Error
	if errors.As(err, &ingErr) {
		return ingErr
	}

	kind := KindUnknown
	if isTimeout(err) {
		kind = KindTimeout
	}

	return &Error{
		Kind:    kind,
		Message: err.Error(),
		Err:     err,
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// Copyright 2025 Shadow Atlas Contributors
//
// Error taxonomy for the ingestion/validation/merkle pipeline.
// Per spec section 7: each error carries a Kind so callers (the orchestrator,
// the Failures repository) can decide whether to retry, record, or crash.

package errs

import "fmt"

// Kind classifies an error for retry and propagation decisions.
type Kind string

const (
	InvalidArgument  Kind = "invalid_argument"  // caller-side, never retried
	SchemaError      Kind = "schema_error"      // data-side, never retried
	FormatError      Kind = "format_error"       // data-side, never retried
	NetworkError     Kind = "network_error"      // transport-side, retried
	TimeoutError     Kind = "timeout_error"      // transport-side, retried
	RateLimited      Kind = "rate_limited"       // transport-side, retried
	UpstreamError    Kind = "upstream_error"     // permanent server failure, not retried
	ValidationFailed Kind = "validation_failed"  // quality gate failure, surfaced
	Cancelled        Kind = "cancelled"          // cooperative cancellation
	Internal         Kind = "internal"           // programmer error
)

// Retryable reports whether an error of this kind may be retried per §4.1.
func (k Kind) Retryable() bool {
	switch k {
	case NetworkError, TimeoutError, RateLimited:
		return true
	default:
		return false
	}
}

// AtlasError wraps an underlying cause with a Kind and optional context.
type AtlasError struct {
	kind    Kind
	message string
	cause   error
}

func (e *AtlasError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.kind, e.message)
}

func (e *AtlasError) Unwrap() error { return e.cause }

// Kind returns the error's classification.
func (e *AtlasError) Kind() Kind { return e.kind }

// New creates an AtlasError with no wrapped cause.
func New(kind Kind, message string) *AtlasError {
	return &AtlasError{kind: kind, message: message}
}

// Wrap creates an AtlasError that wraps cause.
func Wrap(kind Kind, message string, cause error) *AtlasError {
	return &AtlasError{kind: kind, message: message, cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *AtlasError,
// defaulting to Internal for untyped errors.
func KindOf(err error) Kind {
	var ae *AtlasError
	if as(err, &ae) {
		return ae.kind
	}
	return Internal
}

// as is a tiny local errors.As to avoid importing errors just for this.
func as(err error, target **AtlasError) bool {
	for err != nil {
		if ae, ok := err.(*AtlasError); ok {
			*target = ae
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

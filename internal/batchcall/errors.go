package batchcall

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingIdentifier is returned when a batch id is empty or blank.
var ErrMissingIdentifier = errors.New("batchcall: batchId is required")

// Violation is a single field-level validation failure.
type Violation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every violation found in a submission, in document order.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "batchcall: validation failed"
	}
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Message)
	}
	return "batchcall: validation failed: " + strings.Join(parts, "; ")
}

// ErrorClass is the normalized cause of a provider call failure.
type ErrorClass string

const (
	ClassUpstream   ErrorClass = "upstream_error"
	ClassConnection ErrorClass = "connection_error"
	ClassTimeout    ErrorClass = "timeout_error"
	ClassUnknown    ErrorClass = "unknown_error"
)

// ProviderError is the single failure shape produced by the provider client.
//
// HTTPStatus is 0 when no upstream response was received.
type ProviderError struct {
	Class      ErrorClass
	HTTPStatus int
	Message    string

	// Op describes the attempted operation, e.g. "cancel batch".
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.HTTPStatus > 0 {
		fmt.Fprintf(&b, " (status %d)", e.HTTPStatus)
	}
	return b.String()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// HasStatus reports whether an upstream HTTP status was received.
func (e *ProviderError) HasStatus() bool { return e.HTTPStatus > 0 }

/*
internal/search/errors.go
Package search implements time-window resolution and backend filter
construction for log search requests.
*/

package search

import "fmt"

// ValidationKind classifies caller-input failures.
type ValidationKind string

const (
	KindMissingParameter ValidationKind = "missing_parameter"
	KindInvalidTimestamp ValidationKind = "invalid_timestamp"
	KindInvalidTimeRange ValidationKind = "invalid_timerange"
	KindInvalidEntry     ValidationKind = "invalid_entry"
	KindMissingField     ValidationKind = "missing_field"
)

// ValidationError reports malformed or incomplete caller input. It is
// always surfaced as an HTTP 400 and never retried.
type ValidationError struct {
	Kind    ValidationKind
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError constructs a typed validation failure.
func NewValidationError(kind ValidationKind, message string, err error) *ValidationError {
	return &ValidationError{Kind: kind, Message: message, Err: err}
}

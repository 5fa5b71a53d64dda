package caption

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every ValidationError via errors.Is.
var ErrValidation = errors.New("caption: validation failed")

// ValidationError describes malformed input to the segmenter or formatter.
// Position is the offending element's position in its sequence, or -1 when
// the error is not tied to a single element.
type ValidationError struct {
	Field    string
	Position int
	Reason   string
}

func (e *ValidationError) Error() string {
	if e.Position >= 0 {
		return fmt.Sprintf("caption: invalid %s at position %d: %s", e.Field, e.Position, e.Reason)
	}
	return fmt.Sprintf("caption: invalid %s: %s", e.Field, e.Reason)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field string, position int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Field:    field,
		Position: position,
		Reason:   fmt.Sprintf(format, args...),
	}
}

// Status classifies the outcome of a segmentation run.
type Status int

const (
	// StatusOK - at least one phrase was produced.
	StatusOK Status = iota
	// StatusEmpty - no words, no phrases. "No captions yet" is a normal state.
	StatusEmpty
	// StatusInvalid - the input failed validation and nothing was produced.
	StatusInvalid
)

// String returns the string representation of the status.
func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusEmpty:
		return "EMPTY"
	case StatusInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", s)
	}
}

// Result is the typed outcome of SegmentResult so callers can pick a UI
// state without inspecting error text.
type Result struct {
	Status  Status
	Phrases []Phrase
	Err     *ValidationError
}

package correlation

import (
	"errors"
	"fmt"
)

// ErrCorrelationViolation is matched by every error raised when the event
// source breaks start/finish pairing.
var ErrCorrelationViolation = errors.New("correlation violation")

// ErrEmptyStack is returned when a finish event arrives with nothing open.
var ErrEmptyStack = fmt.Errorf("%w: pop on empty stack", ErrCorrelationViolation)

// ViolationError describes a finish event whose kind does not match the
// innermost open frame.
type ViolationError struct {
	Want  Kind
	Got   Kind
	Frame string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("correlation violation: %s finished while %s %q was innermost", e.Want, e.Got, e.Frame)
}

// Unwrap lets errors.Is match ErrCorrelationViolation.
func (e *ViolationError) Unwrap() error { return ErrCorrelationViolation }

// UnclosedError reports frames still open when the build finished.
type UnclosedError struct {
	Open []string
}

func (e *UnclosedError) Error() string {
	return fmt.Sprintf("correlation violation: build finished with %d open scope(s): %v", len(e.Open), e.Open)
}

func (e *UnclosedError) Unwrap() error { return ErrCorrelationViolation }

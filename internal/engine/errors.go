package engine

import (
	"errors"
	"fmt"

	"buildlog/internal/correlation"
)

// ErrEngineFailed is returned by every callback after a correlation
// violation. The returned error also wraps the original violation.
var ErrEngineFailed = errors.New("engine failed")

// ErrOutOfOrder reports an event delivered before BuildStarted or after
// BuildFinished.
var ErrOutOfOrder = fmt.Errorf("%w: event outside a running build", correlation.ErrCorrelationViolation)

// ErrMalformedProperties is logged, never returned, when an environment or
// property collection is not a set of string-keyed scalar pairs.
var ErrMalformedProperties = errors.New("malformed properties")

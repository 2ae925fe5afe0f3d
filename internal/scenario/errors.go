package scenario

import (
	"errors"
	"fmt"

	"github.com/shaharia-lab/eventemitter/internal/eventbus"
)

// ErrDepthExceeded is returned by a handler whose actions emit events nested
// deeper than the runner allows.
var ErrDepthExceeded = errors.New("nested emit depth exceeded")

// ValidationError is returned when a scenario document is malformed.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// StepError records a step whose emit returned a handler error.
type StepError struct {
	Index int
	Op    string
	Type  eventbus.EventType
	Err   error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %d (%s %s): %v", e.Index, e.Op, e.Type, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

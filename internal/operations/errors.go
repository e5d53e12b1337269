package operations

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownStage is returned when a selection names an unregistered stage
	ErrUnknownStage = errors.New("unknown stage")
	// ErrSkipStage is returned by a stage that has nothing to do in this run
	ErrSkipStage = errors.New("stage skipped")
)

// StageError ties a failure to the stage that produced it
type StageError struct {
	Stage string
	Cause error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Cause)
}

func (e *StageError) Unwrap() error { return e.Cause }

// Skip wraps a reason into ErrSkipStage
func Skip(reason string) error {
	return fmt.Errorf("%w: %s", ErrSkipStage, reason)
}

package hook

import "errors"

// Sentinel errors for the hook package.
var (
	// ErrInvalidInput is returned when the function to wrap is nil.
	ErrInvalidInput = errors.New("wrapped function cannot be nil")

	// ErrInvalidStage is returned when a stage tag is not one of the four recognized stages.
	ErrInvalidStage = errors.New("invalid hook stage")

	// ErrInvalidHook is returned when a hook is nil or its signature does not fit the stage.
	ErrInvalidHook = errors.New("invalid hook")
)

// StageError wraps a registry failure with the operation and stage involved.
type StageError struct {
	// Op is the operation that failed ("on", "off" or "parse").
	Op string

	// Stage is the stage tag as given by the caller.
	Stage Stage

	// Err is the underlying sentinel error.
	Err error
}

// Error implements the error interface.
func (e *StageError) Error() string {
	return "hook " + e.Op + " " + string(e.Stage) + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error {
	return e.Err
}

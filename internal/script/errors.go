package script

import "errors"

// Sentinel errors for the script package.
var (
	// ErrStateClosed is returned when operations are attempted on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrNotFunction is returned when a global is missing or not a function.
	ErrNotFunction = errors.New("not a lua function")
)

// CallError wraps a failure while calling a Lua function.
type CallError struct {
	// Function is the global name that was called.
	Function string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *CallError) Error() string {
	return "lua " + e.Function + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *CallError) Unwrap() error {
	return e.Err
}

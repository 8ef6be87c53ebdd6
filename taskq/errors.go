package taskq

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Sentinel errors for the taskq package.
var (
	// ErrAlreadyRunning is returned when Start is called on a running loop.
	ErrAlreadyRunning = errors.New("task loop is already running")

	// ErrNotRunning is returned when operations are attempted on a stopped loop.
	ErrNotRunning = errors.New("task loop is not running")

	// ErrStopping is returned by Start while a stopped worker is still draining.
	ErrStopping = errors.New("task loop is still stopping")

	// ErrNilTask is returned when a nil function is scheduled.
	ErrNilTask = errors.New("task cannot be nil")
)

// PanicError is raised by Queue when a task panics. It carries the
// original panic value and the stack where it happened.
type PanicError struct {
	// TaskID identifies the task that panicked.
	TaskID uuid.UUID

	// Value is the value passed to panic().
	Value any

	// Stack is the stack trace at the time of the panic.
	Stack []byte
}

// Error implements the error interface.
func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.TaskID, e.Value)
}

// Unwrap returns the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

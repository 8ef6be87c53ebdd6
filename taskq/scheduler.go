package taskq

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Scheduler accepts work to run after the scheduling call returns.
// Schedule must not block and must not run fn before returning.
type Scheduler interface {
	Schedule(fn func())
}

// SchedulerFunc adapts a function to the Scheduler interface.
type SchedulerFunc func(fn func())

// Schedule implements Scheduler.
func (f SchedulerFunc) Schedule(fn func()) {
	f(fn)
}

// Task is a unit of deferred work.
type Task struct {
	// ID uniquely identifies the task in logs and panic reports.
	ID uuid.UUID

	// Fn is the work to run.
	Fn func()

	// Scheduled is when the task was accepted.
	Scheduled time.Time
}

func newTask(fn func()) Task {
	return Task{
		ID:        uuid.New(),
		Fn:        fn,
		Scheduled: time.Now(),
	}
}

// outcome is what execute observed while running a task.
type outcome struct {
	panicked   bool
	panicValue any
	panicStack []byte

	// duration is how long the task ran; wait is how long it sat queued.
	duration time.Duration
	wait     time.Duration
}

// PanicHandler is called when a task panics on a Loop.
type PanicHandler func(task Task, panicValue any, stack []byte)

// LogPanicHandler returns a PanicHandler that reports panics to logger.
func LogPanicHandler(logger *slog.Logger) PanicHandler {
	return func(task Task, panicValue any, stack []byte) {
		logger.Error("deferred task panicked",
			"task", task.ID.String(),
			"panic", panicValue,
			"stack", string(stack),
		)
	}
}

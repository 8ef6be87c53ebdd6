package taskq

import (
	"runtime/debug"
	"time"
)

// execute runs a task with panic recovery and timing.
func execute(task Task, panicHandler PanicHandler) (out outcome) {
	start := time.Now()
	out.wait = start.Sub(task.Scheduled)

	defer func() {
		out.duration = time.Since(start)

		if r := recover(); r != nil {
			stack := debug.Stack()

			out.panicked = true
			out.panicValue = r
			out.panicStack = stack

			if panicHandler != nil {
				func() {
					// A failing panic handler must not take the worker down.
					defer func() { _ = recover() }()
					panicHandler(task, r, stack)
				}()
			}
		}
	}()

	task.Fn()
	return out
}

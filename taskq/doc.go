// Package taskq runs deferred work after the code that scheduled it returns.
//
// Deferred work is handed to a Scheduler and runs later in first-scheduled,
// first-run order. Two implementations are provided:
//
//   - Queue: tasks wait until Drain is called. Tasks scheduled while draining
//     run in the same Drain. Used where the caller owns the event loop, and in
//     tests that need deterministic timing.
//
//   - Loop: a single worker goroutine runs tasks as soon as it can. Schedule
//     never blocks and never drops work while the loop is running.
//
// Default returns a process-wide Loop that is started on first use.
//
// # Panics
//
// A panicking task is never silently dropped. Queue.Drain lets the panic
// unwind through the draining goroutine after removing the task, so the
// remaining tasks stay queued. Loop recovers the panic, counts it, and passes
// it to its PanicHandler, which logs it with the stack by default.
package taskq

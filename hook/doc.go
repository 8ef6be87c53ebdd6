// Package hook wraps a function with lifecycle hooks.
//
// A wrapped function accepts hooks in four stages:
//
//   - StageOnceBefore: runs before the next call, then is cleared.
//   - StageBefore: runs before every call.
//   - StageOnceAfter: runs after the next call, then is cleared.
//   - StageAfter: runs after every call.
//
// Before hooks receive the call arguments and run synchronously. After hooks
// receive the result followed by the arguments and run as deferred work on a
// taskq.Scheduler, once the call has returned to its caller. Within a
// deferred task OnceAfter hooks run before After hooks.
//
// # Handler Compilation
//
// Every On and Off rebuilds the handler that Call forwards to. The handler
// contains only the stages that currently hold hooks; when none do, the
// handler is the wrapped function itself, so an unhooked Wrapper costs one
// atomic load over a direct call. Once stages rebuild the handler again when
// they are drained.
//
// # Usage
//
//	sum, err := hook.New(func(xs ...int) int { return xs[0] + xs[1] })
//	if err != nil {
//	    return err
//	}
//
//	_ = sum.On(hook.StageBefore, func(xs ...int) { log.Println("args", xs) })
//	_ = sum.On(hook.StageAfter, func(r int, xs ...int) { log.Println("got", r) })
//
//	sum.Call(1, 2) // 3
//
// # Once Stages
//
// Back-to-back calls share the once queues. OnceBefore hooks fire for the
// first call that reaches them. Deferred tasks read the OnceAfter queue when
// they run, so when several calls are made before any deferred work runs,
// only the first task to run sees the OnceAfter hooks, and it passes them
// the result and arguments of its own call.
//
// # Errors
//
// New fails with ErrInvalidInput for a nil function. On and Off fail with
// ErrInvalidStage for an unknown stage, and On fails with ErrInvalidHook for
// a nil hook or one whose signature does not fit the stage. Hooks are not
// guarded: a panicking before hook unwinds through Call, and a panicking
// after hook is reported by the scheduler running it.
//
// # Thread Safety
//
// A Wrapper may be used from multiple goroutines. Registry changes are
// serialized by a mutex that is never held while hooks run, so hooks may
// call On and Off.
//
// Where after hooks run depends on the scheduler. With taskq.Queue they run
// only when the queue is drained, so they never overlap the call that
// scheduled them. The default scheduler, taskq.Default, runs them on a
// worker goroutine as soon as they are queued; an after hook can then start
// before Call has returned to its caller, and it runs concurrently with
// whatever the caller does next. Inject a taskq.Queue when hooks must not
// start until the caller is done.
//
// A once stage stays queued if one of its hooks panics: the next call (or
// the next deferred task, for OnceAfter) runs the whole stage again.
package hook

// Package script binds Lua functions to wrapped functions and hook stages.
//
// A script is a Lua file defining global functions. One of them is wrapped as
// the target, others are registered as hooks:
//
//	function sum(a, b) return a + b end
//	function trace(a, b) log("calling sum", a, b) end
//	function report(result, a, b) log("sum returned", result) end
//
// Before hooks receive the call arguments; after hooks receive the result
// followed by the arguments. Lua values cross the boundary as nil, bool,
// int64, float64, string, []any and map[string]any.
//
// # Sandbox
//
// Only the base, table, string and math libraries are opened, and the
// base functions able to load code from disk or strings are removed. A
// global log function writes to the structured logger.
//
// # Errors
//
// Functions are resolved when they are bound, so a missing function fails
// early with ErrNotFunction. A Lua error raised while a bound function runs
// panics with a *CallError, so it unwinds like any other failing hook.
//
// # Thread Safety
//
// A State serializes all Lua execution with a mutex, so bound functions may
// be called from any goroutine, including a taskq.Loop worker.
package script

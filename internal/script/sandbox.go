package script

import (
	"log/slog"

	lua "github.com/yuin/gopher-lua"
)

// unsafeGlobals can load code from disk or strings and are removed.
var unsafeGlobals = []string{"dofile", "loadfile", "load", "loadstring"}

// installSandbox opens the safe libraries and adds the log function.
func installSandbox(L *lua.LState, logger *slog.Logger) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range unsafeGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	L.SetGlobal("log", L.NewFunction(func(L *lua.LState) int {
		msg := L.CheckString(1)
		n := L.GetTop()
		values := make([]any, 0, n-1)
		for i := 2; i <= n; i++ {
			values = append(values, toGo(L.Get(i)))
		}
		logger.Info(msg, "values", values)
		return 0
	}))
}

package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L:
//
//	engine.log(msg)              logs msg at Info
//	engine.plural(n, one, many)  returns one when n == 1, otherwise many
//
// Precondition: L must be from NewSandboxedState; logger must be non-nil.
// Postcondition: engine global is defined in L.
func RegisterModules(L *lua.LState, logger *zap.Logger) {
	engine := L.NewTable()
	L.SetFuncs(engine, map[string]lua.LGFunction{
		"log": func(L *lua.LState) int {
			logger.Info("lua", zap.String("msg", L.CheckString(1)))
			return 0
		},
		"plural": func(L *lua.LState) int {
			n := L.CheckInt(1)
			if n == 1 {
				L.Push(lua.LString(L.CheckString(2)))
			} else {
				L.Push(lua.LString(L.CheckString(3)))
			}
			return 1
		},
	})
	L.SetGlobal("engine", engine)
}

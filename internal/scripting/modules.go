package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua table into L.
//
//	engine.scope       the VM's scope key
//	engine.log(msg)    Info log tagged with the scope
//	engine.warn(msg)   Warn log tagged with the scope
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, scope string) {
	engine := L.NewTable()
	L.SetField(engine, "scope", lua.LString(scope))
	L.SetField(engine, "log", L.NewFunction(func(L *lua.LState) int {
		m.logger.Info("script", zap.String("scope", scope), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetField(engine, "warn", L.NewFunction(func(L *lua.LState) int {
		m.logger.Warn("script", zap.String("scope", scope), zap.String("msg", L.CheckString(1)))
		return 0
	}))
	L.SetGlobal("engine", engine)
}

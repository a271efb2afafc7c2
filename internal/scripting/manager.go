package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// GlobalScope is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no scope VM is found.
const GlobalScope = "__global__"

// Hook names called by the simulation.
const (
	// HookStateEnter is called as on_state_enter(id, from, to).
	HookStateEnter = "on_state_enter"
	// HookPhaseEnter is called as on_phase_enter(id, from, to).
	HookPhaseEnter = "on_phase_enter"
	// HookLevelUp is called as on_level_up(id, level).
	HookLevelUp = "on_level_up"
)

// vm is one sandboxed LState. mu serializes execution; an LState is single-threaded.
type vm struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per scope and exposes hook dispatch.
// Scopes are enemy template IDs; scripts shared by every scope live in the
// global VM.
//
// Manager is safe for concurrent use.
type Manager struct {
	mu     sync.RWMutex
	states map[string]*vm
	logger *zap.Logger
}

// NewManager creates a Manager.
//
// Precondition: logger must be non-nil.
// Postcondition: Returns a non-nil Manager with an empty scope map.
func NewManager(logger *zap.Logger) *Manager {
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		states: make(map[string]*vm),
		logger: logger,
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine module,
// then executes every *.lua file in scriptDir in lexicographic order. A VM
// already loaded for scope is replaced only when the new one loads cleanly.
//
// Precondition: scope must be non-empty; scriptDir must be a readable directory.
// Postcondition: Scope VM is registered; returns error on Lua load failure.
func (m *Manager) LoadScope(scope, scriptDir string, instLimit int) error {
	return m.loadInto(scope, scriptDir, instLimit)
}

// LoadGlobal creates the GlobalScope VM used as a CallHook fallback.
//
// Precondition: scriptDir must be a readable directory.
// Postcondition: Global VM is registered; returns error on Lua load failure.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.loadInto(GlobalScope, scriptDir, instLimit)
}

// LoadTree loads root's *.lua files as the global VM and every immediate
// subdirectory as the scope named after it.
//
// Precondition: root must be a readable directory.
// Postcondition: Returns the first load error; scopes loaded before it stay registered.
func (m *Manager) LoadTree(root string, instLimit int) error {
	if err := m.LoadGlobal(root, instLimit); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return fmt.Errorf("scripting: reading script root %q: %w", root, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := m.LoadScope(e.Name(), filepath.Join(root, e.Name()), instLimit); err != nil {
			return err
		}
	}
	return nil
}

// ReloadFile reloads the VM that owns the script at path: the scope named by
// its parent directory, or the global VM when the parent is root.
func (m *Manager) ReloadFile(root, path string, instLimit int) error {
	dir := filepath.Dir(path)
	if filepath.Clean(dir) == filepath.Clean(root) {
		return m.LoadGlobal(root, instLimit)
	}
	return m.LoadScope(filepath.Base(dir), dir, instLimit)
}

// Scopes returns the loaded scope keys in sorted order, GlobalScope included.
func (m *Manager) Scopes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.states))
	for k := range m.states {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *Manager) loadInto(key, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, key, err)
	}

	var luaFiles []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			luaFiles = append(luaFiles, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(luaFiles)

	L := NewSandboxedState(instLimit)
	m.RegisterModules(L, key)
	for _, path := range luaFiles {
		release := Budget(L, instLimit)
		err := L.DoFile(path)
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", path, key, err)
		}
	}

	next := &vm{L: L, limit: instLimit}
	m.mu.Lock()
	old := m.states[key]
	m.states[key] = next
	m.mu.Unlock()

	if old != nil {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.logger.Debug("scripting: scope loaded",
		zap.String("scope", key),
		zap.Int("files", len(luaFiles)),
	)
	return nil
}

// CallHook calls the named Lua global function in scope's VM. If the scope
// has no VM, or its VM does not define the hook, the GlobalScope VM is tried
// as a fallback. Returns (LNil, nil) if the hook is not defined anywhere.
// Lua runtime errors, including an exhausted instruction budget, are logged
// at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	candidates := make([]*vm, 0, 2)
	if v, ok := m.states[scope]; ok {
		candidates = append(candidates, v)
	}
	if scope != GlobalScope {
		if v, ok := m.states[GlobalScope]; ok {
			candidates = append(candidates, v)
		}
	}
	m.mu.RUnlock()

	if len(candidates) == 0 {
		m.logger.Debug("scripting: no VM for scope",
			zap.String("scope", scope),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	for _, v := range candidates {
		if ret, found := m.call(v, scope, hook, args); found {
			return ret, nil
		}
	}
	return lua.LNil, nil
}

// call runs hook in v. found is false when v does not define hook.
func (m *Manager) call(v *vm, scope, hook string, args []lua.LValue) (ret lua.LValue, found bool) {
	v.mu.Lock()
	defer v.mu.Unlock()

	fn := v.L.GetGlobal(hook)
	if fn.Type() != lua.LTFunction {
		return lua.LNil, false
	}

	release := Budget(v.L, v.limit)
	defer release()
	if err := v.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, true
	}

	ret = v.L.Get(-1)
	v.L.Pop(1)
	return ret, true
}

// StateEntered calls on_state_enter(id, from, to).
func (m *Manager) StateEntered(scope, id, from, to string) {
	m.CallHook(scope, HookStateEnter, lua.LString(id), lua.LString(from), lua.LString(to)) //nolint:errcheck
}

// PhaseEntered calls on_phase_enter(id, from, to).
func (m *Manager) PhaseEntered(scope, id, from, to string) {
	m.CallHook(scope, HookPhaseEnter, lua.LString(id), lua.LString(from), lua.LString(to)) //nolint:errcheck
}

// LeveledUp calls on_level_up(id, level).
func (m *Manager) LeveledUp(scope, id string, level int) {
	m.CallHook(scope, HookLevelUp, lua.LString(id), lua.LNumber(level)) //nolint:errcheck
}

// Close releases every VM.
//
// Postcondition: Scopes() is empty.
func (m *Manager) Close() {
	m.mu.Lock()
	states := m.states
	m.states = make(map[string]*vm)
	m.mu.Unlock()
	for _, v := range states {
		v.mu.Lock()
		v.L.Close()
		v.mu.Unlock()
	}
}

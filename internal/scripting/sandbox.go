// Package scripting provides sandboxed GopherLua hooks that content authors
// attach to enemy state changes, boss phase changes and level-ups. It has no
// dependency on game domain packages; callers pass plain strings and numbers.
package scripting

import (
	"context"
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// DefaultInstructionLimit is the maximum number of Lua opcodes one script
// load or hook call may execute when no override is configured.
const DefaultInstructionLimit = 100_000

var blockedGlobals = []string{"dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}

// countingContext cancels itself once Done has been polled limit times. The
// GopherLua VM polls Done before every opcode, so the poll count is the
// instruction count.
type countingContext struct {
	context.Context
	cancel    context.CancelFunc
	remaining *atomic.Int64
}

// Done spends one instruction and returns the cancellation channel.
func (c *countingContext) Done() <-chan struct{} {
	if c.remaining.Add(-1) <= 0 {
		c.cancel()
	}
	return c.Context.Done()
}

// Precondition: limit > 0.
func newCountingContext(limit int) (context.Context, context.CancelFunc) {
	base, cancel := context.WithCancel(context.Background())
	rem := &atomic.Int64{}
	rem.Store(int64(limit))
	return &countingContext{
		Context:   base,
		cancel:    cancel,
		remaining: rem,
	}, cancel
}

// effectiveLimit maps a non-positive limit to DefaultInstructionLimit.
func effectiveLimit(instLimit int) int {
	if instLimit <= 0 {
		return DefaultInstructionLimit
	}
	return instLimit
}

// NewSandboxedState creates a VM with only the base, table, string and math
// libraries. Globals that reach the filesystem or load code are removed, and
// the first execution is limited to instLimit opcodes; later executions need
// a fresh Budget.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: the caller owns the returned state and must Close it.
func NewSandboxedState(instLimit int) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	for _, name := range blockedGlobals {
		L.SetGlobal(name, lua.LNil)
	}

	Budget(L, instLimit)
	return L
}

// Budget installs a fresh instruction budget of instLimit opcodes on L and
// returns the function that releases it.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
func Budget(L *lua.LState, instLimit int) context.CancelFunc {
	ctx, cancel := newCountingContext(effectiveLimit(instLimit))
	L.SetContext(ctx)
	return cancel
}

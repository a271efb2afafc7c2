package scripting_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/arpgcore/internal/scripting"
)

func TestSandbox_RemovesHostAccess(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()

	blocked := []string{"os", "io", "debug", "package", "dofile", "loadfile", "load", "loadstring", "collectgarbage", "require"}
	for _, name := range blocked {
		assert.Equal(t, lua.LNil, L.GetGlobal(name), name)
	}
}

func TestSandbox_KeepsPureLibraries(t *testing.T) {
	L := scripting.NewSandboxedState(0)
	defer L.Close()

	require.NoError(t, L.DoString(`
		local lines = {}
		table.insert(lines, string.upper("ayla") .. " reaches " .. math.max(2, 4))
		result = table.concat(lines, ",")
	`))
	assert.Equal(t, lua.LString("AYLA reaches 4"), L.GetGlobal("result"))
}

func TestSandbox_RunawayScriptStops(t *testing.T) {
	L := scripting.NewSandboxedState(50)
	defer L.Close()
	assert.Error(t, L.DoString(`while true do end`))
}

func TestBudget_EachCallGetsAFreshAllowance(t *testing.T) {
	const limit = 2000
	L := scripting.NewSandboxedState(limit)
	defer L.Close()
	require.NoError(t, L.DoString(`function work() local n = 0 for i = 1, 100 do n = n + i end return n end`))

	// Far more total opcodes than one allowance, but each call is renewed.
	for i := 0; i < 50; i++ {
		release := scripting.Budget(L, limit)
		require.NoError(t, L.CallByParam(lua.P{Fn: L.GetGlobal("work"), NRet: 1, Protect: true}), "call %d", i)
		assert.Equal(t, lua.LNumber(5050), L.Get(-1))
		L.Pop(1)
		release()
	}
}

func TestBudget_RecoversAfterExhaustion(t *testing.T) {
	L := scripting.NewSandboxedState(10)
	defer L.Close()
	require.Error(t, L.DoString(`while true do end`))

	release := scripting.Budget(L, 0)
	defer release()
	assert.NoError(t, L.DoString(`local x = 1 + 1`))
}

func TestPropertyRunawayAlwaysStops(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		limit := rapid.IntRange(1, 500).Draw(t, "limit")
		L := scripting.NewSandboxedState(limit)
		defer L.Close()
		if err := L.DoString(`local n = 0 while true do n = n + 1 end`); err == nil {
			t.Fatalf("runaway loop finished under limit %d", limit)
		}
	})
}

package script

import (
	"sync/atomic"

	lua "github.com/yuin/gopher-lua"
)

// ModuleName is the name scripts require the engine module by.
const ModuleName = "classkit"

// Sandbox restricts Lua execution to safe operations and meters host calls.
type Sandbox struct {
	L *lua.LState

	callLimit int64
	callCount int64
}

// NewSandbox creates a sandbox for the Lua state.
func NewSandbox(L *lua.LState, callLimit int64) *Sandbox {
	return &Sandbox{
		L:         L,
		callLimit: callLimit,
	}
}

// Install removes loaders that reach the file system and restricts require
// to the safe built-in modules and the classkit module.
func (s *Sandbox) Install() {
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installSafeRequire()
}

// installSafeRequire clears the module search paths and replaces require
// with a whitelist. Preloaded modules still resolve.
func (s *Sandbox) installSafeRequire() {
	if pkg, ok := s.L.GetGlobal("package").(*lua.LTable); ok {
		s.L.SetField(pkg, "path", lua.LString(""))
		s.L.SetField(pkg, "cpath", lua.LString(""))
	}

	safeModules := map[string]bool{
		"string":   true,
		"table":    true,
		"math":     true,
		ModuleName: true,
	}

	originalRequire := s.L.GetGlobal("require")
	s.L.SetGlobal("require", s.L.NewFunction(func(L *lua.LState) int {
		modName := L.CheckString(1)
		if !safeModules[modName] {
			L.RaiseError("module %q is not available", modName)
			return 0
		}
		L.Push(originalRequire)
		L.Push(lua.LString(modName))
		L.Call(1, 1)
		return 1
	}))
}

// ResetCallCount resets the host call counter.
func (s *Sandbox) ResetCallCount() {
	atomic.StoreInt64(&s.callCount, 0)
}

// CallCount returns the current host call count.
func (s *Sandbox) CallCount() int64 {
	return atomic.LoadInt64(&s.callCount)
}

// IncrementCalls adds to the call count and reports whether the limit is
// exceeded.
func (s *Sandbox) IncrementCalls(n int64) bool {
	if s.callLimit <= 0 {
		return false
	}
	return atomic.AddInt64(&s.callCount, n) > s.callLimit
}

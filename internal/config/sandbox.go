package config

import (
	"context"

	lua "github.com/yuin/gopher-lua"
)

// safeLibs are the only standard libraries opened in the settings VM.
var safeLibs = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// newSandboxedVM creates a Lua VM for evaluating settings files.
//
// Only the base, table, string and math libraries are opened, so os, io,
// package and debug are never reachable. The base functions that load or
// run external code are removed as well. Execution stops when ctx is done.
func newSandboxedVM(ctx context.Context) *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range safeLibs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	for _, name := range []string{"require", "module", "dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	if ctx != nil {
		L.SetContext(ctx)
	}
	return L
}

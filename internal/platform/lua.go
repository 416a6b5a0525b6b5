package platform

import (
	lua "github.com/yuin/gopher-lua"
)

// InjectPlatformTable creates a read-only platform table describing target
// and injects it into the Lua state as a global.
// This should be called before loading any user settings code.
func InjectPlatformTable(L *lua.LState, target Target) error {
	platformTable := L.NewTable()
	caps := target.Capabilities()

	L.SetField(platformTable, "os", lua.LString(target.Platform.String()))
	L.SetField(platformTable, "arch", lua.LString(target.Arch.String()))
	L.SetField(platformTable, "exe_suffix", lua.LString(caps.ExeSuffix))
	L.SetField(platformTable, "archive_ext", lua.LString(caps.Format.Ext()))

	// OS booleans
	L.SetField(platformTable, "is_linux", lua.LBool(target.Platform == Linux || target.Platform == Alpine))
	L.SetField(platformTable, "is_alpine", lua.LBool(target.Platform == Alpine))
	L.SetField(platformTable, "is_macos", lua.LBool(target.Platform == Darwin))
	L.SetField(platformTable, "is_windows", lua.LBool(target.Platform == Win32))

	// Architecture booleans
	L.SetField(platformTable, "is_amd64", lua.LBool(target.Arch == Amd64))
	L.SetField(platformTable, "is_arm64", lua.LBool(target.Arch == Arm64))

	// when(condition, value) returns value if condition is true, nil otherwise
	whenFunc := L.NewFunction(func(L *lua.LState) int {
		cond := L.CheckBool(1)
		value := L.Get(2)
		if cond {
			L.Push(value)
		} else {
			L.Push(lua.LNil)
		}
		return 1
	})
	L.SetField(platformTable, "when", whenFunc)

	L.SetGlobal("platform", makeReadOnly(L, platformTable))

	return nil
}

// makeReadOnly returns a proxy that redirects reads to table and rejects
// every write.
func makeReadOnly(L *lua.LState, table *lua.LTable) *lua.LTable {
	mt := L.NewTable()

	L.SetField(mt, "__index", table)
	L.SetField(mt, "__newindex", L.NewFunction(func(L *lua.LState) int {
		L.RaiseError("platform table is read-only and cannot be modified")
		return 0
	}))
	L.SetField(mt, "__metatable", lua.LString("protected"))

	proxy := L.NewTable()
	L.SetMetatable(proxy, mt)

	return proxy
}

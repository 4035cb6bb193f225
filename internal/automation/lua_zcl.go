//go:build !no_automation

package automation

import (
	"encoding/binary"

	lua "github.com/yuin/gopher-lua"
)

// registerZCLModule registers the `zcl` global table in a Lua state. Attribute access
// targets the cluster whose command is being handled.
func registerZCLModule(L *lua.LState, cs *ClusterScript) {
	mod := L.NewTable()

	mod.RawSetString("cluster", L.NewFunction(func(L *lua.LState) int {
		if cs.cluster == nil {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(cs.cluster.ID()))
		return 1
	}))

	mod.RawSetString("get", L.NewFunction(func(L *lua.LState) int {
		return zclGet(L, cs)
	}))

	mod.RawSetString("set", L.NewFunction(func(L *lua.LState) int {
		return zclSet(L, cs)
	}))

	mod.RawSetString("u8", L.NewFunction(zclU8))
	mod.RawSetString("u16", L.NewFunction(zclU16))

	mod.RawSetString("log", L.NewFunction(func(L *lua.LState) int {
		cs.logger.Info("script log", "msg", L.CheckString(1))
		return 0
	}))

	L.SetGlobal("zcl", mod)
}

// zcl.get(attr_id) returns the decoded attribute value, or nil.
func zclGet(L *lua.LState, cs *ClusterScript) int {
	id := uint16(L.CheckInt(1))
	if cs.cluster == nil {
		L.Push(lua.LNil)
		return 1
	}
	a := cs.cluster.Attribute(id)
	if a == nil {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(goToLua(L, a.Value()))
	return 1
}

// zcl.set(attr_id, value) returns true, or false and an error message.
func zclSet(L *lua.LState, cs *ClusterScript) int {
	id := uint16(L.CheckInt(1))
	v := L.CheckAny(2)
	if cs.cluster == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("no command in progress"))
		return 2
	}
	a := cs.cluster.Attribute(id)
	if a == nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString("attribute not found"))
		return 2
	}
	if err := a.SetValue(luaToGo(v)); err != nil {
		L.Push(lua.LFalse)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(lua.LTrue)
	return 1
}

// zcl.u8(payload, pos) reads one byte at 1-based pos, or nil past the end.
func zclU8(L *lua.LState) int {
	b := L.CheckString(1)
	pos := L.CheckInt(2)
	if pos < 1 || pos > len(b) {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(b[pos-1]))
	return 1
}

// zcl.u16(payload, pos) reads a little-endian uint16 at 1-based pos.
func zclU16(L *lua.LState) int {
	b := L.CheckString(1)
	pos := L.CheckInt(2)
	if pos < 1 || pos+1 > len(b) {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(binary.LittleEndian.Uint16([]byte(b[pos-1 : pos+1]))))
	return 1
}

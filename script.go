// script.go - Lua automation hook over the simulator primitives

package main

import (
	"fmt"
	"strconv"
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// RunScript executes the Lua file at path against sim, exposing step(),
// reg(name), setreg(name, val), mem(addr, size) and break(addr) as Lua
// globals bound to this simulator instance. It is a thin automation
// layer over the same primitives the interactive CLI and GDB stub use.
// Because `break` is a Lua keyword, scripts reach that global as
// _G["break"](addr).
func RunScript(sim *Simulator, path string) error {
	L := lua.NewState()
	defer L.Close()

	bind := func(name string, fn lua.LGFunction) { L.SetGlobal(name, L.NewFunction(fn)) }

	bind("step", func(L *lua.LState) int {
		st := sim.Step()
		L.Push(lua.LString(st.String()))
		return 1
	})

	bind("reg", func(L *lua.LState) int {
		name := L.CheckString(1)
		v, ok := readRegByName(sim, name)
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(v))
		return 1
	})

	bind("setreg", func(L *lua.LState) int {
		name := L.CheckString(1)
		value := uint32(L.CheckNumber(2))
		writeRegByName(sim, name, value)
		return 0
	})

	bind("mem", func(L *lua.LState) int {
		addr := uint32(L.CheckNumber(1))
		size := uint32(L.CheckNumber(2))
		v, st := sim.Bus.Read(addr, size)
		if st != StatusOk {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(v))
		return 1
	})

	bind("break", func(L *lua.LState) int {
		addr := uint32(L.CheckNumber(1))
		st := sim.Debugger.Add(addr)
		L.Push(lua.LBool(st == StatusOk))
		return 1
	})

	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

func regIndexByName(name string) (idx int, isXPSR bool, ok bool) {
	name = strings.ToLower(name)
	switch name {
	case "sp":
		return 13, false, true
	case "lr":
		return 14, false, true
	case "pc":
		return 15, false, true
	case "xpsr":
		return 0, true, true
	}
	if strings.HasPrefix(name, "r") {
		if n, err := strconv.Atoi(name[1:]); err == nil && n >= 0 && n <= 15 {
			return n, false, true
		}
	}
	return 0, false, false
}

func readRegByName(sim *Simulator, name string) (uint32, bool) {
	idx, isXPSR, ok := regIndexByName(name)
	if !ok {
		return 0, false
	}
	if isXPSR {
		return sim.Core.GetXPSR(), true
	}
	return sim.Core.GetReg(idx), true
}

func writeRegByName(sim *Simulator, name string, value uint32) {
	idx, isXPSR, ok := regIndexByName(name)
	if !ok {
		return
	}
	if isXPSR {
		sim.Core.SetXPSR(value)
		return
	}
	sim.Core.SetReg(idx, value)
}

// simulator.go - orchestrator: owns every subsystem, drives the
// tick -> step -> breakpoint cycle

package main

import (
	"fmt"
	"os"
)

const maxPeripherals = 16

// memory map, per the firmware's view of the machine. flashSize and
// sramSize are defined in memory.go alongside the containers they size.
const (
	flashAliasBase = 0x00000000
	flashBase      = 0x08000000
	sramBase       = 0x20000000
	tim2Base       = 0x40000000
	tim2Size       = 0x00000400
	usart1Base     = 0x40013800
	usart1Size     = 0x00000400

	tim2IRQ   = 28
	usart1IRQ = 37
)

// Peripheral bundles a bus registration with optional Tick/Reset hooks.
// A zero Size opts out of bus registration (useful for a peripheral that
// only needs ticking, e.g. something purely time-driven).
type Peripheral struct {
	Base, Size uint32
	Ctx        any
	Read       BusReadFunc
	Write      BusWriteFunc
	Tick       func()
	Reset      func()
}

// Simulator owns Memory, NVIC, Bus, Core, Debugger, Timer and UART for
// the lifetime of the process. Cross-references among subsystems
// (Core->Bus, Core->NVIC, Timer->NVIC, UART->NVIC) are non-owning.
type Simulator struct {
	Memory    *Memory
	NVIC      *NVIC
	Bus       *Bus
	Core      *Core
	Debugger  *Debugger
	Timer     *Timer
	UART      *UART

	peripherals []Peripheral

	halted  bool
	running bool
}

// NewSimulator constructs every subsystem in dependency order and wires
// the standard STM32F103C8T6 memory map: Flash aliased at both
// 0x00000000 and 0x08000000, SRAM at 0x20000000, TIM2 at 0x40000000,
// USART1 at 0x40013800, with UART output defaulted to stdout.
func NewSimulator() *Simulator {
	s := &Simulator{
		Memory:   NewMemory(),
		NVIC:     NewNVIC(),
		Debugger: NewDebugger(),
	}
	s.Bus = NewBus()

	mustRegister(s.Bus.RegisterRegion(flashAliasBase, flashSize, s.Memory, s.Memory.FlashRead, s.Memory.FlashWrite))
	mustRegister(s.Bus.RegisterRegion(flashBase, flashSize, s.Memory, s.Memory.FlashRead, s.Memory.FlashWrite))
	mustRegister(s.Bus.RegisterRegion(sramBase, sramSize, s.Memory, s.Memory.SRAMRead, s.Memory.SRAMWrite))

	s.Timer = NewTimer(s.NVIC, tim2IRQ)
	s.UART = NewUART(s.NVIC, usart1IRQ, stdoutOutput, nil)

	s.AddPeripheral(Peripheral{
		Base: tim2Base, Size: tim2Size, Ctx: s.Timer,
		Read: s.Timer.Read, Write: s.Timer.Write,
		Tick: s.Timer.Tick, Reset: s.Timer.Reset,
	})
	s.AddPeripheral(Peripheral{
		Base: usart1Base, Size: usart1Size, Ctx: s.UART,
		Read: s.UART.Read, Write: s.UART.Write,
		Tick: s.UART.Tick, Reset: s.UART.Reset,
	})

	s.Core = NewCore(s.Bus, s.NVIC)

	return s
}

func mustRegister(st Status) {
	if st != StatusOk {
		panic(fmt.Sprintf("simulator: fixed memory map registration failed: %v", st))
	}
}

// stdoutOutput is the default UART output sink: write and flush to
// stdout, one byte at a time.
func stdoutOutput(c byte, _ any) {
	os.Stdout.Write([]byte{c})
}

// AddPeripheral registers p on the bus (when Size != 0) and appends it
// to the tickable list, up to the fixed capacity.
func (s *Simulator) AddPeripheral(p Peripheral) Status {
	if p.Size != 0 {
		if st := s.Bus.RegisterRegion(p.Base, p.Size, p.Ctx, p.Read, p.Write); st != StatusOk {
			return st
		}
	}
	if len(s.peripherals) >= maxPeripherals {
		return StatusError
	}
	s.peripherals = append(s.peripherals, p)
	return StatusOk
}

// Step ticks every registered peripheral, retires one core instruction,
// then checks the breakpoint table against the resulting PC, in that
// fixed order.
func (s *Simulator) Step() Status {
	if s.halted {
		return StatusHalted
	}

	for _, p := range s.peripherals {
		if p.Tick != nil {
			p.Tick()
		}
	}

	if st := s.Core.Step(); st != StatusOk {
		s.halted = true
		return st
	}

	if s.Debugger.Check(s.Core.PC()) {
		s.halted = true
		return StatusBreakpointHit
	}

	return StatusOk
}

// Run steps until halted or a non-Ok, non-BreakpointHit status.
func (s *Simulator) Run() Status {
	s.running = true
	defer func() { s.running = false }()
	for {
		st := s.Step()
		if st != StatusOk {
			return st
		}
	}
}

// Halt stops a Run loop at the next opportunity.
func (s *Simulator) Halt() {
	s.halted = true
	s.running = false
}

// Resume clears a sticky halt (from a breakpoint or a prior fault) so
// Step/Run can proceed again. Used by the CLI and the GDB stub before
// continuing or single-stepping past a stop.
func (s *Simulator) Resume() {
	s.halted = false
}

// Reset resets every peripheral, the NVIC, Memory (Flash preserved) and
// the Core, then clears halted/running.
func (s *Simulator) Reset() {
	for _, p := range s.peripherals {
		if p.Reset != nil {
			p.Reset()
		}
	}
	s.NVIC.Reset()
	s.Memory.Reset()
	s.Core.Reset()
	s.halted = false
	s.running = false
}

// Halted reports whether the simulator is currently stopped.
func (s *Simulator) Halted() bool { return s.halted }

// Running reports whether a Run loop is currently in progress.
func (s *Simulator) Running() bool { return s.running }

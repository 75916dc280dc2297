package main

import (
	"encoding/binary"
	"testing"
)

func putWord(flash *[flashSize]byte, offset uint32, v uint32) {
	binary.LittleEndian.PutUint32(flash[offset:offset+4], v)
}

func putHalf(flash *[flashSize]byte, offset uint32, v uint16) {
	binary.LittleEndian.PutUint16(flash[offset:offset+2], v)
}

// TestIntegrationTimerIRQHandler exercises the Timer -> NVIC -> Core
// exception entry/exit path end to end: TIM2 overflows, the core
// preempts its infinite loop into the IRQ28 handler, runs it, and
// returns.
func TestIntegrationTimerIRQHandler(t *testing.T) {
	sim := NewSimulator()
	putWord(&sim.Memory.flash, 0, 0x20004FF0)          // initial SP
	putWord(&sim.Memory.flash, 4, 0x08000081)           // initial PC (thumb bit set)
	putWord(&sim.Memory.flash, (16+28)*4, 0x080000C1) // IRQ28 vector
	putHalf(&sim.Memory.flash, 0x80, 0x2400)            // MOV R4, #0
	putHalf(&sim.Memory.flash, 0x82, 0xE7FE)            // B .
	putHalf(&sim.Memory.flash, 0xC0, 0x2401)            // MOV R4, #1
	putHalf(&sim.Memory.flash, 0xC2, 0x4770)            // BX LR
	sim.Reset()

	sim.Bus.Write(tim2Base+tim2ARR, 5, 4)
	sim.Bus.Write(tim2Base+tim2DIER, 1, 4)
	sim.Bus.Write(tim2Base+tim2CR1, 1, 4)
	sim.NVIC.EnableIRQ(tim2IRQ)
	sim.NVIC.SetPriority(tim2IRQ, 0)

	if sim.Core.PC() != 0x08000080 {
		t.Fatalf("initial PC = 0x%X, want 0x08000080", sim.Core.PC())
	}

	var enteredHandler, ranHandler, returned bool
	for i := 0; i < 20 && !returned; i++ {
		if st := sim.Step(); st != StatusOk {
			t.Fatalf("step %d: %v", i, st)
		}
		switch {
		case !enteredHandler && sim.Core.PC() == 0x080000C0:
			enteredHandler = true
			if sim.Core.currentIRQ == 0 {
				t.Fatalf("entered handler vector but currentIRQ is still 0")
			}
		case enteredHandler && !ranHandler && sim.Core.GetReg(4) == 1:
			ranHandler = true
		case ranHandler && !returned && sim.Core.PC() == 0x08000082:
			returned = true
		}
	}

	if !enteredHandler || !ranHandler || !returned {
		t.Fatalf("handler lifecycle incomplete: entered=%v ran=%v returned=%v (pc=0x%X)",
			enteredHandler, ranHandler, returned, sim.Core.PC())
	}
	if sim.Core.currentIRQ != 0 {
		t.Fatalf("currentIRQ after return = %d, want 0", sim.Core.currentIRQ)
	}
	sr, _ := sim.Bus.Read(tim2Base+tim2SR, 4)
	if sr&tim2SRUIF == 0 {
		t.Fatalf("TIM2 SR.UIF not set after overflow")
	}
}

func TestIntegrationBreakpointHalt(t *testing.T) {
	sim := NewSimulator()
	putWord(&sim.Memory.flash, 0, 0x20004FF0)
	putWord(&sim.Memory.flash, 4, 0x08000081)
	putHalf(&sim.Memory.flash, 0x80, 0x2000) // MOV R0, #0
	putHalf(&sim.Memory.flash, 0x82, 0x3001) // ADD R0, #1
	putHalf(&sim.Memory.flash, 0x84, 0x3001) // ADD R0, #1
	putHalf(&sim.Memory.flash, 0x86, 0x3001) // ADD R0, #1
	putHalf(&sim.Memory.flash, 0x88, 0xE7FE) // B .
	sim.Reset()

	sim.Debugger.Add(0x08000086)

	st := sim.Run()
	if st != StatusBreakpointHit {
		t.Fatalf("run status = %v, want StatusBreakpointHit", st)
	}
	if sim.Core.PC() != 0x08000086 {
		t.Fatalf("PC = 0x%X, want 0x08000086", sim.Core.PC())
	}
	if sim.Core.GetReg(0) != 2 {
		t.Fatalf("R0 = %d, want 2", sim.Core.GetReg(0))
	}
	if !sim.Halted() {
		t.Fatalf("simulator should be halted")
	}
}

func TestIntegrationUARTOutput(t *testing.T) {
	sim := NewSimulator()
	putWord(&sim.Memory.flash, 0, 0x20004FF0)
	putWord(&sim.Memory.flash, 4, 0x08000081)
	putHalf(&sim.Memory.flash, 0x80, 0xE7FE) // B .
	sim.Reset()

	var got []byte
	sim.UART.SetOutput(func(c byte, _ any) { got = append(got, c) }, nil)

	sim.Bus.Write(usart1Base+usartCR1, usartCR1UE|usartCR1TE, 4)
	sim.Bus.Write(usart1Base+usartDR, 'Q', 1)

	if st := sim.Step(); st != StatusOk {
		t.Fatalf("step: %v", st)
	}
	if len(got) != 1 || got[0] != 'Q' {
		t.Fatalf("output = %v, want exactly one 'Q'", got)
	}
}

func TestIntegrationCMPBEQ(t *testing.T) {
	sim := NewSimulator()
	putWord(&sim.Memory.flash, 0, 0x20004FF0)
	putWord(&sim.Memory.flash, 4, 0x08000081)
	putHalf(&sim.Memory.flash, 0x80, 0x200A) // MOV R0, #0xA
	putHalf(&sim.Memory.flash, 0x82, 0x210A) // MOV R1, #0xA
	putHalf(&sim.Memory.flash, 0x84, 0x4288) // CMP R0, R1
	putHalf(&sim.Memory.flash, 0x86, 0xD000) // BEQ +0
	putHalf(&sim.Memory.flash, 0x88, 0x22FF) // MOV R2, #0xFF (skipped)
	putHalf(&sim.Memory.flash, 0x8A, 0x2301) // MOV R3, #1
	putHalf(&sim.Memory.flash, 0x8C, 0xE7FE) // B .
	sim.Reset()

	for i := 0; i < 5; i++ {
		if st := sim.Step(); st != StatusOk {
			t.Fatalf("step %d: %v", i, st)
		}
	}

	if sim.Core.GetReg(2) != 0 {
		t.Fatalf("R2 = 0x%X, want 0 (MOV R2,#0xFF must have been skipped)", sim.Core.GetReg(2))
	}
	if sim.Core.GetReg(3) != 1 {
		t.Fatalf("R3 = 0x%X, want 1", sim.Core.GetReg(3))
	}
	if !sim.Core.flagZ() {
		t.Fatalf("Z flag not set after CMP of equal operands")
	}
}

func TestIntegrationBLThenBX(t *testing.T) {
	sim := NewSimulator()
	putWord(&sim.Memory.flash, 0, 0x20004FF0)
	putWord(&sim.Memory.flash, 4, 0x08000081)
	putHalf(&sim.Memory.flash, 0x80, 0xF000) // BL +8 (first halfword)
	putHalf(&sim.Memory.flash, 0x82, 0xF804) // BL +8 (second halfword)
	putHalf(&sim.Memory.flash, 0x84, 0x22BB) // MOV R2, #0xBB
	putHalf(&sim.Memory.flash, 0x86, 0xE7FE) // B .
	putHalf(&sim.Memory.flash, 0x8C, 0x20AA) // MOV R0, #0xAA
	putHalf(&sim.Memory.flash, 0x8E, 0x4770) // BX LR
	sim.Reset()

	sim.Step()
	if sim.Core.PC() != 0x0800008C {
		t.Fatalf("after BL, PC = 0x%X, want 0x0800008C", sim.Core.PC())
	}
	if sim.Core.GetReg(14) != 0x08000085 {
		t.Fatalf("after BL, LR = 0x%X, want 0x08000085", sim.Core.GetReg(14))
	}

	sim.Step()
	if sim.Core.GetReg(0) != 0xAA {
		t.Fatalf("R0 = 0x%X, want 0xAA", sim.Core.GetReg(0))
	}

	sim.Step()
	if sim.Core.PC() != 0x08000084 {
		t.Fatalf("after BX LR, PC = 0x%X, want 0x08000084", sim.Core.PC())
	}

	sim.Step()
	if sim.Core.GetReg(2) != 0xBB {
		t.Fatalf("R2 = 0x%X, want 0xBB", sim.Core.GetReg(2))
	}
}

func TestSimulatorResetPreservesFlashClearsSRAM(t *testing.T) {
	sim := NewSimulator()
	putWord(&sim.Memory.flash, 0, 0x20004FF0)
	putWord(&sim.Memory.flash, 4, 0x08000081)
	sim.Memory.sram[0] = 0xFF
	sim.Reset()
	if sim.Memory.sram[0] != 0 {
		t.Fatalf("reset left stale sram byte")
	}
	if sim.Core.PC() != 0x08000080 {
		t.Fatalf("reset did not reload PC from vector table: got 0x%X", sim.Core.PC())
	}
}

// core.go - Thumb/Thumb-2 decoder-executor for the Cortex-M3 subset

package main

// xPSR bit positions.
const (
	xpsrN = 31
	xpsrZ = 30
	xpsrC = 29
	xpsrV = 28
	xpsrT = 24
)

// excReturnMask is EXC_RETURN's identifying mask: any PC write whose
// value matches (value & excReturnMask) == excReturnMask is an exception
// return rather than an ordinary branch.
const excReturnMask = 0xFFFFFFF0

// excReturnThreadMSP is the EXC_RETURN value used on exception entry:
// return to Thread mode, using the Main Stack Pointer.
const excReturnThreadMSP = 0xFFFFFFF9

// Core is the Cortex-M3 instruction-retirement engine: registers, xPSR,
// and the fetch/decode/execute/exception-handling loop. It borrows the
// Bus and NVIC; it does not own them.
type Core struct {
	r    [16]uint32
	xpsr uint32

	interruptible bool
	currentIRQ    int // 0 = thread mode, otherwise irq+1
	cycles        uint64

	bus  *Bus
	nvic *NVIC

	// pcWritten is set by a handler that wrote PC directly; it tells Step
	// not to apply the default +2/+4 advance.
	pcWritten bool
}

// NewCore returns a Core borrowing bus and nvic, already reset from
// whatever the vector table currently holds.
func NewCore(bus *Bus, nvic *NVIC) *Core {
	c := &Core{bus: bus, nvic: nvic}
	c.Reset()
	return c
}

// Reset clears every register and xPSR except the Thumb bit, then loads
// the initial SP and PC from the vector table at addresses 0 and 4.
func (c *Core) Reset() {
	for i := range c.r {
		c.r[i] = 0
	}
	c.xpsr = 1 << xpsrT
	c.interruptible = true
	c.currentIRQ = 0
	c.cycles = 0

	sp, _ := c.bus.Read(0x00000000, 4)
	pc, _ := c.bus.Read(0x00000004, 4)
	c.r[13] = sp
	c.r[15] = pc &^ 1
}

// PC returns the address of the instruction currently being executed.
func (c *Core) PC() uint32 { return c.r[15] }

// SP returns the current stack pointer.
func (c *Core) SP() uint32 { return c.r[13] }

// regRead returns the value of register n as an instruction operand: PC
// reads as the current instruction's address plus 4, matching the
// Cortex-M3 pipeline convention used throughout the Thumb encodings.
func (c *Core) regRead(n int) uint32 {
	if n == 15 {
		return c.r[15] + 4
	}
	return c.r[n]
}

// regWrite assigns register n. Writes to PC always clear bit 0 and mark
// the step so the default PC advance is skipped; they are also checked
// for the EXC_RETURN magic value to trigger exception exit.
func (c *Core) regWrite(n int, value uint32) Status {
	if n != 15 {
		c.r[n] = value
		return StatusOk
	}
	if value&excReturnMask == excReturnMask {
		return c.exceptionReturn()
	}
	c.r[15] = value &^ 1
	c.pcWritten = true
	return StatusOk
}

// GetReg returns register n (0..15) directly, with no PC+4 pipeline
// adjustment: a raw debug-time read, distinct from regRead's
// instruction-operand semantics.
func (c *Core) GetReg(n int) uint32 { return c.r[n] }

// SetReg assigns register n (0..15) directly, bypassing the
// EXC_RETURN/bit-0 handling regWrite applies during instruction
// execution. Used by the GDB stub and the Lua scripting hook for
// debug-time register edits.
func (c *Core) SetReg(n int, value uint32) { c.r[n] = value }

// GetXPSR returns the raw xPSR word.
func (c *Core) GetXPSR() uint32 { return c.xpsr }

// SetXPSR assigns the raw xPSR word.
func (c *Core) SetXPSR(value uint32) { c.xpsr = value }

// setFlag sets or clears a single xPSR bit.
func (c *Core) setFlag(bit uint, v bool) {
	if v {
		c.xpsr |= 1 << bit
	} else {
		c.xpsr &^= 1 << bit
	}
}

func (c *Core) flagN() bool { return c.xpsr&(1<<xpsrN) != 0 }
func (c *Core) flagZ() bool { return c.xpsr&(1<<xpsrZ) != 0 }
func (c *Core) flagC() bool { return c.xpsr&(1<<xpsrC) != 0 }
func (c *Core) flagV() bool { return c.xpsr&(1<<xpsrV) != 0 }

func (c *Core) setNZ(result uint32) {
	c.setFlag(xpsrN, result&0x80000000 != 0)
	c.setFlag(xpsrZ, result == 0)
}

// fetch16 reads one halfword at addr via the bus.
func (c *Core) fetch16(addr uint32) (uint16, Status) {
	v, st := c.bus.Read(addr, 2)
	return uint16(v), st
}

// is32BitPrefix reports whether the top five bits of a halfword mark it
// as the first half of a 32-bit Thumb-2 instruction.
func is32BitPrefix(first uint16) bool {
	top5 := first >> 11
	return top5 == 0b11101 || top5 == 0b11110 || top5 == 0b11111
}

// Step fetches, decodes and executes exactly one instruction, then
// performs exception entry if the NVIC has a higher-priority pending
// enabled IRQ than whatever is currently active.
func (c *Core) Step() Status {
	c.pcWritten = false
	pc := c.r[15]

	first, st := c.fetch16(pc)
	if st != StatusOk {
		return st
	}

	var execStatus Status
	if is32BitPrefix(first) {
		second, st2 := c.fetch16(pc + 2)
		if st2 != StatusOk {
			return st2
		}
		execStatus = c.execute32(first, second)
		if execStatus == StatusOk && !c.pcWritten {
			c.r[15] = pc + 4
		}
	} else {
		execStatus = c.execute16(first)
		if execStatus == StatusOk && !c.pcWritten {
			c.r[15] = pc + 2
		}
	}

	if execStatus != StatusOk {
		return execStatus
	}

	c.cycles++

	c.maybeEnterException()

	return StatusOk
}

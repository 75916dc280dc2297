// core_exception.go - exception entry/exit and the NVIC-driven preemption check

package main

// maybeEnterException stacks a frame and jumps to the vector table entry
// for the highest-priority pending enabled IRQ, if one is more urgent
// than whatever is currently active and the core is in an interruptible
// state.
func (c *Core) maybeEnterException() Status {
	if !c.interruptible {
		return StatusOk
	}
	irq, ok := c.nvic.GetPendingIRQ()
	if !ok {
		return StatusOk
	}

	sp := c.r[13] - 32
	frame := [8]uint32{c.r[0], c.r[1], c.r[2], c.r[3], c.r[12], c.r[14], c.r[15], c.xpsr}
	for i, v := range frame {
		if st := c.bus.Write(sp+uint32(i*4), v, 4); st != StatusOk {
			return st
		}
	}
	c.r[13] = sp

	c.r[14] = excReturnThreadMSP

	vectorAddr := uint32(16+irq) * 4
	handler, st := c.bus.Read(vectorAddr, 4)
	if st != StatusOk {
		return st
	}
	c.r[15] = handler &^ 1
	c.pcWritten = true

	c.nvic.Acknowledge(irq)
	c.currentIRQ = irq + 1

	return StatusOk
}

// exceptionReturn is invoked when a write to PC carries the EXC_RETURN
// magic value, whether via BX or POP {..., PC}. It unstacks the frame
// pushed on entry, in the opposite order, and tells the NVIC the IRQ is
// complete.
func (c *Core) exceptionReturn() Status {
	sp := c.r[13]
	var frame [8]uint32
	for i := range frame {
		v, st := c.bus.Read(sp+uint32(i*4), 4)
		if st != StatusOk {
			return st
		}
		frame[i] = v
	}

	c.r[0], c.r[1], c.r[2], c.r[3] = frame[0], frame[1], frame[2], frame[3]
	c.r[12] = frame[4]
	c.r[14] = frame[5]
	c.r[15] = frame[6] &^ 1
	c.xpsr = frame[7]
	c.r[13] = sp + 32

	c.pcWritten = true

	if c.currentIRQ != 0 {
		c.nvic.Complete(c.currentIRQ - 1)
		c.currentIRQ = 0
	}

	return StatusOk
}

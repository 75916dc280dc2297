// timer.go - TIM2 model: prescaler, auto-reload counter, overflow IRQ

package main

// TIM2 register offsets from the peripheral's bus base.
const (
	tim2CR1  = 0x00
	tim2DIER = 0x0C
	tim2SR   = 0x10
	tim2CNT  = 0x24
	tim2PSC  = 0x28
	tim2ARR  = 0x2C
)

const (
	tim2CR1CEN  = 1 << 0
	tim2DIERUIE = 1 << 0
	tim2SRUIF   = 1 << 0
)

// Timer models the general-purpose 32-bit timer (TIM2). nvic is a
// non-owning back-reference used to raise the overflow IRQ.
type Timer struct {
	cr1  uint32
	dier uint32
	sr   uint32
	cnt  uint32
	psc  uint32
	arr  uint32

	prescaleCounter uint32

	nvic *NVIC
	irq  int
}

// NewTimer returns a Timer wired to nvic on the given IRQ line, in its
// reset state.
func NewTimer(nvic *NVIC, irq int) *Timer {
	t := &Timer{nvic: nvic, irq: irq}
	t.Reset()
	return t
}

// Reset zeros every register except ARR, which resets to its hardware
// default of all-ones (a free-running counter until firmware configures
// an actual reload value).
func (t *Timer) Reset() {
	t.cr1 = 0
	t.dier = 0
	t.sr = 0
	t.cnt = 0
	t.psc = 0
	t.arr = 0xFFFFFFFF
	t.prescaleCounter = 0
}

// Tick advances the timer by one simulator tick: no-op while CEN is
// clear, otherwise a prescaler-gated increment of CNT with overflow
// detection against ARR.
func (t *Timer) Tick() {
	if t.cr1&tim2CR1CEN == 0 {
		return
	}
	t.prescaleCounter++
	if t.prescaleCounter <= t.psc {
		return
	}
	t.prescaleCounter = 0

	t.cnt++
	if t.arr > 0 && t.cnt >= t.arr {
		t.cnt = 0
		t.sr |= tim2SRUIF
		if t.dier&tim2DIERUIE != 0 {
			t.nvic.SetPending(t.irq)
		}
	}
}

// Read implements the bus-compatible register read callback.
func (t *Timer) Read(ctx any, offset uint32, size uint32) (uint32, Status) {
	switch offset {
	case tim2CR1:
		return t.cr1, StatusOk
	case tim2DIER:
		return t.dier, StatusOk
	case tim2SR:
		return t.sr, StatusOk
	case tim2CNT:
		return t.cnt, StatusOk
	case tim2PSC:
		return t.psc, StatusOk
	case tim2ARR:
		return t.arr, StatusOk
	default:
		return 0, StatusOk
	}
}

// Write implements the bus-compatible register write callback. SR follows
// the STM32 write-zero-to-clear convention: writing a bit as 0 clears it,
// writing 1 leaves it set, modeled as reg &= value.
func (t *Timer) Write(ctx any, offset uint32, value uint32, size uint32) Status {
	switch offset {
	case tim2CR1:
		t.cr1 = value
	case tim2DIER:
		t.dier = value
	case tim2SR:
		t.sr &= value
	case tim2CNT:
		t.cnt = value
	case tim2PSC:
		t.psc = value
	case tim2ARR:
		t.arr = value
	default:
		return StatusInvalidAddress
	}
	return StatusOk
}

// nvic.go - Nested Vectored Interrupt Controller

package main

const numIRQs = 43

// noActivePriority is the sentinel current_priority value when no IRQ is
// active: lower priority numbers are more urgent, so "nothing active"
// sorts below everything.
const noActivePriority = 0xFF

// NVIC models the 43 interrupt lines as four parallel arrays plus a
// scalar tracking the priority of whichever IRQ is currently the most
// urgent active one.
type NVIC struct {
	pending         [numIRQs]bool
	active          [numIRQs]bool
	enabled         [numIRQs]bool
	priority        [numIRQs]uint8
	currentPriority uint8
}

// NewNVIC returns an NVIC in its reset state.
func NewNVIC() *NVIC {
	n := &NVIC{}
	n.Reset()
	return n
}

// Reset zeros the boolean and priority arrays and sets currentPriority to
// the "nothing active" sentinel.
func (n *NVIC) Reset() {
	for i := 0; i < numIRQs; i++ {
		n.pending[i] = false
		n.active[i] = false
		n.enabled[i] = false
		n.priority[i] = 0
	}
	n.currentPriority = noActivePriority
}

func (n *NVIC) SetPending(irq int) {
	if irq >= 0 && irq < numIRQs {
		n.pending[irq] = true
	}
}

func (n *NVIC) ClearPending(irq int) {
	if irq >= 0 && irq < numIRQs {
		n.pending[irq] = false
	}
}

func (n *NVIC) EnableIRQ(irq int) {
	if irq >= 0 && irq < numIRQs {
		n.enabled[irq] = true
	}
}

func (n *NVIC) DisableIRQ(irq int) {
	if irq >= 0 && irq < numIRQs {
		n.enabled[irq] = false
	}
}

func (n *NVIC) SetPriority(irq int, p uint8) {
	if irq >= 0 && irq < numIRQs {
		n.priority[irq] = p
	}
}

// GetPendingIRQ selects the best pending, enabled candidate whose priority
// is strictly more urgent (lower) than currentPriority. Among candidates
// the lowest priority value wins; ties break toward the lowest index.
func (n *NVIC) GetPendingIRQ() (irq int, ok bool) {
	best := -1
	for i := 0; i < numIRQs; i++ {
		if !n.pending[i] || !n.enabled[i] {
			continue
		}
		if n.priority[i] >= n.currentPriority {
			continue
		}
		if best == -1 || n.priority[i] < n.priority[best] {
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// Acknowledge transitions irq from pending to active and raises
// currentPriority to its priority.
func (n *NVIC) Acknowledge(irq int) {
	if irq < 0 || irq >= numIRQs {
		return
	}
	n.pending[irq] = false
	n.active[irq] = true
	n.currentPriority = n.priority[irq]
}

// Complete clears irq's active flag and recomputes currentPriority as the
// minimum priority across whatever is still active, or the sentinel if
// nothing is.
func (n *NVIC) Complete(irq int) {
	if irq >= 0 && irq < numIRQs {
		n.active[irq] = false
	}
	min := uint8(noActivePriority)
	any := false
	for i := 0; i < numIRQs; i++ {
		if n.active[i] && (!any || n.priority[i] < min) {
			min = n.priority[i]
			any = true
		}
	}
	if any {
		n.currentPriority = min
	} else {
		n.currentPriority = noActivePriority
	}
}

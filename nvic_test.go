package main

import "testing"

func TestNVICPriorityPreemption(t *testing.T) {
	n := NewNVIC()
	n.EnableIRQ(1)
	n.EnableIRQ(2)
	n.SetPriority(1, 5)
	n.SetPriority(2, 10)
	n.SetPending(1)
	n.SetPending(2)

	irq, ok := n.GetPendingIRQ()
	if !ok || irq != 1 {
		t.Fatalf("got irq=%d ok=%v, want irq=1 (lower priority value wins)", irq, ok)
	}
}

func TestNVICActiveBlocksLowerPriority(t *testing.T) {
	n := NewNVIC()
	n.EnableIRQ(1)
	n.EnableIRQ(2)
	n.SetPriority(1, 5)
	n.SetPriority(2, 10)

	n.SetPending(1)
	irq, ok := n.GetPendingIRQ()
	if !ok || irq != 1 {
		t.Fatalf("setup: got irq=%d ok=%v", irq, ok)
	}
	n.Acknowledge(1)

	n.SetPending(2)
	if _, ok := n.GetPendingIRQ(); ok {
		t.Fatalf("equal-or-lower priority irq should not preempt active irq")
	}
}

func TestNVICCompleteRecomputesCurrentPriority(t *testing.T) {
	n := NewNVIC()
	n.EnableIRQ(1)
	n.SetPriority(1, 5)
	n.SetPending(1)
	irq, _ := n.GetPendingIRQ()
	n.Acknowledge(irq)
	if n.currentPriority != 5 {
		t.Fatalf("currentPriority after acknowledge = %d, want 5", n.currentPriority)
	}
	n.Complete(irq)
	if n.currentPriority != noActivePriority {
		t.Fatalf("currentPriority after complete = %d, want sentinel", n.currentPriority)
	}
}

func TestNVICResetClearsState(t *testing.T) {
	n := NewNVIC()
	n.EnableIRQ(3)
	n.SetPending(3)
	n.SetPriority(3, 1)
	n.Reset()
	if n.pending[3] || n.enabled[3] || n.active[3] || n.priority[3] != 0 {
		t.Fatalf("reset left stale state")
	}
	if n.currentPriority != noActivePriority {
		t.Fatalf("reset did not restore sentinel currentPriority")
	}
}

func TestNVICDisabledNeverSelected(t *testing.T) {
	n := NewNVIC()
	n.SetPending(1)
	n.SetPriority(1, 0)
	if _, ok := n.GetPendingIRQ(); ok {
		t.Fatalf("disabled irq should never be selected")
	}
}

// debugger.go - fixed-capacity breakpoint table and PC match

package main

const maxBreakpoints = 64

// Debugger is an unordered set of up to 64 breakpoint addresses. It makes
// no ordering guarantees across Add/Remove/List calls.
type Debugger struct {
	addrs []uint32
}

// NewDebugger returns an empty Debugger.
func NewDebugger() *Debugger {
	return &Debugger{addrs: make([]uint32, 0, maxBreakpoints)}
}

// Add inserts addr if not already present. Idempotent; returns StatusError
// once the table is at capacity.
func (d *Debugger) Add(addr uint32) Status {
	for _, a := range d.addrs {
		if a == addr {
			return StatusOk
		}
	}
	if len(d.addrs) >= maxBreakpoints {
		return StatusError
	}
	d.addrs = append(d.addrs, addr)
	return StatusOk
}

// Remove deletes addr, compacting the list. Returns StatusError if addr
// was not set.
func (d *Debugger) Remove(addr uint32) Status {
	for i, a := range d.addrs {
		if a == addr {
			d.addrs = append(d.addrs[:i], d.addrs[i+1:]...)
			return StatusOk
		}
	}
	return StatusError
}

// Check reports whether pc matches a set breakpoint.
func (d *Debugger) Check(pc uint32) bool {
	for _, a := range d.addrs {
		if a == pc {
			return true
		}
	}
	return false
}

// List returns the current breakpoint set in no particular order.
func (d *Debugger) List() []uint32 {
	out := make([]uint32, len(d.addrs))
	copy(out, d.addrs)
	return out
}

package main

import "testing"

func TestDebuggerAddCheckRemove(t *testing.T) {
	d := NewDebugger()
	if st := d.Add(0x08000100); st != StatusOk {
		t.Fatalf("add: %v", st)
	}
	if !d.Check(0x08000100) {
		t.Fatalf("check should report the set breakpoint")
	}
	if st := d.Remove(0x08000100); st != StatusOk {
		t.Fatalf("remove: %v", st)
	}
	if d.Check(0x08000100) {
		t.Fatalf("check should not report a removed breakpoint")
	}
}

func TestDebuggerAddIdempotent(t *testing.T) {
	d := NewDebugger()
	d.Add(0x10)
	d.Add(0x10)
	if len(d.List()) != 1 {
		t.Fatalf("duplicate add grew the table: %v", d.List())
	}
}

func TestDebuggerRemoveAbsentIsError(t *testing.T) {
	d := NewDebugger()
	if st := d.Remove(0x10); st != StatusError {
		t.Fatalf("remove of absent address = %v, want StatusError", st)
	}
}

func TestDebuggerCapacity(t *testing.T) {
	d := NewDebugger()
	for i := 0; i < maxBreakpoints; i++ {
		if st := d.Add(uint32(i)); st != StatusOk {
			t.Fatalf("add %d: %v", i, st)
		}
	}
	if st := d.Add(uint32(maxBreakpoints)); st != StatusError {
		t.Fatalf("add beyond capacity = %v, want StatusError", st)
	}
}

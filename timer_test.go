package main

import "testing"

func TestTimerOverflowRaisesIRQ(t *testing.T) {
	n := NewNVIC()
	n.EnableIRQ(28)
	n.SetPriority(28, 0)
	tm := NewTimer(n, 28)

	const psc, arr = 2, 5
	tm.Write(nil, tim2PSC, psc, 4)
	tm.Write(nil, tim2ARR, arr, 4)
	tm.Write(nil, tim2DIER, tim2DIERUIE, 4)
	tm.Write(nil, tim2CR1, tim2CR1CEN, 4)

	ticks := (psc + 1) * arr
	for i := 0; i < ticks; i++ {
		tm.Tick()
	}

	cnt, _ := tm.Read(nil, tim2CNT, 4)
	if cnt != 0 {
		t.Fatalf("CNT after overflow = %d, want 0", cnt)
	}
	sr, _ := tm.Read(nil, tim2SR, 4)
	if sr&tim2SRUIF == 0 {
		t.Fatalf("SR.UIF not set after overflow")
	}
	if !n.pending[28] {
		t.Fatalf("NVIC pending[28] not set after overflow")
	}
}

func TestTimerStoppedWhenCENClear(t *testing.T) {
	n := NewNVIC()
	tm := NewTimer(n, 28)
	tm.Write(nil, tim2ARR, 1, 4)
	for i := 0; i < 10; i++ {
		tm.Tick()
	}
	cnt, _ := tm.Read(nil, tim2CNT, 4)
	if cnt != 0 {
		t.Fatalf("CNT advanced while CEN=0: got %d", cnt)
	}
}

func TestTimerSRWriteAndClear(t *testing.T) {
	n := NewNVIC()
	tm := NewTimer(n, 28)
	tm.sr = tim2SRUIF
	tm.Write(nil, tim2SR, ^uint32(tim2SRUIF), 4)
	sr, _ := tm.Read(nil, tim2SR, 4)
	if sr&tim2SRUIF != 0 {
		t.Fatalf("write-AND did not clear UIF")
	}
}

func TestTimerResetRestoresARR(t *testing.T) {
	n := NewNVIC()
	tm := NewTimer(n, 28)
	tm.Write(nil, tim2ARR, 5, 4)
	tm.Write(nil, tim2CR1, tim2CR1CEN, 4)
	tm.Reset()
	arr, _ := tm.Read(nil, tim2ARR, 4)
	if arr != 0xFFFFFFFF {
		t.Fatalf("reset ARR = 0x%X, want 0xFFFFFFFF", arr)
	}
	cr1, _ := tm.Read(nil, tim2CR1, 4)
	if cr1 != 0 {
		t.Fatalf("reset CR1 = 0x%X, want 0", cr1)
	}
}

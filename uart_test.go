package main

import "testing"

func TestUARTTransmitSequence(t *testing.T) {
	n := NewNVIC()
	n.EnableIRQ(37)
	n.SetPriority(37, 0)

	var out []byte
	u := NewUART(n, 37, func(c byte, _ any) { out = append(out, c) }, nil)

	u.Write(nil, usartCR1, usartCR1UE|usartCR1TE, 4)
	for _, c := range []byte("hi!") {
		u.Write(nil, usartDR, uint32(c), 1)
		u.Tick()
	}

	if string(out) != "hi!" {
		t.Fatalf("output = %q, want %q", out, "hi!")
	}
	sr, _ := u.Read(nil, usartSR, 4)
	if sr&(usartSRTXE|usartSRTC) != usartSRTXE|usartSRTC {
		t.Fatalf("SR after transmit = 0x%X, want TXE|TC set", sr)
	}
}

func TestUARTIncomingCharAndDequeue(t *testing.T) {
	n := NewNVIC()
	u := NewUART(n, 37, nil, nil)
	u.Write(nil, usartCR1, usartCR1UE|usartCR1RXNEIE, 4)
	n.EnableIRQ(37)

	u.IncomingChar('A')
	sr, _ := u.Read(nil, usartSR, 4)
	if sr&usartSRRXNE == 0 {
		t.Fatalf("RXNE not set after incoming char")
	}
	if !n.pending[37] {
		t.Fatalf("NVIC pending not raised for RXNE")
	}

	v, _ := u.Read(nil, usartDR, 4)
	if v != 'A' {
		t.Fatalf("DR read = %q, want 'A'", v)
	}
	sr, _ = u.Read(nil, usartSR, 4)
	if sr&usartSRRXNE != 0 {
		t.Fatalf("RXNE still set after FIFO drained")
	}
}

func TestUARTFIFOOverflowDrops(t *testing.T) {
	n := NewNVIC()
	u := NewUART(n, 37, nil, nil)
	for i := 0; i < rxFIFOSize+4; i++ {
		u.IncomingChar(byte(i))
	}
	if u.rxCount != rxFIFOSize {
		t.Fatalf("rxCount = %d, want %d (capacity)", u.rxCount, rxFIFOSize)
	}
}

func TestUARTWriteDRIgnoredWithoutUE(t *testing.T) {
	n := NewNVIC()
	u := NewUART(n, 37, nil, nil)
	u.Write(nil, usartDR, 'x', 1)
	if u.txHasData {
		t.Fatalf("DR write accepted without CR1.UE set")
	}
}

func TestUARTResetState(t *testing.T) {
	n := NewNVIC()
	u := NewUART(n, 37, nil, nil)
	u.Write(nil, usartCR1, usartCR1UE, 4)
	u.IncomingChar('z')
	u.Reset()
	sr, _ := u.Read(nil, usartSR, 4)
	if sr != usartSRTXE|usartSRTC {
		t.Fatalf("reset SR = 0x%X, want TXE|TC", sr)
	}
	if u.rxCount != 0 {
		t.Fatalf("reset left rx fifo non-empty")
	}
}

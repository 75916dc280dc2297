package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestMemoryLittleEndianRoundtrip(t *testing.T) {
	m := NewMemory()
	cases := []struct {
		name   string
		size   uint32
		value  uint32
	}{
		{"byte", 1, 0xAB},
		{"halfword", 2, 0xBEEF},
		{"word", 4, 0xDEADBEEF},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if st := m.SRAMWrite(nil, 0x10, c.value, c.size); st != StatusOk {
				t.Fatalf("write: %v", st)
			}
			got, st := m.SRAMRead(nil, 0x10, c.size)
			if st != StatusOk {
				t.Fatalf("read: %v", st)
			}
			want := c.value
			if c.size < 4 {
				want &= (1 << (c.size * 8)) - 1
			}
			if got != want {
				t.Fatalf("got 0x%X, want 0x%X", got, want)
			}
		})
	}
}

func TestMemoryFlashReadOnly(t *testing.T) {
	m := NewMemory()
	m.flash[0] = 0x42
	if st := m.FlashWrite(nil, 0, 0x99, 1); st != StatusError {
		t.Fatalf("flash write status = %v, want StatusError", st)
	}
	v, st := m.FlashRead(nil, 0, 1)
	if st != StatusOk || v != 0x42 {
		t.Fatalf("flash contents changed: got 0x%X, status %v", v, st)
	}
}

func TestMemoryResetPreservesFlash(t *testing.T) {
	m := NewMemory()
	m.flash[5] = 0x77
	m.SRAMWrite(nil, 0, 0xFF, 1)
	m.Reset()
	if m.flash[5] != 0x77 {
		t.Fatalf("reset clobbered flash")
	}
	v, _ := m.SRAMRead(nil, 0, 1)
	if v != 0 {
		t.Fatalf("reset did not clear sram: got 0x%X", v)
	}
}

func TestMemoryLoadBinary(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fw.bin")
	data := []byte{0x01, 0x02, 0x03, 0x04}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write test fixture: %v", err)
	}

	m := NewMemory()
	if st := m.LoadBinary(path); st != StatusOk {
		t.Fatalf("load: %v", st)
	}
	for i, b := range data {
		if m.flash[i] != b {
			t.Fatalf("flash[%d] = 0x%X, want 0x%X", i, m.flash[i], b)
		}
	}
}

func TestMemoryLoadBinaryMissingFile(t *testing.T) {
	m := NewMemory()
	if st := m.LoadBinary(filepath.Join(t.TempDir(), "nope.bin")); st != StatusError {
		t.Fatalf("load missing file status = %v, want StatusError", st)
	}
}

func TestMemorySRAMOutOfRange(t *testing.T) {
	m := NewMemory()
	if st := m.SRAMWrite(nil, 0x20000, 1, 4); st != StatusInvalidAddress {
		t.Fatalf("out of range write status = %v, want StatusInvalidAddress", st)
	}
}

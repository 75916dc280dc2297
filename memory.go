// memory.go - Flash and SRAM containers for the STM32F103C8T6

package main

import (
	"encoding/binary"
	"fmt"
	"os"
)

const (
	flashSize = 64 * 1024
	sramSize  = 20 * 1024
)

// Memory owns the two byte containers backing the emulated address space.
// Flash is writable only through LoadBinary; at runtime it is read-only.
// SRAM is read/write. All multi-byte access is little-endian.
type Memory struct {
	flash [flashSize]byte
	sram  [sramSize]byte
}

// NewMemory returns a zeroed Memory.
func NewMemory() *Memory {
	return &Memory{}
}

// Reset clears SRAM and preserves Flash.
func (m *Memory) Reset() {
	for i := range m.sram {
		m.sram[i] = 0
	}
}

// LoadBinary writes up to 64 KiB of path into Flash starting at offset 0.
// A longer file is silently truncated; a missing or empty file is an error.
func (m *Memory) LoadBinary(path string) Status {
	data, err := os.ReadFile(path)
	if err != nil {
		return StatusError
	}
	if len(data) == 0 {
		return StatusError
	}
	n := copy(m.flash[:], data)
	_ = n
	return StatusOk
}

func sizeOk(size uint32) bool {
	return size == 1 || size == 2 || size == 4
}

// FlashRead implements the bus-compatible read callback for the Flash
// region. ctx is unused; offset is relative to the region's base.
func (m *Memory) FlashRead(ctx any, offset uint32, size uint32) (uint32, Status) {
	if !sizeOk(size) || uint64(offset)+uint64(size) > flashSize {
		return 0, StatusInvalidAddress
	}
	return readLE(m.flash[offset:offset+size], size), StatusOk
}

// FlashWrite always fails: Flash is read-only at runtime.
func (m *Memory) FlashWrite(ctx any, offset uint32, value uint32, size uint32) Status {
	return StatusError
}

// SRAMRead implements the bus-compatible read callback for SRAM.
func (m *Memory) SRAMRead(ctx any, offset uint32, size uint32) (uint32, Status) {
	if !sizeOk(size) || uint64(offset)+uint64(size) > sramSize {
		return 0, StatusInvalidAddress
	}
	return readLE(m.sram[offset:offset+size], size), StatusOk
}

// SRAMWrite implements the bus-compatible write callback for SRAM.
func (m *Memory) SRAMWrite(ctx any, offset uint32, value uint32, size uint32) Status {
	if !sizeOk(size) || uint64(offset)+uint64(size) > sramSize {
		return StatusInvalidAddress
	}
	writeLE(m.sram[offset:offset+size], value, size)
	return StatusOk
}

func readLE(b []byte, size uint32) uint32 {
	switch size {
	case 1:
		return uint32(b[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(b))
	case 4:
		return binary.LittleEndian.Uint32(b)
	default:
		panic(fmt.Sprintf("memory: invalid access size %d", size))
	}
}

func writeLE(b []byte, value uint32, size uint32) {
	switch size {
	case 1:
		b[0] = byte(value)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(value))
	case 4:
		binary.LittleEndian.PutUint32(b, value)
	default:
		panic(fmt.Sprintf("memory: invalid access size %d", size))
	}
}

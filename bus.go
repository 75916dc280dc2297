// bus.go - address-range router dispatching load/store to a registered handler

package main

import "log"

const maxBusRegions = 16

// BusReadFunc and BusWriteFunc are the callbacks a region is registered
// with. offset is relative to the region's base, not the absolute address.
type BusReadFunc func(ctx any, offset uint32, size uint32) (uint32, Status)
type BusWriteFunc func(ctx any, offset uint32, value uint32, size uint32) Status

// busRegion is an immutable record once registered: base, size, the
// opaque context handed back to the callbacks, and the callbacks
// themselves. Either callback may be nil.
type busRegion struct {
	base  uint32
	size  uint32
	ctx   any
	read  BusReadFunc
	write BusWriteFunc
}

func (r *busRegion) contains(addr uint32) bool {
	return addr >= r.base && uint64(addr) < uint64(r.base)+uint64(r.size)
}

// Bus routes loads and stores to whichever region was registered over a
// given address. Two regions may share a backing store (Flash is mapped
// at both 0x00000000 and 0x08000000 with the same context), but no two
// regions may overlap in address range: an overlapping registration is
// rejected.
type Bus struct {
	regions []busRegion
}

// NewBus returns an empty Bus.
func NewBus() *Bus {
	return &Bus{regions: make([]busRegion, 0, maxBusRegions)}
}

func overlaps(aBase, aSize, bBase, bSize uint32) bool {
	aEnd := uint64(aBase) + uint64(aSize)
	bEnd := uint64(bBase) + uint64(bSize)
	return uint64(aBase) < bEnd && uint64(bBase) < aEnd
}

// RegisterRegion adds a new region to the bus. It fails with StatusError
// if the bus is full or the new region overlaps an existing one.
func (b *Bus) RegisterRegion(base, size uint32, ctx any, read BusReadFunc, write BusWriteFunc) Status {
	if len(b.regions) >= maxBusRegions {
		return StatusError
	}
	for _, r := range b.regions {
		if overlaps(base, size, r.base, r.size) {
			return StatusError
		}
	}
	b.regions = append(b.regions, busRegion{base: base, size: size, ctx: ctx, read: read, write: write})
	return StatusOk
}

// lookup returns the first registered region covering addr, in
// registration order, or nil if none match.
func (b *Bus) lookup(addr uint32) *busRegion {
	for i := range b.regions {
		if b.regions[i].contains(addr) {
			return &b.regions[i]
		}
	}
	return nil
}

// Read reads size bytes (1, 2 or 4) at addr. An unmapped address reads as
// zero without mutating any state, and logs a bus fault.
func (b *Bus) Read(addr uint32, size uint32) (uint32, Status) {
	r := b.lookup(addr)
	if r == nil {
		log.Printf("bus: fault reading 0x%08X (unmapped)", addr)
		return 0, StatusOk
	}
	if r.read == nil {
		return 0, StatusOk
	}
	return r.read(r.ctx, addr-r.base, size)
}

// Write writes value (size bytes) at addr. An unmapped address is an
// InvalidAddress error.
func (b *Bus) Write(addr uint32, value uint32, size uint32) Status {
	r := b.lookup(addr)
	if r == nil {
		return StatusInvalidAddress
	}
	if r.write == nil {
		return StatusInvalidAddress
	}
	return r.write(r.ctx, addr-r.base, value, size)
}

// core_decode32.go - 32-bit Thumb-2 decode/execute: BL, B.W, UDF.W

package main

// execute32 dispatches a 32-bit Thumb-2 instruction given its two
// halfwords (first at the lower address). Only the encodings the
// bootstrap-level code generated by a typical toolchain actually emits
// are covered; anything else is reported as an invalid instruction
// rather than silently ignored.
func (c *Core) execute32(first, second uint16) Status {
	if first&0xF800 == 0xF000 {
		switch second & 0xD000 {
		case 0xD000: // second[15:14]==11, bit12==1 -> BL
			return execBL(c, first, second)
		case 0x9000: // second[15:14]==10, bit12==1 -> B.W
			return execBW(c, first, second)
		}
	}
	if first&0xFFF0 == 0xF7F0 && second&0xF000 == 0xA000 {
		return execUDFW(c)
	}
	return StatusInvalidInstruction
}

// branch32Offset decodes the shared BL/B.W 25-bit signed byte offset
// from the S/J1/J2/imm10/imm11 fields.
func branch32Offset(first, second uint16) int32 {
	s := uint32((first >> 10) & 1)
	imm10 := uint32(first & 0x3FF)
	j1 := uint32((second >> 13) & 1)
	j2 := uint32((second >> 11) & 1)
	imm11 := uint32(second & 0x7FF)

	i1 := 1 - (j1 ^ s)
	i2 := 1 - (j2 ^ s)

	imm := (s << 24) | (i1 << 23) | (i2 << 22) | (imm10 << 12) | (imm11 << 1)
	if s != 0 {
		return int32(imm | 0xFE000000)
	}
	return int32(imm)
}

func execBL(c *Core, first, second uint16) Status {
	offset := branch32Offset(first, second)
	lr := (c.r[15] + 4) | 1
	target := uint32(int64(c.r[15]) + 4 + int64(offset))
	c.r[14] = lr
	return c.regWrite(15, target)
}

func execBW(c *Core, first, second uint16) Status {
	offset := branch32Offset(first, second)
	target := uint32(int64(c.r[15]) + 4 + int64(offset))
	return c.regWrite(15, target)
}

// execUDFW is the 32-bit undefined-instruction encoding; the emulator
// treats it as a no-op so boot code that pads with it keeps running.
func execUDFW(c *Core) Status {
	return StatusOk
}

// core_decode16.go - 16-bit Thumb decode/execute dispatch table

package main

type thumb16Handler func(c *Core, instr uint16) Status

type thumb16Entry struct {
	mask, pattern uint16
	exec          thumb16Handler
}

// thumb16Table is ordered most specific to least specific; the first
// entry whose (instr & mask) == pattern wins.
var thumb16Table = []thumb16Entry{
	{0xFFFF, 0xBF00, execNOP},

	{0xFF87, 0x4700, execBX},
	{0xFF00, 0x4400, execADDHi},
	{0xFF00, 0x4500, execCMPHi},
	{0xFF00, 0x4600, execMOVHi},

	{0xFFC0, 0x4000, execAND},
	{0xFFC0, 0x4040, execEOR},
	{0xFFC0, 0x4080, execLSLReg},
	{0xFFC0, 0x40C0, execLSRReg},
	{0xFFC0, 0x4100, execASRReg},
	{0xFFC0, 0x4140, execADC},
	{0xFFC0, 0x4180, execSBC},
	{0xFFC0, 0x41C0, execROR},
	{0xFFC0, 0x4200, execTST},
	{0xFFC0, 0x4240, execNEG},
	{0xFFC0, 0x4280, execCMPReg},
	{0xFFC0, 0x42C0, execCMN},
	{0xFFC0, 0x4300, execORR},
	{0xFFC0, 0x4340, execMUL},
	{0xFFC0, 0x4380, execBIC},
	{0xFFC0, 0x43C0, execMVN},

	{0xF800, 0x0000, execLSLImm},
	{0xF800, 0x0800, execLSRImm},
	{0xF800, 0x1000, execASRImm},

	{0xFE00, 0x1800, execADDReg},
	{0xFE00, 0x1A00, execSUBReg},
	{0xFE00, 0x1C00, execADDImm3},
	{0xFE00, 0x1E00, execSUBImm3},

	{0xF800, 0x2000, execMOVImm8},
	{0xF800, 0x2800, execCMPImm8},
	{0xF800, 0x3000, execADDImm8},
	{0xF800, 0x3800, execSUBImm8},

	{0xF800, 0x4800, execLDRPCRel},

	{0xFE00, 0x5000, execSTRReg},
	{0xFE00, 0x5200, execSTRHReg},
	{0xFE00, 0x5400, execSTRBReg},
	{0xFE00, 0x5600, execLDRSBReg},
	{0xFE00, 0x5800, execLDRReg},
	{0xFE00, 0x5A00, execLDRHReg},
	{0xFE00, 0x5C00, execLDRBReg},
	{0xFE00, 0x5E00, execLDRSHReg},

	{0xF800, 0x6000, execSTRImm},
	{0xF800, 0x6800, execLDRImm},
	{0xF800, 0x7000, execSTRBImm},
	{0xF800, 0x7800, execLDRBImm},

	{0xF800, 0x8000, execSTRHImm},
	{0xF800, 0x8800, execLDRHImm},

	{0xF800, 0x9000, execSTRSP},
	{0xF800, 0x9800, execLDRSP},

	{0xF800, 0xA000, execADR},
	{0xF800, 0xA800, execADDSPRd},

	{0xFF80, 0xB000, execADDSPImm},
	{0xFF80, 0xB080, execSUBSPImm},

	{0xFE00, 0xB400, execPUSH},
	{0xFE00, 0xBC00, execPOP},

	{0xFF00, 0xDF00, execSVC16},
	{0xF000, 0xD000, execBCond},

	{0xF800, 0xE000, execB},
}

// execute16 dispatches a 16-bit Thumb instruction through thumb16Table.
func (c *Core) execute16(instr uint16) Status {
	for _, e := range thumb16Table {
		if instr&e.mask == e.pattern {
			return e.exec(c, instr)
		}
	}
	return StatusInvalidInstruction
}

func regLo(instr uint16, shift uint) int { return int((instr >> shift) & 0x7) }

func signExtend8(v uint8) int32  { return int32(int8(v)) }
func signExtend11(v uint16) int32 {
	if v&0x400 != 0 {
		return int32(v) - 0x800
	}
	return int32(v)
}
func signExtend8to32(v uint8) uint32   { return uint32(int32(int8(v))) }
func signExtend16to32(v uint16) uint32 { return uint32(int32(int16(v))) }

// --- shift by immediate ---

func execLSLImm(c *Core, instr uint16) Status {
	imm5 := uint((instr >> 6) & 0x1F)
	rm := regLo(instr, 3)
	rd := regLo(instr, 0)
	value := c.r[rm]
	var result uint32
	if imm5 == 0 {
		result = value
	} else {
		c.setFlag(xpsrC, (value>>(32-imm5))&1 != 0)
		result = value << imm5
	}
	c.r[rd] = result
	c.setNZ(result)
	return StatusOk
}

func execLSRImm(c *Core, instr uint16) Status {
	imm5 := uint((instr >> 6) & 0x1F)
	rm := regLo(instr, 3)
	rd := regLo(instr, 0)
	value := c.r[rm]
	var result uint32
	if imm5 == 0 {
		c.setFlag(xpsrC, value&0x80000000 != 0)
		result = 0
	} else {
		c.setFlag(xpsrC, (value>>(imm5-1))&1 != 0)
		result = value >> imm5
	}
	c.r[rd] = result
	c.setNZ(result)
	return StatusOk
}

func execASRImm(c *Core, instr uint16) Status {
	imm5 := uint((instr >> 6) & 0x1F)
	rm := regLo(instr, 3)
	rd := regLo(instr, 0)
	value := c.r[rm]
	var result uint32
	if imm5 == 0 {
		c.setFlag(xpsrC, value&0x80000000 != 0)
		result = uint32(int32(value) >> 31)
	} else {
		c.setFlag(xpsrC, (value>>(imm5-1))&1 != 0)
		result = uint32(int32(value) >> imm5)
	}
	c.r[rd] = result
	c.setNZ(result)
	return StatusOk
}

// --- add/subtract register and 3-bit immediate ---

func execADDReg(c *Core, instr uint16) Status {
	rm, rn, rd := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := addFlags(c.r[rn], c.r[rm])
	c.r[rd] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execSUBReg(c *Core, instr uint16) Status {
	rm, rn, rd := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := subFlags(c.r[rn], c.r[rm])
	c.r[rd] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execADDImm3(c *Core, instr uint16) Status {
	imm3 := uint32((instr >> 6) & 0x7)
	rn, rd := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := addFlags(c.r[rn], imm3)
	c.r[rd] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execSUBImm3(c *Core, instr uint16) Status {
	imm3 := uint32((instr >> 6) & 0x7)
	rn, rd := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := subFlags(c.r[rn], imm3)
	c.r[rd] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

// --- move/compare/add/subtract 8-bit immediate ---

func execMOVImm8(c *Core, instr uint16) Status {
	rd := int((instr >> 8) & 0x7)
	result := uint32(instr & 0xFF)
	c.r[rd] = result
	c.setNZ(result)
	return StatusOk
}

func execCMPImm8(c *Core, instr uint16) Status {
	rn := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	result, carry, overflow := subFlags(c.r[rn], imm8)
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execADDImm8(c *Core, instr uint16) Status {
	rdn := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	result, carry, overflow := addFlags(c.r[rdn], imm8)
	c.r[rdn] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execSUBImm8(c *Core, instr uint16) Status {
	rdn := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	result, carry, overflow := subFlags(c.r[rdn], imm8)
	c.r[rdn] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

// --- ALU register operations ---

func execAND(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := c.r[rdn] & c.r[rm]
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execEOR(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := c.r[rdn] ^ c.r[rm]
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func regShiftByRegister(c *Core, rdn, rm int, arithmetic bool) uint32 {
	value := c.r[rdn]
	amount := c.r[rm] & 0xFF
	if amount == 0 {
		return value
	}
	var result uint32
	var carryOut bool
	if arithmetic {
		if amount < 32 {
			carryOut = (value>>(amount-1))&1 != 0
			result = uint32(int32(value) >> amount)
		} else {
			carryOut = value&0x80000000 != 0
			result = uint32(int32(value) >> 31)
		}
	} else {
		if amount < 32 {
			carryOut = (value>>(amount-1))&1 != 0
			result = value >> amount
		} else if amount == 32 {
			carryOut = value&0x80000000 != 0
			result = 0
		} else {
			carryOut = false
			result = 0
		}
	}
	c.setFlag(xpsrC, carryOut)
	return result
}

func execLSLReg(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	value := c.r[rdn]
	amount := c.r[rm] & 0xFF
	var result uint32
	if amount == 0 {
		result = value
	} else if amount < 32 {
		c.setFlag(xpsrC, (value>>(32-amount))&1 != 0)
		result = value << amount
	} else if amount == 32 {
		c.setFlag(xpsrC, value&1 != 0)
		result = 0
	} else {
		c.setFlag(xpsrC, false)
		result = 0
	}
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execLSRReg(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := regShiftByRegister(c, rdn, rm, false)
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execASRReg(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := regShiftByRegister(c, rdn, rm, true)
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execADC(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := adcFlags(c.r[rdn], c.r[rm], c.flagC())
	c.r[rdn] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execSBC(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := sbcFlags(c.r[rdn], c.r[rm], c.flagC())
	c.r[rdn] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execROR(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	value := c.r[rdn]
	shiftAmt := c.r[rm] & 0xFF
	result := value
	if shiftAmt != 0 {
		amt := shiftAmt % 32
		if amt == 0 {
			c.setFlag(xpsrC, value&0x80000000 != 0)
		} else {
			result = (value >> amt) | (value << (32 - amt))
			c.setFlag(xpsrC, (value>>(amt-1))&1 != 0)
		}
	}
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execTST(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := c.r[rdn] & c.r[rm]
	c.setNZ(result)
	return StatusOk
}

func execNEG(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := subFlags(0, c.r[rm])
	c.r[rdn] = result
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execCMPReg(c *Core, instr uint16) Status {
	rm, rn := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := subFlags(c.r[rn], c.r[rm])
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execCMN(c *Core, instr uint16) Status {
	rm, rn := regLo(instr, 3), regLo(instr, 0)
	result, carry, overflow := addFlags(c.r[rn], c.r[rm])
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execORR(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := c.r[rdn] | c.r[rm]
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execMUL(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := c.r[rdn] * c.r[rm]
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execBIC(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := c.r[rdn] &^ c.r[rm]
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

func execMVN(c *Core, instr uint16) Status {
	rm, rdn := regLo(instr, 3), regLo(instr, 0)
	result := ^c.r[rm]
	c.r[rdn] = result
	c.setNZ(result)
	return StatusOk
}

// --- high-register operations / BX ---

func hiRegFields(instr uint16) (rdn, rm int) {
	h1 := int((instr >> 7) & 1)
	h2 := int((instr >> 6) & 1)
	rdn = h1<<3 | int(instr&0x7)
	rm = h2<<3 | int((instr>>3)&0x7)
	return
}

func execADDHi(c *Core, instr uint16) Status {
	rdn, rm := hiRegFields(instr)
	return c.regWrite(rdn, c.regRead(rdn)+c.regRead(rm))
}

func execCMPHi(c *Core, instr uint16) Status {
	rdn, rm := hiRegFields(instr)
	result, carry, overflow := subFlags(c.regRead(rdn), c.regRead(rm))
	c.setNZ(result)
	c.setFlag(xpsrC, carry)
	c.setFlag(xpsrV, overflow)
	return StatusOk
}

func execMOVHi(c *Core, instr uint16) Status {
	rdn, rm := hiRegFields(instr)
	return c.regWrite(rdn, c.regRead(rm))
}

func execBX(c *Core, instr uint16) Status {
	rm := int((instr >> 3) & 0xF)
	target := c.regRead(rm)
	if target&1 == 0 {
		return StatusInvalidInstruction
	}
	return c.regWrite(15, target)
}

// --- PC-relative load ---

func execLDRPCRel(c *Core, instr uint16) Status {
	rd := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	base := (c.r[15] + 4) &^ 3
	addr := base + imm8*4
	value, st := c.bus.Read(addr, 4)
	if st != StatusOk {
		return st
	}
	c.r[rd] = value
	return StatusOk
}

// --- load/store with register offset ---

func execSTRReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	return c.bus.Write(c.r[rn]+c.r[rm], c.r[rt], 4)
}

func execSTRHReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	return c.bus.Write(c.r[rn]+c.r[rm], c.r[rt]&0xFFFF, 2)
}

func execSTRBReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	return c.bus.Write(c.r[rn]+c.r[rm], c.r[rt]&0xFF, 1)
}

func execLDRReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+c.r[rm], 4)
	if st != StatusOk {
		return st
	}
	c.r[rt] = v
	return StatusOk
}

func execLDRHReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+c.r[rm], 2)
	if st != StatusOk {
		return st
	}
	c.r[rt] = v
	return StatusOk
}

func execLDRBReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+c.r[rm], 1)
	if st != StatusOk {
		return st
	}
	c.r[rt] = v
	return StatusOk
}

func execLDRSBReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+c.r[rm], 1)
	if st != StatusOk {
		return st
	}
	c.r[rt] = signExtend8to32(uint8(v))
	return StatusOk
}

func execLDRSHReg(c *Core, instr uint16) Status {
	rm, rn, rt := regLo(instr, 6), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+c.r[rm], 2)
	if st != StatusOk {
		return st
	}
	c.r[rt] = signExtend16to32(uint16(v))
	return StatusOk
}

// --- load/store with immediate offset (word/byte) ---

func execSTRImm(c *Core, instr uint16) Status {
	imm5, rn, rt := uint32((instr>>6)&0x1F), regLo(instr, 3), regLo(instr, 0)
	return c.bus.Write(c.r[rn]+imm5*4, c.r[rt], 4)
}

func execLDRImm(c *Core, instr uint16) Status {
	imm5, rn, rt := uint32((instr>>6)&0x1F), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+imm5*4, 4)
	if st != StatusOk {
		return st
	}
	c.r[rt] = v
	return StatusOk
}

func execSTRBImm(c *Core, instr uint16) Status {
	imm5, rn, rt := uint32((instr>>6)&0x1F), regLo(instr, 3), regLo(instr, 0)
	return c.bus.Write(c.r[rn]+imm5, c.r[rt]&0xFF, 1)
}

func execLDRBImm(c *Core, instr uint16) Status {
	imm5, rn, rt := uint32((instr>>6)&0x1F), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+imm5, 1)
	if st != StatusOk {
		return st
	}
	c.r[rt] = v
	return StatusOk
}

// --- load/store halfword with immediate offset ---

func execSTRHImm(c *Core, instr uint16) Status {
	imm5, rn, rt := uint32((instr>>6)&0x1F), regLo(instr, 3), regLo(instr, 0)
	return c.bus.Write(c.r[rn]+imm5*2, c.r[rt]&0xFFFF, 2)
}

func execLDRHImm(c *Core, instr uint16) Status {
	imm5, rn, rt := uint32((instr>>6)&0x1F), regLo(instr, 3), regLo(instr, 0)
	v, st := c.bus.Read(c.r[rn]+imm5*2, 2)
	if st != StatusOk {
		return st
	}
	c.r[rt] = v
	return StatusOk
}

// --- SP-relative load/store ---

func execSTRSP(c *Core, instr uint16) Status {
	rd := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	return c.bus.Write(c.r[13]+imm8*4, c.r[rd], 4)
}

func execLDRSP(c *Core, instr uint16) Status {
	rd := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	v, st := c.bus.Read(c.r[13]+imm8*4, 4)
	if st != StatusOk {
		return st
	}
	c.r[rd] = v
	return StatusOk
}

// --- load address ---

func execADR(c *Core, instr uint16) Status {
	rd := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	c.r[rd] = ((c.r[15] + 4) &^ 3) + imm8*4
	return StatusOk
}

func execADDSPRd(c *Core, instr uint16) Status {
	rd := int((instr >> 8) & 0x7)
	imm8 := uint32(instr & 0xFF)
	c.r[rd] = c.r[13] + imm8*4
	return StatusOk
}

// --- adjust SP ---

func execADDSPImm(c *Core, instr uint16) Status {
	imm7 := uint32(instr & 0x7F)
	c.r[13] += imm7 * 4
	return StatusOk
}

func execSUBSPImm(c *Core, instr uint16) Status {
	imm7 := uint32(instr & 0x7F)
	c.r[13] -= imm7 * 4
	return StatusOk
}

// --- PUSH/POP ---

func execPUSH(c *Core, instr uint16) Status {
	bitlist := instr & 0xFF
	lr := instr&0x100 != 0
	count := 0
	for i := 0; i < 8; i++ {
		if bitlist&(1<<uint(i)) != 0 {
			count++
		}
	}
	if lr {
		count++
	}
	newSP := c.r[13] - uint32(count)*4
	addr := newSP
	for i := 0; i < 8; i++ {
		if bitlist&(1<<uint(i)) != 0 {
			if st := c.bus.Write(addr, c.r[i], 4); st != StatusOk {
				return st
			}
			addr += 4
		}
	}
	if lr {
		if st := c.bus.Write(addr, c.r[14], 4); st != StatusOk {
			return st
		}
	}
	c.r[13] = newSP
	return StatusOk
}

func execPOP(c *Core, instr uint16) Status {
	bitlist := instr & 0xFF
	pcBit := instr&0x100 != 0
	addr := c.r[13]
	for i := 0; i < 8; i++ {
		if bitlist&(1<<uint(i)) != 0 {
			v, st := c.bus.Read(addr, 4)
			if st != StatusOk {
				return st
			}
			c.r[i] = v
			addr += 4
		}
	}
	if pcBit {
		v, st := c.bus.Read(addr, 4)
		if st != StatusOk {
			return st
		}
		addr += 4
		c.r[13] = addr
		return c.regWrite(15, v)
	}
	c.r[13] = addr
	return StatusOk
}

// --- branches ---

func execBCond(c *Core, instr uint16) Status {
	cond := uint8((instr >> 8) & 0xF)
	if !c.checkCondition(cond) {
		return StatusOk
	}
	offset := signExtend8(uint8(instr&0xFF)) * 2
	target := uint32(int64(c.r[15]) + 4 + int64(offset))
	return c.regWrite(15, target)
}

func execB(c *Core, instr uint16) Status {
	offset := signExtend11(instr&0x7FF) * 2
	target := uint32(int64(c.r[15]) + 4 + int64(offset))
	return c.regWrite(15, target)
}

func execSVC16(c *Core, instr uint16) Status {
	return StatusOk
}

func execNOP(c *Core, instr uint16) Status {
	return StatusOk
}

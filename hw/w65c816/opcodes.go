package w65c816

// An addressing mode.
type mode uint8

const (
	impl mode = iota
	acc
	imm  // width follows M, or X for index instructions
	imm8 // always one byte
	abs
	absX
	absY
	absL
	absLX
	dp
	dpX
	dpY
	dpInd
	dpIndX
	dpIndY
	dpIndL
	dpIndLY
	sr
	srIndY
	rel
	relL
	absInd
	absIndX
	absIndL
	blk
)

var modeNames = [...]string{
	impl:    "impl",
	acc:     "acc",
	imm:     "imm",
	imm8:    "imm8",
	abs:     "abs",
	absX:    "abs,x",
	absY:    "abs,y",
	absL:    "long",
	absLX:   "long,x",
	dp:      "dp",
	dpX:     "dp,x",
	dpY:     "dp,y",
	dpInd:   "(dp)",
	dpIndX:  "(dp,x)",
	dpIndY:  "(dp),y",
	dpIndL:  "[dp]",
	dpIndLY: "[dp],y",
	sr:      "sr,s",
	srIndY:  "(sr,s),y",
	rel:     "rel",
	relL:    "rel16",
	absInd:  "(abs)",
	absIndX: "(abs,x)",
	absIndL: "[abs]",
	blk:     "src,dst",
}

func (m mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return "mode(?)"
}

// operandLen returns the number of operand bytes following the opcode.
func (m mode) operandLen(wideImm bool) int {
	switch m {
	case impl, acc:
		return 0
	case imm:
		if wideImm {
			return 2
		}
		return 1
	case abs, absX, absY, relL, absInd, absIndX, absIndL, blk:
		return 2
	case absL, absLX:
		return 3
	}
	return 1
}

type opdef struct {
	n  string // mnemonic
	m  mode
	op *operation
}

// Generic operations.

func rd(f func(c *CPU, v uint16)) *operation {
	return &operation{kind: kRead, read: f}
}

func rdx(f func(c *CPU, v uint16)) *operation {
	return &operation{kind: kRead, read: f, index: true}
}

func wr(src func(c *CPU) uint16) *operation {
	return &operation{kind: kWrite, src: src}
}

func wrx(src func(c *CPU) uint16) *operation {
	return &operation{kind: kWrite, src: src, index: true}
}

func rmw(f func(c *CPU, v uint16) uint16) *operation {
	return &operation{kind: kRMW, rmw: f}
}

var (
	opORA = rd(func(c *CPU, v uint16) { c.setAcc(c.acc() | v); c.setNZ(c.acc(), !c.A8()) })
	opAND = rd(func(c *CPU, v uint16) { c.setAcc(c.acc() & v); c.setNZ(c.acc(), !c.A8()) })
	opEOR = rd(func(c *CPU, v uint16) { c.setAcc(c.acc() ^ v); c.setNZ(c.acc(), !c.A8()) })
	opADC = rd((*CPU).adc)
	opSBC = rd((*CPU).sbc)
	opCMP = rd(func(c *CPU, v uint16) { c.compare(c.acc(), v, !c.A8()) })
	opCPX = rdx(func(c *CPU, v uint16) { c.compare(c.X, v, !c.I8()) })
	opCPY = rdx(func(c *CPU, v uint16) { c.compare(c.Y, v, !c.I8()) })
	opBIT = rd(func(c *CPU, v uint16) { c.bit(v, false) })
	opBIM = rd(func(c *CPU, v uint16) { c.bit(v, true) })
	opLDA = rd(func(c *CPU, v uint16) { c.setAcc(v); c.setNZ(v, !c.A8()) })
	opLDX = rdx(func(c *CPU, v uint16) { c.setX(v); c.setNZ(v, !c.I8()) })
	opLDY = rdx(func(c *CPU, v uint16) { c.setY(v); c.setNZ(v, !c.I8()) })

	opSTA = wr((*CPU).acc)
	opSTX = wrx(func(c *CPU) uint16 { return c.X })
	opSTY = wrx(func(c *CPU) uint16 { return c.Y })
	opSTZ = wr(func(*CPU) uint16 { return 0 })

	opASL = rmw((*CPU).asl)
	opLSR = rmw((*CPU).lsr)
	opROL = rmw((*CPU).rol)
	opROR = rmw((*CPU).ror)
	opINC = rmw((*CPU).inc)
	opDEC = rmw((*CPU).dec)
	opTSB = rmw((*CPU).tsb)
	opTRB = rmw((*CPU).trb)
)

// Register and flag instructions.

func (c *CPU) nzIndex(v uint16) { c.setNZ(v, !c.I8()) }
func (c *CPU) nzAcc()           { c.setNZ(c.acc(), !c.A8()) }

var (
	opCLC = simple(func(c *CPU) { c.P &^= Carry })
	opSEC = simple(func(c *CPU) { c.P |= Carry })
	opCLI = simple(func(c *CPU) { c.P &^= Interrupt })
	opSEI = simple(func(c *CPU) { c.P |= Interrupt })
	opCLD = simple(func(c *CPU) { c.P &^= Decimal })
	opSED = simple(func(c *CPU) { c.P |= Decimal })
	opCLV = simple(func(c *CPU) { c.P &^= Overflow })
	opNOP = simple(func(*CPU) {})
	opXCE = simple((*CPU).xce)

	opTAX = simple(func(c *CPU) { c.setX(c.C); c.nzIndex(c.X) })
	opTAY = simple(func(c *CPU) { c.setY(c.C); c.nzIndex(c.Y) })
	opTXY = simple(func(c *CPU) { c.setY(c.X); c.nzIndex(c.Y) })
	opTYX = simple(func(c *CPU) { c.setX(c.Y); c.nzIndex(c.X) })
	opTSX = simple(func(c *CPU) { c.setX(c.S); c.nzIndex(c.X) })
	opTXA = simple(func(c *CPU) { c.setAcc(c.X); c.nzAcc() })
	opTYA = simple(func(c *CPU) { c.setAcc(c.Y); c.nzAcc() })
	opTXS = simple(func(c *CPU) {
		if c.E {
			c.S = 0x0100 | c.X&0xFF
			return
		}
		c.S = c.X
	})
	opTCS = simple(func(c *CPU) { c.S = c.C })
	opTSC = simple(func(c *CPU) { c.C = c.S; c.setNZ(c.C, true) })
	opTCD = simple(func(c *CPU) { c.D = c.C; c.setNZ(c.D, true) })
	opTDC = simple(func(c *CPU) { c.C = c.D; c.setNZ(c.C, true) })

	opINX = simple(func(c *CPU) { c.setX(c.X + 1); c.nzIndex(c.X) })
	opDEX = simple(func(c *CPU) { c.setX(c.X - 1); c.nzIndex(c.X) })
	opINY = simple(func(c *CPU) { c.setY(c.Y + 1); c.nzIndex(c.Y) })
	opDEY = simple(func(c *CPU) { c.setY(c.Y - 1); c.nzIndex(c.Y) })
)

// Stack instructions.

var (
	opPHA = other(pushReg((*CPU).acc, false))
	opPHX = other(pushReg(func(c *CPU) uint16 { return c.X }, true))
	opPHY = other(pushReg(func(c *CPU) uint16 { return c.Y }, true))
	opPHB = other(push8(func(c *CPU) uint8 { return c.DBR }))
	opPHK = other(push8(func(c *CPU) uint8 { return c.PBR }))
	opPHP = other(push8(func(c *CPU) uint8 { return uint8(c.P) }))
	opPHD = other(push16(func(c *CPU) uint16 { return c.D }))

	opPLA = other(pullReg((*CPU).setAcc, false))
	opPLX = other(pullReg((*CPU).setX, true))
	opPLY = other(pullReg((*CPU).setY, true))
	opPLB = other(pull8(func(c *CPU, v uint8) { c.DBR = v; c.setNZ(uint16(v), false) }))
	opPLP = other(pull8((*CPU).setP))
	opPLD = other(pld)

	opPEA = other(pea)
	opPEI = other(pei)
	opPER = other(per)
)

// Control flow.

var (
	opBPL = other(branch(flag(Negative, false)))
	opBMI = other(branch(flag(Negative, true)))
	opBVC = other(branch(flag(Overflow, false)))
	opBVS = other(branch(flag(Overflow, true)))
	opBCC = other(branch(flag(Carry, false)))
	opBCS = other(branch(flag(Carry, true)))
	opBNE = other(branch(flag(Zero, false)))
	opBEQ = other(branch(flag(Zero, true)))
	opBRA = other(branch(func(*CPU) bool { return true }))
	opBRL = other(brl)

	opJMP  = other(jmpAbs)
	opJML  = other(jmpLong)
	opJMPI = other(jmpInd)
	opJMPX = other(jmpIndX)
	opJMLI = other(jmlInd)
	opJSR  = other(jsr)
	opJSL  = other(jsl)
	opJSRX = other(jsrIndX)
	opRTS  = other(rts)
	opRTL  = other(rtl)
	opRTI  = other(rti)

	opBRK = other(interrupt(vecIRQ, vecBRKNative))
	opCOP = other(interrupt(vecCOP, vecCOPNative))

	opREP = other(flagsImm(false))
	opSEP = other(flagsImm(true))
	opXBA = other(xba)
	opWDM = other(wdm)
	opMVN = other(blockMove(1))
	opMVP = other(blockMove(-1))
	opWAI = other(wai)
	opSTP = other(stp)
)

var defs = [256]opdef{
	0x00: {"BRK", imm8, opBRK}, 0x01: {"ORA", dpIndX, opORA}, 0x02: {"COP", imm8, opCOP}, 0x03: {"ORA", sr, opORA},
	0x04: {"TSB", dp, opTSB}, 0x05: {"ORA", dp, opORA}, 0x06: {"ASL", dp, opASL}, 0x07: {"ORA", dpIndL, opORA},
	0x08: {"PHP", impl, opPHP}, 0x09: {"ORA", imm, opORA}, 0x0A: {"ASL", acc, opASL}, 0x0B: {"PHD", impl, opPHD},
	0x0C: {"TSB", abs, opTSB}, 0x0D: {"ORA", abs, opORA}, 0x0E: {"ASL", abs, opASL}, 0x0F: {"ORA", absL, opORA},

	0x10: {"BPL", rel, opBPL}, 0x11: {"ORA", dpIndY, opORA}, 0x12: {"ORA", dpInd, opORA}, 0x13: {"ORA", srIndY, opORA},
	0x14: {"TRB", dp, opTRB}, 0x15: {"ORA", dpX, opORA}, 0x16: {"ASL", dpX, opASL}, 0x17: {"ORA", dpIndLY, opORA},
	0x18: {"CLC", impl, opCLC}, 0x19: {"ORA", absY, opORA}, 0x1A: {"INC", acc, opINC}, 0x1B: {"TCS", impl, opTCS},
	0x1C: {"TRB", abs, opTRB}, 0x1D: {"ORA", absX, opORA}, 0x1E: {"ASL", absX, opASL}, 0x1F: {"ORA", absLX, opORA},

	0x20: {"JSR", abs, opJSR}, 0x21: {"AND", dpIndX, opAND}, 0x22: {"JSL", absL, opJSL}, 0x23: {"AND", sr, opAND},
	0x24: {"BIT", dp, opBIT}, 0x25: {"AND", dp, opAND}, 0x26: {"ROL", dp, opROL}, 0x27: {"AND", dpIndL, opAND},
	0x28: {"PLP", impl, opPLP}, 0x29: {"AND", imm, opAND}, 0x2A: {"ROL", acc, opROL}, 0x2B: {"PLD", impl, opPLD},
	0x2C: {"BIT", abs, opBIT}, 0x2D: {"AND", abs, opAND}, 0x2E: {"ROL", abs, opROL}, 0x2F: {"AND", absL, opAND},

	0x30: {"BMI", rel, opBMI}, 0x31: {"AND", dpIndY, opAND}, 0x32: {"AND", dpInd, opAND}, 0x33: {"AND", srIndY, opAND},
	0x34: {"BIT", dpX, opBIT}, 0x35: {"AND", dpX, opAND}, 0x36: {"ROL", dpX, opROL}, 0x37: {"AND", dpIndLY, opAND},
	0x38: {"SEC", impl, opSEC}, 0x39: {"AND", absY, opAND}, 0x3A: {"DEC", acc, opDEC}, 0x3B: {"TSC", impl, opTSC},
	0x3C: {"BIT", absX, opBIT}, 0x3D: {"AND", absX, opAND}, 0x3E: {"ROL", absX, opROL}, 0x3F: {"AND", absLX, opAND},

	0x40: {"RTI", impl, opRTI}, 0x41: {"EOR", dpIndX, opEOR}, 0x42: {"WDM", imm8, opWDM}, 0x43: {"EOR", sr, opEOR},
	0x44: {"MVP", blk, opMVP}, 0x45: {"EOR", dp, opEOR}, 0x46: {"LSR", dp, opLSR}, 0x47: {"EOR", dpIndL, opEOR},
	0x48: {"PHA", impl, opPHA}, 0x49: {"EOR", imm, opEOR}, 0x4A: {"LSR", acc, opLSR}, 0x4B: {"PHK", impl, opPHK},
	0x4C: {"JMP", abs, opJMP}, 0x4D: {"EOR", abs, opEOR}, 0x4E: {"LSR", abs, opLSR}, 0x4F: {"EOR", absL, opEOR},

	0x50: {"BVC", rel, opBVC}, 0x51: {"EOR", dpIndY, opEOR}, 0x52: {"EOR", dpInd, opEOR}, 0x53: {"EOR", srIndY, opEOR},
	0x54: {"MVN", blk, opMVN}, 0x55: {"EOR", dpX, opEOR}, 0x56: {"LSR", dpX, opLSR}, 0x57: {"EOR", dpIndLY, opEOR},
	0x58: {"CLI", impl, opCLI}, 0x59: {"EOR", absY, opEOR}, 0x5A: {"PHY", impl, opPHY}, 0x5B: {"TCD", impl, opTCD},
	0x5C: {"JML", absL, opJML}, 0x5D: {"EOR", absX, opEOR}, 0x5E: {"LSR", absX, opLSR}, 0x5F: {"EOR", absLX, opEOR},

	0x60: {"RTS", impl, opRTS}, 0x61: {"ADC", dpIndX, opADC}, 0x62: {"PER", relL, opPER}, 0x63: {"ADC", sr, opADC},
	0x64: {"STZ", dp, opSTZ}, 0x65: {"ADC", dp, opADC}, 0x66: {"ROR", dp, opROR}, 0x67: {"ADC", dpIndL, opADC},
	0x68: {"PLA", impl, opPLA}, 0x69: {"ADC", imm, opADC}, 0x6A: {"ROR", acc, opROR}, 0x6B: {"RTL", impl, opRTL},
	0x6C: {"JMP", absInd, opJMPI}, 0x6D: {"ADC", abs, opADC}, 0x6E: {"ROR", abs, opROR}, 0x6F: {"ADC", absL, opADC},

	0x70: {"BVS", rel, opBVS}, 0x71: {"ADC", dpIndY, opADC}, 0x72: {"ADC", dpInd, opADC}, 0x73: {"ADC", srIndY, opADC},
	0x74: {"STZ", dpX, opSTZ}, 0x75: {"ADC", dpX, opADC}, 0x76: {"ROR", dpX, opROR}, 0x77: {"ADC", dpIndLY, opADC},
	0x78: {"SEI", impl, opSEI}, 0x79: {"ADC", absY, opADC}, 0x7A: {"PLY", impl, opPLY}, 0x7B: {"TDC", impl, opTDC},
	0x7C: {"JMP", absIndX, opJMPX}, 0x7D: {"ADC", absX, opADC}, 0x7E: {"ROR", absX, opROR}, 0x7F: {"ADC", absLX, opADC},

	0x80: {"BRA", rel, opBRA}, 0x81: {"STA", dpIndX, opSTA}, 0x82: {"BRL", relL, opBRL}, 0x83: {"STA", sr, opSTA},
	0x84: {"STY", dp, opSTY}, 0x85: {"STA", dp, opSTA}, 0x86: {"STX", dp, opSTX}, 0x87: {"STA", dpIndL, opSTA},
	0x88: {"DEY", impl, opDEY}, 0x89: {"BIT", imm, opBIM}, 0x8A: {"TXA", impl, opTXA}, 0x8B: {"PHB", impl, opPHB},
	0x8C: {"STY", abs, opSTY}, 0x8D: {"STA", abs, opSTA}, 0x8E: {"STX", abs, opSTX}, 0x8F: {"STA", absL, opSTA},

	0x90: {"BCC", rel, opBCC}, 0x91: {"STA", dpIndY, opSTA}, 0x92: {"STA", dpInd, opSTA}, 0x93: {"STA", srIndY, opSTA},
	0x94: {"STY", dpX, opSTY}, 0x95: {"STA", dpX, opSTA}, 0x96: {"STX", dpY, opSTX}, 0x97: {"STA", dpIndLY, opSTA},
	0x98: {"TYA", impl, opTYA}, 0x99: {"STA", absY, opSTA}, 0x9A: {"TXS", impl, opTXS}, 0x9B: {"TXY", impl, opTXY},
	0x9C: {"STZ", abs, opSTZ}, 0x9D: {"STA", absX, opSTA}, 0x9E: {"STZ", absX, opSTZ}, 0x9F: {"STA", absLX, opSTA},

	0xA0: {"LDY", imm, opLDY}, 0xA1: {"LDA", dpIndX, opLDA}, 0xA2: {"LDX", imm, opLDX}, 0xA3: {"LDA", sr, opLDA},
	0xA4: {"LDY", dp, opLDY}, 0xA5: {"LDA", dp, opLDA}, 0xA6: {"LDX", dp, opLDX}, 0xA7: {"LDA", dpIndL, opLDA},
	0xA8: {"TAY", impl, opTAY}, 0xA9: {"LDA", imm, opLDA}, 0xAA: {"TAX", impl, opTAX}, 0xAB: {"PLB", impl, opPLB},
	0xAC: {"LDY", abs, opLDY}, 0xAD: {"LDA", abs, opLDA}, 0xAE: {"LDX", abs, opLDX}, 0xAF: {"LDA", absL, opLDA},

	0xB0: {"BCS", rel, opBCS}, 0xB1: {"LDA", dpIndY, opLDA}, 0xB2: {"LDA", dpInd, opLDA}, 0xB3: {"LDA", srIndY, opLDA},
	0xB4: {"LDY", dpX, opLDY}, 0xB5: {"LDA", dpX, opLDA}, 0xB6: {"LDX", dpY, opLDX}, 0xB7: {"LDA", dpIndLY, opLDA},
	0xB8: {"CLV", impl, opCLV}, 0xB9: {"LDA", absY, opLDA}, 0xBA: {"TSX", impl, opTSX}, 0xBB: {"TYX", impl, opTYX},
	0xBC: {"LDY", absX, opLDY}, 0xBD: {"LDA", absX, opLDA}, 0xBE: {"LDX", absY, opLDX}, 0xBF: {"LDA", absLX, opLDA},

	0xC0: {"CPY", imm, opCPY}, 0xC1: {"CMP", dpIndX, opCMP}, 0xC2: {"REP", imm8, opREP}, 0xC3: {"CMP", sr, opCMP},
	0xC4: {"CPY", dp, opCPY}, 0xC5: {"CMP", dp, opCMP}, 0xC6: {"DEC", dp, opDEC}, 0xC7: {"CMP", dpIndL, opCMP},
	0xC8: {"INY", impl, opINY}, 0xC9: {"CMP", imm, opCMP}, 0xCA: {"DEX", impl, opDEX}, 0xCB: {"WAI", impl, opWAI},
	0xCC: {"CPY", abs, opCPY}, 0xCD: {"CMP", abs, opCMP}, 0xCE: {"DEC", abs, opDEC}, 0xCF: {"CMP", absL, opCMP},

	0xD0: {"BNE", rel, opBNE}, 0xD1: {"CMP", dpIndY, opCMP}, 0xD2: {"CMP", dpInd, opCMP}, 0xD3: {"CMP", srIndY, opCMP},
	0xD4: {"PEI", dpInd, opPEI}, 0xD5: {"CMP", dpX, opCMP}, 0xD6: {"DEC", dpX, opDEC}, 0xD7: {"CMP", dpIndLY, opCMP},
	0xD8: {"CLD", impl, opCLD}, 0xD9: {"CMP", absY, opCMP}, 0xDA: {"PHX", impl, opPHX}, 0xDB: {"STP", impl, opSTP},
	0xDC: {"JML", absIndL, opJMLI}, 0xDD: {"CMP", absX, opCMP}, 0xDE: {"DEC", absX, opDEC}, 0xDF: {"CMP", absLX, opCMP},

	0xE0: {"CPX", imm, opCPX}, 0xE1: {"SBC", dpIndX, opSBC}, 0xE2: {"SEP", imm8, opSEP}, 0xE3: {"SBC", sr, opSBC},
	0xE4: {"CPX", dp, opCPX}, 0xE5: {"SBC", dp, opSBC}, 0xE6: {"INC", dp, opINC}, 0xE7: {"SBC", dpIndL, opSBC},
	0xE8: {"INX", impl, opINX}, 0xE9: {"SBC", imm, opSBC}, 0xEA: {"NOP", impl, opNOP}, 0xEB: {"XBA", impl, opXBA},
	0xEC: {"CPX", abs, opCPX}, 0xED: {"SBC", abs, opSBC}, 0xEE: {"INC", abs, opINC}, 0xEF: {"SBC", absL, opSBC},

	0xF0: {"BEQ", rel, opBEQ}, 0xF1: {"SBC", dpIndY, opSBC}, 0xF2: {"SBC", dpInd, opSBC}, 0xF3: {"SBC", srIndY, opSBC},
	0xF4: {"PEA", abs, opPEA}, 0xF5: {"SBC", dpX, opSBC}, 0xF6: {"INC", dpX, opINC}, 0xF7: {"SBC", dpIndLY, opSBC},
	0xF8: {"SED", impl, opSED}, 0xF9: {"SBC", absY, opSBC}, 0xFA: {"PLX", impl, opPLX}, 0xFB: {"XCE", impl, opXCE},
	0xFC: {"JSR", absIndX, opJSRX}, 0xFD: {"SBC", absX, opSBC}, 0xFE: {"INC", absX, opINC}, 0xFF: {"SBC", absLX, opSBC},
}

func init() {
	for i := range defs {
		programs[i] = defs[i].compile()
	}
}

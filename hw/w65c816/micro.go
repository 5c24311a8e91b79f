package w65c816

// A microOp runs one sub-cycle: it consumes the data bus of the previous
// cycle and describes the next bus cycle.
type microOp func(c *CPU)

// A program is the micro-code of one opcode. Steps run one per tick. A step
// ends the instruction by calling fetch, and may skip the following step to
// model optional cycles.
type program struct {
	// begin issues the first data access once the addressing mode steps have
	// computed the effective address.
	begin microOp
	steps []microOp
}

var programs [256]program

type opKind uint8

const (
	kRead opKind = iota
	kWrite
	kRMW
	kOther
)

// operation describes what an opcode does with its operand, independently of
// the addressing mode.
type operation struct {
	kind  opKind
	index bool // operand width follows the X flag instead of M

	read  func(c *CPU, v uint16)
	src   func(c *CPU) uint16
	rmw   func(c *CPU, v uint16) uint16
	build func() []microOp
}

func (op *operation) narrow(c *CPU) bool {
	if op.index {
		return c.I8()
	}
	return c.A8()
}

func (d opdef) compile() program {
	op := d.op
	switch op.kind {
	case kOther:
		return program{steps: op.build()}
	case kRMW:
		if d.m == acc {
			return program{steps: implied(func(c *CPU) { c.setAcc(op.rmw(c, c.acc())) })}
		}
	}

	var prg program
	prg.steps = modeSteps(d.m, op.kind)
	switch op.kind {
	case kRead:
		prg.begin = (*CPU).readLo
		prg.steps = append(prg.steps, readSteps(op)...)
	case kWrite:
		prg.begin = func(c *CPU) {
			c.tmp = op.src(c)
			c.write(c.ea, uint8(c.tmp))
		}
		prg.steps = append(prg.steps, writeSteps(op)...)
	case kRMW:
		prg.begin = (*CPU).readLo
		prg.steps = append(prg.steps, rmwSteps(op)...)
	}
	return prg
}

func readSteps(op *operation) []microOp {
	return []microOp{
		func(c *CPU) {
			if op.narrow(c) {
				op.read(c, uint16(c.data()))
				c.fetch()
				return
			}
			c.tmp = uint16(c.data())
			c.readHi()
		},
		func(c *CPU) {
			op.read(c, c.tmp|uint16(c.data())<<8)
			c.fetch()
		},
	}
}

func writeSteps(op *operation) []microOp {
	return []microOp{
		func(c *CPU) {
			if op.narrow(c) {
				c.fetch()
				return
			}
			c.write(c.eaHi(), uint8(c.tmp>>8))
		},
		(*CPU).fetch,
	}
}

// rmwSteps reads the operand, spends one modify cycle and writes the result
// back, high byte first when 16-bit.
func rmwSteps(op *operation) []microOp {
	return []microOp{
		func(c *CPU) {
			c.tmp = uint16(c.data())
			if c.A8() {
				if c.E {
					// Emulation mode writes the unmodified value back.
					c.write(c.ea, uint8(c.tmp))
				} else {
					c.dummy(c.ea)
				}
				c.step++
				return
			}
			c.readHi()
		},
		func(c *CPU) {
			c.tmp |= uint16(c.data()) << 8
			c.dummy(c.eaHi())
		},
		func(c *CPU) {
			c.tmp = op.rmw(c, c.tmp)
			if c.A8() {
				c.write(c.ea, uint8(c.tmp))
				c.step++
				return
			}
			c.write(c.eaHi(), uint8(c.tmp>>8))
		},
		func(c *CPU) { c.write(c.ea, uint8(c.tmp)) },
		(*CPU).fetch,
	}
}

// implied builds the common 2-cycle program of single byte instructions.
func implied(f func(c *CPU)) []microOp {
	return []microOp{
		(*CPU).io,
		func(c *CPU) {
			f(c)
			c.fetch()
		},
	}
}

// directPage latches the direct page offset and inserts the extra cycle taken
// when the low byte of D is not zero. next runs on the cycle after.
func directPage(next microOp) []microOp {
	return []microOp{
		func(c *CPU) {
			c.AD = uint16(c.data())
			if c.D&0xFF != 0 {
				c.io()
				return
			}
			next(c)
			c.step++
		},
		next,
	}
}

// indexed computes base+idx in the data space and either accesses it right
// away or, on a page cross, with a 16-bit index, or for writes, spends a
// dummy cycle first.
func indexed(c *CPU, base uint32, idx uint16, k opKind) {
	c.setEA(base+uint32(idx), eaData)
	if k == kRead && c.I8() && (base^c.ea)&0xFFFF00 == 0 {
		c.begin()
		c.step++
		return
	}
	c.dummy(base&0xFFFF00 | c.ea&0xFF)
}

func (c *CPU) readPtr(idx uint16) { c.read(c.dpAddr(c.AD, idx)) }

func (c *CPU) readPtrLong(i uint16) { c.read(uint32(c.D + c.AD + i)) }

func (c *CPU) dataBank() uint32 { return uint32(c.DBR) << 16 }

// modeSteps returns the addressing mode steps of generic read, write and
// read-modify-write operations. The last step calls begin.
func modeSteps(m mode, k opKind) []microOp {
	switch m {
	case imm:
		return []microOp{func(c *CPU) {
			c.eaKind = eaProgram
			c.begin()
		}}
	case abs:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.operand()
			},
			func(c *CPU) {
				c.AD |= uint16(c.data()) << 8
				c.setEA(c.dataBank()|uint32(c.AD), eaData)
				c.begin()
			},
		}
	case absX, absY:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.operand()
			},
			func(c *CPU) {
				c.AD |= uint16(c.data()) << 8
				idx := c.X
				if m == absY {
					idx = c.Y
				}
				indexed(c, c.dataBank()|uint32(c.AD), idx, k)
			},
			(*CPU).begin,
		}
	case absL, absLX:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.operand()
			},
			func(c *CPU) {
				c.AD |= uint16(c.data()) << 8
				c.operand()
			},
			func(c *CPU) {
				addr := uint32(c.data())<<16 | uint32(c.AD)
				if m == absLX {
					addr += uint32(c.X)
				}
				c.setEA(addr, eaData)
				c.begin()
			},
		}
	case dp:
		return append([]microOp{(*CPU).operand}, directPage(func(c *CPU) {
			c.setEA(c.dpAddr(c.AD, 0), eaBank0)
			c.begin()
		})...)
	case dpX, dpY:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.io()
				if c.D&0xFF == 0 {
					c.step++
				}
			},
			(*CPU).io,
			func(c *CPU) {
				idx := c.X
				if m == dpY {
					idx = c.Y
				}
				c.setEA(c.dpAddr(c.AD, idx), eaBank0)
				c.begin()
			},
		}
	case dpInd, dpIndY:
		steps := append([]microOp{(*CPU).operand}, directPage(func(c *CPU) { c.readPtr(0) })...)
		steps = append(steps,
			func(c *CPU) {
				c.tmp = uint16(c.data())
				c.readPtr(1)
			},
			func(c *CPU) {
				base := c.dataBank() | uint32(c.data())<<8 | uint32(c.tmp)
				if m == dpInd {
					c.setEA(base, eaData)
					c.begin()
					return
				}
				indexed(c, base, c.Y, k)
			},
		)
		if m == dpIndY {
			steps = append(steps, (*CPU).begin)
		}
		return steps
	case dpIndX:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.io()
				if c.D&0xFF == 0 {
					c.step++
				}
			},
			(*CPU).io,
			func(c *CPU) { c.readPtr(c.X) },
			func(c *CPU) {
				c.tmp = uint16(c.data())
				c.readPtr(c.X + 1)
			},
			func(c *CPU) {
				c.setEA(c.dataBank()|uint32(c.data())<<8|uint32(c.tmp), eaData)
				c.begin()
			},
		}
	case dpIndL, dpIndLY:
		steps := append([]microOp{(*CPU).operand}, directPage(func(c *CPU) { c.readPtrLong(0) })...)
		return append(steps,
			func(c *CPU) {
				c.tmp = uint16(c.data())
				c.readPtrLong(1)
			},
			func(c *CPU) {
				c.tmp |= uint16(c.data()) << 8
				c.readPtrLong(2)
			},
			func(c *CPU) {
				addr := uint32(c.data())<<16 | uint32(c.tmp)
				if m == dpIndLY {
					addr += uint32(c.Y)
				}
				c.setEA(addr, eaData)
				c.begin()
			},
		)
	case sr:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.io()
			},
			func(c *CPU) {
				c.setEA(uint32(c.S+c.AD), eaBank0)
				c.begin()
			},
		}
	case srIndY:
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.AD = uint16(c.data())
				c.io()
			},
			func(c *CPU) { c.read(uint32(c.S + c.AD)) },
			func(c *CPU) {
				c.tmp = uint16(c.data())
				c.read(uint32(c.S + c.AD + 1))
			},
			func(c *CPU) {
				c.tmp |= uint16(c.data()) << 8
				c.io()
			},
			func(c *CPU) {
				c.setEA(c.dataBank()+uint32(c.tmp)+uint32(c.Y), eaData)
				c.begin()
			},
		}
	}
	panic("w65c816: no generic program for addressing mode " + m.String())
}

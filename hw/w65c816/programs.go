package w65c816

import "x65/hw/pins"

// Programs of the instructions that don't fit the generic
// mode + read/write/modify split.

func other(build func() []microOp) *operation {
	return &operation{kind: kOther, build: build}
}

func simple(f func(c *CPU)) *operation {
	return other(func() []microOp { return implied(f) })
}

func xba() []microOp {
	return []microOp{
		(*CPU).io,
		(*CPU).io,
		func(c *CPU) {
			c.xba()
			c.fetch()
		},
	}
}

func wdm() []microOp {
	return []microOp{(*CPU).operand, (*CPU).fetch}
}

// flagsImm builds REP (set=false) and SEP (set=true).
func flagsImm(set bool) func() []microOp {
	return func() []microOp {
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				if set {
					c.setP(uint8(c.P) | c.data())
				} else {
					c.setP(uint8(c.P) &^ c.data())
				}
				c.io()
			},
			(*CPU).fetch,
		}
	}
}

// push8 pushes a byte register (PHB, PHK, PHP).
func push8(get func(c *CPU) uint8) func() []microOp {
	return func() []microOp {
		return []microOp{
			(*CPU).io,
			func(c *CPU) { c.push(get(c)) },
			(*CPU).fetch,
		}
	}
}

// pushReg pushes a register whose width follows M or X (PHA, PHX, PHY).
func pushReg(get func(c *CPU) uint16, index bool) func() []microOp {
	return func() []microOp {
		return []microOp{
			(*CPU).io,
			func(c *CPU) {
				c.tmp = get(c)
				narrow := c.A8()
				if index {
					narrow = c.I8()
				}
				if narrow {
					c.push(uint8(c.tmp))
					c.step++
					return
				}
				c.push(uint8(c.tmp >> 8))
			},
			func(c *CPU) { c.push(uint8(c.tmp)) },
			(*CPU).fetch,
		}
	}
}

// push16 pushes a 16-bit value (PHD).
func push16(get func(c *CPU) uint16) func() []microOp {
	return func() []microOp {
		return []microOp{
			func(c *CPU) {
				c.tmp = get(c)
				c.io()
			},
			func(c *CPU) { c.push(uint8(c.tmp >> 8)) },
			func(c *CPU) { c.push(uint8(c.tmp)) },
			(*CPU).fetch,
		}
	}
}

// pull8 pulls a byte register (PLB, PLP).
func pull8(set func(c *CPU, v uint8)) func() []microOp {
	return func() []microOp {
		return []microOp{
			(*CPU).io,
			(*CPU).io,
			(*CPU).pull,
			func(c *CPU) {
				set(c, c.data())
				c.fetch()
			},
		}
	}
}

// pullReg pulls a register whose width follows M or X (PLA, PLX, PLY).
func pullReg(set func(c *CPU, v uint16), index bool) func() []microOp {
	return func() []microOp {
		narrow := func(c *CPU) bool {
			if index {
				return c.I8()
			}
			return c.A8()
		}
		return []microOp{
			(*CPU).io,
			(*CPU).io,
			(*CPU).pull,
			func(c *CPU) {
				if narrow(c) {
					set(c, uint16(c.data()))
					c.setNZ(uint16(c.data()), false)
					c.fetch()
					return
				}
				c.tmp = uint16(c.data())
				c.pull()
			},
			func(c *CPU) {
				v := c.tmp | uint16(c.data())<<8
				set(c, v)
				c.setNZ(v, true)
				c.fetch()
			},
		}
	}
}

func pld() []microOp {
	return []microOp{
		(*CPU).io,
		(*CPU).io,
		(*CPU).pull,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.pull()
		},
		func(c *CPU) {
			c.D = c.tmp | uint16(c.data())<<8
			c.setNZ(c.D, true)
			c.fetch()
		},
	}
}

func pea() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.tmp |= uint16(c.data()) << 8
			c.push(uint8(c.tmp >> 8))
		},
		func(c *CPU) { c.push(uint8(c.tmp)) },
		(*CPU).fetch,
	}
}

func pei() []microOp {
	steps := append([]microOp{(*CPU).operand}, directPage(func(c *CPU) { c.readPtr(0) })...)
	return append(steps,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.readPtr(1)
		},
		func(c *CPU) {
			c.tmp |= uint16(c.data()) << 8
			c.push(uint8(c.tmp >> 8))
		},
		func(c *CPU) { c.push(uint8(c.tmp)) },
		(*CPU).fetch,
	)
}

func per() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.tmp = c.PC + (c.tmp | uint16(c.data())<<8)
			c.io()
		},
		func(c *CPU) { c.push(uint8(c.tmp >> 8)) },
		func(c *CPU) { c.push(uint8(c.tmp)) },
		(*CPU).fetch,
	}
}

// branch builds the conditional relative branches and BRA.
func branch(taken func(c *CPU) bool) func() []microOp {
	return func() []microOp {
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				if !taken(c) {
					c.fetch()
					return
				}
				c.AD = c.PC + uint16(int8(c.data()))
				c.io()
			},
			func(c *CPU) {
				// Page crossing costs a cycle in emulation mode only.
				if !c.E || c.AD&0xFF00 == c.PC&0xFF00 {
					c.PC = c.AD
					c.IrqPip >>= 1
					c.NmiPip >>= 1
					c.fetch()
					return
				}
				c.dummy(uint32(c.PBR)<<16 | uint32(c.PC&0xFF00|c.AD&0x00FF))
			},
			func(c *CPU) {
				c.PC = c.AD
				c.fetch()
			},
		}
	}
}

func flag(f P, v bool) func(c *CPU) bool {
	return func(c *CPU) bool { return c.P.has(f) == v }
}

func brl() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.AD = c.PC + (c.tmp | uint16(c.data())<<8)
			c.io()
		},
		func(c *CPU) {
			c.PC = c.AD
			c.fetch()
		},
	}
}

func jmpAbs() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.PC = c.AD | uint16(c.data())<<8
			c.fetch()
		},
	}
}

func jmpLong() []microOp {
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
			c.PBR = c.data()
			c.PC = c.AD
			c.fetch()
		},
	}
}

func jmpInd() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.AD |= uint16(c.data()) << 8
			c.read(uint32(c.AD))
		},
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.read(uint32(c.AD + 1))
		},
		func(c *CPU) {
			c.PC = c.tmp | uint16(c.data())<<8
			c.fetch()
		},
	}
}

func jmpIndX() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.AD |= uint16(c.data()) << 8
			c.io()
		},
		func(c *CPU) { c.read(uint32(c.PBR)<<16 | uint32(c.AD+c.X)) },
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.read(uint32(c.PBR)<<16 | uint32(c.AD+c.X+1))
		},
		func(c *CPU) {
			c.PC = c.tmp | uint16(c.data())<<8
			c.fetch()
		},
	}
}

func jmlInd() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.AD |= uint16(c.data()) << 8
			c.read(uint32(c.AD))
		},
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.read(uint32(c.AD + 1))
		},
		func(c *CPU) {
			c.tmp |= uint16(c.data()) << 8
			c.read(uint32(c.AD + 2))
		},
		func(c *CPU) {
			c.PBR = c.data()
			c.PC = c.tmp
			c.fetch()
		},
	}
}

// jsr pushes the address of the last byte of the instruction.
func jsr() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.peekPC()
		},
		func(c *CPU) {
			c.AD |= uint16(c.data()) << 8
			c.io()
		},
		func(c *CPU) { c.push(uint8(c.PC >> 8)) },
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) {
			c.PC = c.AD
			c.fetch()
		},
	}
}

func jsl() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.operand()
		},
		func(c *CPU) {
			c.AD |= uint16(c.data()) << 8
			c.push(c.PBR)
		},
		(*CPU).io,
		(*CPU).peekPC,
		func(c *CPU) {
			c.bank = c.data()
			c.push(uint8(c.PC >> 8))
		},
		func(c *CPU) { c.push(uint8(c.PC)) },
		func(c *CPU) {
			c.PBR = c.bank
			c.PC = c.AD
			c.fetch()
		},
	}
}

func jsrIndX() []microOp {
	return []microOp{
		(*CPU).operand,
		func(c *CPU) {
			c.AD = uint16(c.data())
			c.push(uint8(c.PC >> 8))
		},
		func(c *CPU) { c.push(uint8(c.PC)) },
		(*CPU).peekPC,
		func(c *CPU) {
			c.AD |= uint16(c.data()) << 8
			c.io()
		},
		func(c *CPU) { c.read(uint32(c.PBR)<<16 | uint32(c.AD+c.X)) },
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.read(uint32(c.PBR)<<16 | uint32(c.AD+c.X+1))
		},
		func(c *CPU) {
			c.PC = c.tmp | uint16(c.data())<<8
			c.fetch()
		},
	}
}

func rts() []microOp {
	return []microOp{
		(*CPU).io,
		(*CPU).io,
		(*CPU).pull,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.pull()
		},
		func(c *CPU) {
			c.PC = (c.tmp | uint16(c.data())<<8) + 1
			c.io()
		},
		(*CPU).fetch,
	}
}

func rtl() []microOp {
	return []microOp{
		(*CPU).io,
		(*CPU).io,
		(*CPU).pull,
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.pull()
		},
		func(c *CPU) {
			c.tmp |= uint16(c.data()) << 8
			c.pull()
		},
		func(c *CPU) {
			c.PBR = c.data()
			c.PC = c.tmp + 1
			c.fetch()
		},
	}
}

// rti pulls P, PC and, in native mode, PBR.
func rti() []microOp {
	return []microOp{
		(*CPU).io,
		(*CPU).io,
		(*CPU).pull,
		func(c *CPU) {
			c.setP(c.data())
			c.pull()
		},
		func(c *CPU) {
			c.tmp = uint16(c.data())
			c.pull()
		},
		func(c *CPU) {
			c.PC = c.tmp | uint16(c.data())<<8
			if c.E {
				c.fetch()
				return
			}
			c.pull()
		},
		func(c *CPU) {
			c.PBR = c.data()
			c.fetch()
		},
	}
}

// vector selects the interrupt vector. Reset wins over NMI, which wins over
// IRQ. Software interrupts use vecE or vecN.
func (c *CPU) vector(vecE, vecN uint16) uint16 {
	switch {
	case c.brk&brkReset != 0:
		return vecRESET
	case c.brk&brkNMI != 0:
		if c.E {
			return vecNMI
		}
		return vecNMINative
	case c.brk&brkIRQ != 0:
		if c.E {
			return vecIRQ
		}
		return vecIRQNative
	case c.E:
		return vecE
	}
	return vecN
}

// interrupt is the program of BRK and COP, and of the hardware interrupts and
// reset which run as a BRK with the opcode fetch discarded.
func interrupt(vecE, vecN uint16) func() []microOp {
	return func() []microOp {
		return []microOp{
			func(c *CPU) {
				// Signature byte, not a program fetch for hardware interrupts.
				c.dummy(c.PC24())
				if c.brk == 0 {
					c.pins |= pins.VPA
				}
			},
			func(c *CPU) {
				if c.brk&(brkIRQ|brkNMI) == 0 {
					c.PC++
				}
				if c.E {
					c.pushInt(uint8(c.PC >> 8))
					c.step++
					return
				}
				c.pushInt(c.PBR)
			},
			func(c *CPU) { c.pushInt(uint8(c.PC >> 8)) },
			func(c *CPU) { c.pushInt(uint8(c.PC)) },
			func(c *CPU) {
				p := c.P
				if c.E {
					p |= Unused
					p.set(Break, c.brk&(brkIRQ|brkNMI) == 0)
				}
				c.pushInt(uint8(p))
				c.AD = c.vector(vecE, vecN)
			},
			func(c *CPU) {
				c.read(uint32(c.AD))
				c.P |= Interrupt
				c.P &^= Decimal
				c.PBR = 0
				c.brk = 0
			},
			func(c *CPU) {
				c.tmp = uint16(c.data())
				c.read(uint32(c.AD + 1))
			},
			func(c *CPU) {
				c.PC = c.tmp | uint16(c.data())<<8
				c.fetch()
			},
		}
	}
}

// blockMove builds MVN (dir=1) and MVP (dir=-1). Each byte takes 7 cycles,
// the opcode restarts itself by rewinding PC until C wraps to 0xFFFF.
func blockMove(dir int) func() []microOp {
	return func() []microOp {
		return []microOp{
			(*CPU).operand,
			func(c *CPU) {
				c.DBR = c.data()
				c.operand()
			},
			func(c *CPU) {
				c.bank = c.data()
				c.read(uint32(c.bank)<<16 | uint32(c.X))
				c.setX(c.X + uint16(dir))
			},
			func(c *CPU) {
				c.write(c.dataBank()|uint32(c.Y), c.data())
				c.setY(c.Y + uint16(dir))
			},
			(*CPU).io,
			func(c *CPU) {
				c.C--
				if c.C != 0xFFFF {
					c.PC -= 3
				}
				c.io()
			},
			(*CPU).fetch,
		}
	}
}

// wai waits for an IRQ or NMI, even a masked one.
func wai() []microOp {
	return []microOp{
		(*CPU).io,
		func(c *CPU) {
			c.io()
			if c.pins&(pins.IRQ|pins.NMI) == 0 {
				c.waiting = true
				c.step--
				return
			}
			c.waiting = false
		},
		(*CPU).fetch,
	}
}

// stp stops the clock until RES is asserted.
func stp() []microOp {
	return []microOp{
		(*CPU).io,
		func(c *CPU) {
			if c.pins&pins.RES == 0 {
				c.stopped = true
				c.io()
				c.step--
				return
			}
			c.brk |= brkReset
			c.fetch()
		},
	}
}

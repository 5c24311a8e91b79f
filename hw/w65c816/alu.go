package w65c816

func widthMask(wide bool) (mask, sign uint16) {
	if wide {
		return 0xFFFF, 0x8000
	}
	return 0xFF, 0x80
}

func (c *CPU) setNZ(v uint16, wide bool) {
	mask, sign := widthMask(wide)
	c.P.set(Zero, v&mask == 0)
	c.P.set(Negative, v&sign != 0)
}

func (c *CPU) carry() uint16 { return uint16(c.P & Carry) }

func (c *CPU) decimal() bool { return c.bcd && c.P.has(Decimal) }

func (c *CPU) adc(v uint16) {
	wide := !c.A8()
	mask, sign := widthMask(wide)
	a := c.acc()

	var res uint16
	if c.decimal() {
		var carry, overflow bool
		res, carry, overflow = decAdd(a, v, c.carry(), wide)
		c.P.set(Carry, carry)
		c.P.set(Overflow, overflow)
	} else {
		sum := uint32(a) + uint32(v) + uint32(c.carry())
		res = uint16(sum) & mask
		c.P.set(Carry, sum > uint32(mask))
		c.P.set(Overflow, ^(a^v)&(a^res)&sign != 0)
	}
	c.setAcc(res)
	c.setNZ(res, wide)
}

func (c *CPU) sbc(v uint16) {
	wide := !c.A8()
	mask, sign := widthMask(wide)
	a := c.acc()
	nv := ^v & mask

	sum := uint32(a) + uint32(nv) + uint32(c.carry())
	res := uint16(sum) & mask
	c.P.set(Overflow, ^(a^nv)&(a^res)&sign != 0)

	if c.decimal() {
		var noborrow bool
		res, noborrow = decSub(a, v, c.carry(), wide)
		c.P.set(Carry, noborrow)
	} else {
		c.P.set(Carry, sum > uint32(mask))
	}
	c.setAcc(res)
	c.setNZ(res, wide)
}

// decAdd adds two packed BCD values digit by digit. Overflow is computed on
// the top digit before its decimal adjustment, as the 65C02 does.
func decAdd(a, b, carry uint16, wide bool) (res uint16, c, v bool) {
	digits := 2
	if wide {
		digits = 4
	}

	var r, unadj uint32
	cc := uint32(carry)
	for i := range digits {
		sh := uint(i * 4)
		d := uint32(a>>sh&0xF) + uint32(b>>sh&0xF) + cc
		unadj = r | (d&0xF)<<sh
		if d > 9 {
			d += 6
		}
		cc = 0
		if d > 0xF {
			cc = 1
		}
		r |= (d & 0xF) << sh
	}

	_, sign := widthMask(wide)
	v = ^(uint32(a)^uint32(b))&(uint32(a)^unadj)&uint32(sign) != 0
	return uint16(r), cc != 0, v
}

// decSub subtracts packed BCD b from a with the 6502 carry convention
// (carry set means no borrow in).
func decSub(a, b, carry uint16, wide bool) (res uint16, noborrow bool) {
	digits := 2
	if wide {
		digits = 4
	}

	borrow := 1 - int32(carry)
	var r uint32
	for i := range digits {
		sh := uint(i * 4)
		d := int32(a>>sh&0xF) - int32(b>>sh&0xF) - borrow
		borrow = 0
		if d < 0 {
			d = (d - 6) & 0xF
			borrow = 1
		}
		r |= uint32(d&0xF) << sh
	}
	return uint16(r), borrow == 0
}

func (c *CPU) compare(r, v uint16, wide bool) {
	mask, _ := widthMask(wide)
	r &= mask
	v &= mask
	c.P.set(Carry, r >= v)
	c.setNZ(r-v, wide)
}

func (c *CPU) bit(v uint16, immediate bool) {
	wide := !c.A8()
	_, sign := widthMask(wide)
	c.P.set(Zero, c.acc()&v == 0)
	if immediate {
		return
	}
	c.P.set(Negative, v&sign != 0)
	c.P.set(Overflow, v&(sign>>1) != 0)
}

func (c *CPU) asl(v uint16) uint16 {
	wide := !c.A8()
	mask, sign := widthMask(wide)
	c.P.set(Carry, v&sign != 0)
	v = v << 1 & mask
	c.setNZ(v, wide)
	return v
}

func (c *CPU) lsr(v uint16) uint16 {
	c.P.set(Carry, v&1 != 0)
	v >>= 1
	c.setNZ(v, !c.A8())
	return v
}

func (c *CPU) rol(v uint16) uint16 {
	wide := !c.A8()
	mask, sign := widthMask(wide)
	res := (v<<1 | c.carry()) & mask
	c.P.set(Carry, v&sign != 0)
	c.setNZ(res, wide)
	return res
}

func (c *CPU) ror(v uint16) uint16 {
	wide := !c.A8()
	_, sign := widthMask(wide)
	res := v >> 1
	if c.P.has(Carry) {
		res |= sign
	}
	c.P.set(Carry, v&1 != 0)
	c.setNZ(res, wide)
	return res
}

func (c *CPU) inc(v uint16) uint16 {
	wide := !c.A8()
	mask, _ := widthMask(wide)
	v = (v + 1) & mask
	c.setNZ(v, wide)
	return v
}

func (c *CPU) dec(v uint16) uint16 {
	wide := !c.A8()
	mask, _ := widthMask(wide)
	v = (v - 1) & mask
	c.setNZ(v, wide)
	return v
}

func (c *CPU) tsb(v uint16) uint16 {
	a := c.acc()
	c.P.set(Zero, a&v == 0)
	return v | a
}

func (c *CPU) trb(v uint16) uint16 {
	a := c.acc()
	c.P.set(Zero, a&v == 0)
	return v &^ a
}

func (c *CPU) xba() {
	c.C = c.C<<8 | c.C>>8
	c.setNZ(c.C, false)
}

// xce exchanges the carry and emulation flags.
func (c *CPU) xce() {
	carry := c.P.has(Carry)
	c.P.set(Carry, c.E)
	c.E = carry
	if c.E {
		c.P |= Memory | Index
		c.S = 0x0100 | c.S&0xFF
	}
}

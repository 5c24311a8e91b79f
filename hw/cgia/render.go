package cgia

// scan walks a VRAM slot with a fixed stride, wrapping within the slot.
type scan struct {
	mem    *[0x10000]uint8
	addr   uint16
	stride uint16
}

func (s *scan) pop() uint8 {
	b := s.mem[s.addr]
	s.addr += s.stride
	return b
}

func fill(buf []uint8, idx uint8) {
	for i := range buf {
		buf[i] = idx
	}
}

// planeRenderer draws the enabled planes over the BACK color. Planes narrower
// than the display are centered. Plane 0 is opaque, palette index 0 is
// transparent in the other planes.
type planeRenderer struct{}

func (planeRenderer) RenderLine(v *CGIA, y int, dst []uint8) {
	back := v.regs[RegBack]
	fill(dst, back)
	if v.regs[RegMode]&modeEnable == 0 {
		return
	}

	for n := range NumPlanes {
		if v.regs[RegPlanes]&(1<<n) == 0 {
			continue
		}
		p := v.plane(n)
		if p.encoder == 0 {
			continue
		}

		width := p.columns * ColumnPx
		left := (MaxColumns - p.columns) / 2 * ColumnPx
		buf := v.planebuf[:width]
		v.encode(&p, y, buf, back)

		out := dst[left : left+width]
		if n == 0 {
			copy(out, buf)
			continue
		}
		for i, px := range buf {
			if px != 0 {
				out[i] = px
			}
		}
	}
}

func (v *CGIA) encode(p *plane, y int, buf []uint8, back uint8) {
	vram := &v.vram[p.slot]
	row, line := y/p.rowHeight, y%p.rowHeight
	cells := uint16(row * p.columns)

	// Text modes read one character code per column; bitmap modes are laid
	// out column by column, a column being rowHeight bytes high. Colour maps
	// advance in lockstep with the memory scan.
	rh := uint16(p.rowHeight)
	text := scan{mem: vram, addr: p.memory + cells, stride: 1}
	colours := scan{mem: vram, addr: p.colour + cells, stride: 1}
	backgr := scan{mem: vram, addr: p.backgr + cells, stride: 1}
	bitmap := scan{mem: vram, addr: p.memory + cells*rh + uint16(line), stride: rh}
	if p.encoder == 3 || p.encoder == 5 {
		colours = scan{mem: vram, addr: p.colour + cells*rh, stride: rh}
		backgr = scan{mem: vram, addr: p.backgr + cells*rh, stride: rh}
	}

	switch p.encoder {
	case 2:
		for range p.columns {
			fg, bg := p.colors(&colours, &backgr)
			code := text.pop()
			buf = put1bpp(buf, vram[p.glyph(code, line)], fg, bg)
		}
	case 3:
		for range p.columns {
			fg, bg := p.colors(&colours, &backgr)
			buf = put1bpp(buf, bitmap.pop(), fg, bg)
		}
	case 4:
		for range p.columns {
			fg, bg := p.colors(&colours, &backgr)
			cl := [4]uint8{p.shared[0], bg, fg, p.shared[1]}
			code := text.pop()
			if p.doubled {
				buf = put2bpp(buf, vram[p.glyph(code, line)], &cl, 2)
				continue
			}
			g := p.glyph(code, 2*line)
			buf = put2bpp(buf, vram[g], &cl, 1)
			buf = put2bpp(buf, vram[g+1], &cl, 1)
		}
	case 5:
		if !p.doubled {
			bitmap.addr = p.memory + 2*cells*uint16(p.rowHeight) + uint16(line)
		}
		for range p.columns {
			fg, bg := p.colors(&colours, &backgr)
			cl := [4]uint8{p.shared[0], bg, fg, p.shared[1]}
			if p.doubled {
				buf = put2bpp(buf, bitmap.pop(), &cl, 2)
				continue
			}
			buf = put2bpp(buf, bitmap.pop(), &cl, 1)
			buf = put2bpp(buf, bitmap.pop(), &cl, 1)
		}
	case 7:
		v.encodeAffine(p, y, buf)
	default:
		fill(buf, back)
	}
}

// colors returns the foreground and background colors of the next column.
func (p *plane) colors(colours, backgr *scan) (fg, bg uint8) {
	if !p.mapped {
		return p.fg, p.bg
	}
	bg = backgr.pop()
	fg = colours.pop()
	return fg, bg
}

func (p *plane) glyph(code uint8, line int) uint16 {
	return p.chargen + uint16(code)<<p.charShift + uint16(line)
}

// put1bpp emits 8 pixels, most significant bit first.
func put1bpp(buf []uint8, bits, fg, bg uint8) []uint8 {
	for i := range 8 {
		if bits&(0x80>>i) != 0 {
			buf[i] = fg
		} else {
			buf[i] = bg
		}
	}
	return buf[8:]
}

// put2bpp emits 4 pixels of 2 bits, each repeated rep times.
func put2bpp(buf []uint8, bits uint8, cl *[4]uint8, rep int) []uint8 {
	i := 0
	for shift := 6; shift >= 0; shift -= 2 {
		px := cl[bits>>shift&0b11]
		for range rep {
			buf[i] = px
			i++
		}
	}
	return buf[i:]
}

// encodeAffine samples the VRAM slot as a 256x256 texture. Texture
// coordinates are 8.8 fixed point: u starts at u0 and advances by du/dx each
// pixel, v is v0 + y*dv/dy for the whole line.
func (v *CGIA) encodeAffine(p *plane, y int, buf []uint8) {
	vram := &v.vram[p.slot]
	dudx := int32(int16(p.backgr))
	dvdy := int32(int16(p.chargen))

	tv := uint16(uint8((int32(p.colour) + int32(y)*dvdy) >> 8))
	u := int32(p.memory)
	for i := range buf {
		buf[i] = vram[tv<<8|uint16(uint8(u>>8))]
		u += dudx
	}
}

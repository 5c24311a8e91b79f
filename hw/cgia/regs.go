package cgia

// Register file offsets, as seen from the host through CS.
const (
	RegMode   = 0x00 // bit 0: display enable
	RegBank0  = 0x01 // host bank mirrored in VRAM slot 0
	RegBank1  = 0x02 // host bank mirrored in VRAM slot 1
	RegBack   = 0x03 // border and background palette index
	RegPlanes = 0x04 // bits 0-3: plane enable
	RegFrame  = 0x05 // frame counter, low byte (read-only)
	RegRaster = 0x06 // line counter, 16-bit little endian (read-only)

	RegPlane0 = 0x10
	PlaneSize = 16
	NumPlanes = 4
)

// MODE bits
const modeEnable = 1 << 0

// Plane descriptor offsets.
const (
	planeMode      = 0x0 // bits 0-2 encoder, 3 doubled, 4 mapped, 7 VRAM slot
	planeCharShift = 0x1
	planeRowHeight = 0x2 // lines per cell row, minus one
	planeColumns   = 0x3 // 0 means MaxColumns
	planeMemory    = 0x4
	planeColour    = 0x6
	planeBackgr    = 0x8
	planeChargen   = 0xA
	planeShared0   = 0xC
	planeShared1   = 0xD
	planeFG        = 0xE
	planeBG        = 0xF

	// Mode 7 reuses the scan offsets as 8.8 fixed point texture coordinates.
	planeU0   = planeMemory
	planeV0   = planeColour
	planeDUDX = planeBackgr
	planeDVDY = planeChargen
)

// Plane mode bits
const (
	PlaneEncoderMask = 0b111
	PlaneDoubled     = 1 << 3
	PlaneMapped      = 1 << 4
	PlaneSlot1       = 1 << 7
)

// plane is a decoded plane descriptor.
type plane struct {
	encoder   uint8
	doubled   bool
	mapped    bool
	slot      int
	charShift uint8
	rowHeight int
	columns   int

	memory, colour, backgr, chargen uint16

	shared [2]uint8
	fg, bg uint8
}

func (v *CGIA) reg16(addr int) uint16 {
	return uint16(v.regs[addr]) | uint16(v.regs[addr+1])<<8
}

func (v *CGIA) plane(n int) plane {
	base := RegPlane0 + n*PlaneSize
	mode := v.regs[base+planeMode]

	p := plane{
		encoder:   mode & PlaneEncoderMask,
		doubled:   mode&PlaneDoubled != 0,
		mapped:    mode&PlaneMapped != 0,
		slot:      int(mode >> 7),
		charShift: v.regs[base+planeCharShift],
		rowHeight: int(v.regs[base+planeRowHeight]) + 1,
		columns:   int(v.regs[base+planeColumns]),
		memory:    v.reg16(base + planeMemory),
		colour:    v.reg16(base + planeColour),
		backgr:    v.reg16(base + planeBackgr),
		chargen:   v.reg16(base + planeChargen),
		shared:    [2]uint8{v.regs[base+planeShared0], v.regs[base+planeShared1]},
		fg:        v.regs[base+planeFG],
		bg:        v.regs[base+planeBG],
	}
	if p.columns == 0 || p.columns > MaxColumns {
		p.columns = MaxColumns
	}
	return p
}

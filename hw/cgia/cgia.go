// Package cgia emulates the CGIA video processor: a DVI-timed raster
// generator drawing up to four planes out of two 64 KiB VRAM slots that
// mirror host memory banks.
package cgia

import (
	"errors"
	"fmt"

	"x65/emu/log"
	"x65/hw/pins"
	"x65/hw/snapshot"
)

// DVI timing grid, in pixels and lines.
const (
	HActive = 768
	HFront  = 24
	HSync   = 72
	HBack   = 96
	HTotal  = HActive + HFront + HSync + HBack

	VActive = 480
	VFront  = 3
	VSync   = 10
	VBack   = 7
	VTotal  = VActive + VFront + VSync + VBack

	BitClockKHz = 28800

	// Scale is the fixed-point unit of the horizontal counter.
	Scale = 65536
)

// Encoding constants.
const (
	ColumnPx    = 8
	HRepeat     = 2
	VRepeat     = 2
	ActiveWidth = HActive / HRepeat // linebuffer pixels
	LinePadding = 8
	MaxColumns  = ActiveWidth / ColumnPx
	NumLines    = VActive / VRepeat // rasterized lines per frame

	DisplayWidth    = HActive
	DisplayHeight   = VActive
	FramebufferSize = DisplayWidth * DisplayHeight

	blankLines = VFront + VSync + VBack
)

var (
	ErrFramebufferSize = errors.New("invalid framebuffer size")
	ErrTickHz          = errors.New("tick frequency out of range")
	ErrNoFetch         = errors.New("no fetch callback")
)

// FetchFunc reads host memory for the VRAM mirror. The returned pin word
// carries the byte at addr on its data bus.
type FetchFunc func(addr uint32, userData any) pins.Pins

// A LineRenderer fills dst, ActiveWidth palette indices, with rasterized line
// y (0 to NumLines-1).
type LineRenderer interface {
	RenderLine(v *CGIA, y int, dst []uint8)
}

// LineRendererFunc adapts a function to the LineRenderer interface.
type LineRendererFunc func(v *CGIA, y int, dst []uint8)

func (f LineRendererFunc) RenderLine(v *CGIA, y int, dst []uint8) { f(v, y, dst) }

type Desc struct {
	Framebuffer []uint8 // FramebufferSize palette indices
	Fetch       FetchFunc
	UserData    any
	TickHz      int // host tick frequency
	Renderer    LineRenderer
}

type CGIA struct {
	fb       []uint8
	fetch    FetchFunc
	userData any
	renderer LineRenderer

	regs [256]uint8

	hcount  int64
	hperiod int64
	lcount  int
	frame   uint64

	vram       [2][0x10000]uint8
	cachedBank [2]uint8
	cached     [2]bool

	linebuf  [LinePadding + ActiveWidth]uint8
	planebuf [ActiveWidth]uint8

	palette *[256]uint32
}

func New(desc Desc) (*CGIA, error) {
	if len(desc.Framebuffer) != FramebufferSize {
		return nil, fmt.Errorf("cgia: framebuffer is %d bytes, want %d: %w", len(desc.Framebuffer), FramebufferSize, ErrFramebufferSize)
	}
	if desc.Fetch == nil {
		return nil, fmt.Errorf("cgia: %w", ErrNoFetch)
	}
	if desc.TickHz <= 0 || desc.TickHz > BitClockKHz*1000 {
		return nil, fmt.Errorf("cgia: %d Hz not in (0, %d]: %w", desc.TickHz, BitClockKHz*1000, ErrTickHz)
	}

	v := &CGIA{
		fb:       desc.Framebuffer,
		fetch:    desc.Fetch,
		userData: desc.UserData,
		renderer: desc.Renderer,
		hperiod:  int64(HTotal) * int64(desc.TickHz) * Scale / (BitClockKHz * 1000),
		palette:  &hwcolors,
	}
	if v.renderer == nil {
		v.renderer = planeRenderer{}
	}

	log.ModVPU.DebugZ("init").
		Int("tick_hz", desc.TickHz).
		Uint("h_period", uint64(v.hperiod)).
		End()
	return v, nil
}

// MustNew is like New but panics on error.
func MustNew(desc Desc) *CGIA {
	v, err := New(desc)
	if err != nil {
		panic(err)
	}
	return v
}

// Reset rewinds the raster to the top of the frame.
func (v *CGIA) Reset() {
	v.hcount = 0
	v.lcount = 0
}

// Tick advances the VPU by one host tick. If p asserts CS, the register at
// the low address byte is read onto, or written from, the data bus.
func (v *CGIA) Tick(p pins.Pins) pins.Pins {
	// Below the bit clock/HTotal rate, one tick spans several lines.
	v.hcount += Scale
	for v.hcount >= v.hperiod {
		v.hcount -= v.hperiod
		v.nextLine()
	}

	if v.VSync() {
		p |= pins.VSYNC
	} else {
		p &^= pins.VSYNC
	}

	if p&pins.CS != 0 {
		addr := uint8(p.Addr())
		if p.Read() {
			p = p.SetData(v.Reg(addr))
		} else {
			v.write(addr, p.Data())
		}
	}

	v.transferBanks()
	return p
}

func (v *CGIA) nextLine() {
	v.lcount++
	if v.lcount >= VTotal {
		v.lcount = 0
		v.frame++
	}

	if v.lcount >= blankLines {
		line := v.lcount - blankLines
		if line%VRepeat == 0 {
			v.renderer.RenderLine(v, line/VRepeat, v.linebuf[LinePadding:])
		}
		v.copyLine(line)
	}
}

func (v *CGIA) copyLine(line int) {
	dst := v.fb[line*DisplayWidth : (line+1)*DisplayWidth]
	for x, px := range v.linebuf[LinePadding:] {
		dst[x*HRepeat] = px
		dst[x*HRepeat+1] = px
	}
}

// VSync reports whether the raster is in the vertical sync lines.
func (v *CGIA) VSync() bool {
	return v.lcount >= VFront && v.lcount < VFront+VSync
}

// Frame returns the number of completed frames.
func (v *CGIA) Frame() uint64 { return v.frame }

// Line returns the current line counter, 0 to VTotal-1.
func (v *CGIA) Line() int { return v.lcount }

// Palette returns the RGBA colors (0xAABBGGRR) of the 256 palette indices.
func (v *CGIA) Palette() *[256]uint32 { return v.palette }

// VRAM returns the contents of a VRAM slot (0 or 1).
func (v *CGIA) VRAM(slot int) []uint8 { return v.vram[slot&1][:] }

// Reg returns the value of a register, as seen by the host.
func (v *CGIA) Reg(addr uint8) uint8 {
	switch addr {
	case RegFrame:
		return uint8(v.frame)
	case RegRaster:
		return uint8(v.lcount)
	case RegRaster + 1:
		return uint8(v.lcount >> 8)
	}
	return v.regs[addr]
}

func (v *CGIA) write(addr, val uint8) {
	switch addr {
	case RegFrame, RegRaster, RegRaster + 1:
		return
	}
	v.regs[addr] = val
}

// transferBanks refreshes the VRAM slots whose wanted bank changed.
func (v *CGIA) transferBanks() {
	for slot := range v.vram {
		if !v.cached[slot] || v.cachedBank[slot] != v.regs[RegBank0+slot] {
			v.copyBank(slot)
		}
	}
}

func (v *CGIA) copyBank(slot int) {
	bank := v.regs[RegBank0+slot]
	base := uint32(bank) << 16
	for i := range v.vram[slot] {
		v.vram[slot][i] = v.fetch(base|uint32(i), v.userData).Data()
	}
	v.cachedBank[slot] = bank
	v.cached[slot] = true

	log.ModVPU.DebugZ("vram mirrored").
		Int("slot", slot).
		Hex8("bank", bank).
		End()
}

// MirrorVRAM refreshes both VRAM slots from host memory.
func (v *CGIA) MirrorVRAM() {
	v.copyBank(0)
	v.copyBank(1)
}

// Snoop forwards a host bus write to the VRAM slots mirroring its bank.
func (v *CGIA) Snoop(addr uint32, data uint8) {
	bank := uint8(addr >> 16)
	for slot := range v.vram {
		if v.cached[slot] && v.cachedBank[slot] == bank {
			v.vram[slot][uint16(addr)] = data
		}
	}
}

// State returns a snapshot of the VPU. Host bindings (framebuffer, fetch
// callback, renderer) are not part of it.
func (v *CGIA) State() *snapshot.CGIA {
	return &snapshot.CGIA{
		Regs:       v.regs,
		HCount:     v.hcount,
		HPeriod:    v.hperiod,
		LCount:     int32(v.lcount),
		Frame:      v.frame,
		VRAM:       v.vram,
		CachedBank: v.cachedBank,
		Cached:     v.cached,
		Linebuffer: v.linebuf,
	}
}

// SetState restores the VPU from a snapshot, keeping its host bindings.
func (v *CGIA) SetState(s *snapshot.CGIA) {
	v.regs = s.Regs
	v.hcount = s.HCount
	v.hperiod = s.HPeriod
	v.lcount = int(s.LCount)
	v.frame = s.Frame
	v.vram = s.VRAM
	v.cachedBank = s.CachedBank
	v.cached = s.Cached
	v.linebuf = s.Linebuffer
}

// Rebind takes the host bindings of from.
func (v *CGIA) Rebind(from *CGIA) {
	v.fb = from.fb
	v.fetch = from.fetch
	v.userData = from.userData
	v.renderer = from.renderer
	v.palette = from.palette
}

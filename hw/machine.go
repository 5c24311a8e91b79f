package hw

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-faster/jx"

	"x65/emu/log"
	"x65/hw/cgia"
	"x65/hw/hwio"
	"x65/hw/pins"
	"x65/hw/snapshot"
	"x65/hw/w65c816"
)

const (
	// CGIA register window, decoded by the host into the CGIA chip select.
	CGIABase = 0x00FF00
	CGIASize = 0x80

	RAMSize = 1 << 24

	DefaultClockHz = 8_000_000
)

var ErrImageSize = errors.New("image doesn't fit in memory")

type MachineConfig struct {
	ClockHz     int // CPU and CGIA tick frequency, DefaultClockHz if zero
	BCDDisabled bool
}

// Machine ties a W65C816S and a CGIA to 16 MiB of RAM. The host owns the tick
// loop: each Tick runs one CPU bus cycle and one CGIA tick.
type Machine struct {
	CPU  *w65c816.CPU
	CGIA *cgia.CGIA
	Bus  *hwio.Table

	RAM    hwio.Mem
	cgiaIO hwio.Device

	pins pins.Pins
	fb   []uint8
}

func NewMachine(cfg MachineConfig) (*Machine, error) {
	if cfg.ClockHz == 0 {
		cfg.ClockHz = DefaultClockHz
	}

	m := &Machine{
		Bus: hwio.NewTable("cpu"),
		fb:  make([]uint8, cgia.FramebufferSize),
	}

	var err error
	m.CGIA, err = cgia.New(cgia.Desc{
		Framebuffer: m.fb,
		Fetch:       fetchVRAM,
		UserData:    m,
		TickHz:      cfg.ClockHz,
	})
	if err != nil {
		return nil, fmt.Errorf("machine: %w", err)
	}
	m.CPU, m.pins = w65c816.New(w65c816.Desc{BCDDisabled: cfg.BCDDisabled})

	m.RAM = hwio.Mem{
		Name:    "ram",
		Data:    make([]uint8, RAMSize),
		WriteCb: m.CGIA.Snoop,
	}
	m.cgiaIO = hwio.Device{
		Name:   "cgia",
		Size:   CGIASize,
		PeekCb: m.peekCGIA,
		ReadCb: m.peekCGIA,
	}
	m.Bus.MapMem(0, &m.RAM)
	m.Bus.MapDevice(CGIABase, &m.cgiaIO)

	log.ModEmu.DebugZ("machine powered up").
		Int("clock_hz", cfg.ClockHz).
		Bool("bcd_disabled", cfg.BCDDisabled).
		End()
	return m, nil
}

// fetchVRAM serves the CGIA VRAM mirror. It reads RAM directly so that the
// register window doesn't shadow the underlying memory.
func fetchVRAM(addr uint32, userData any) pins.Pins {
	m := userData.(*Machine)
	return pins.Make(pins.RW, addr, m.RAM.Data[addr&(RAMSize-1)])
}

func (m *Machine) peekCGIA(addr uint32) uint8 {
	return m.CGIA.Reg(uint8(addr - CGIABase))
}

// Tick runs one CPU bus cycle and one CGIA tick.
func (m *Machine) Tick() {
	p := m.CPU.Tick(m.pins)
	addr := p.Addr24()

	var vp pins.Pins
	if m.Bus.Search(addr) == &m.cgiaIO {
		vp = pins.Make(pins.CS|p&pins.RW, addr-CGIABase, p.Data())
	} else if p.Read() {
		p = p.SetData(m.Bus.Read8(addr, false))
	} else {
		m.Bus.Write8(addr, p.Data())
	}

	vp = m.CGIA.Tick(vp)
	if vp&pins.CS != 0 && p.Read() {
		p = pins.CopyData(p, vp)
	}
	m.pins = p
}

// RunFrame ticks until the CGIA completes a frame.
func (m *Machine) RunFrame() {
	frame := m.CGIA.Frame()
	for m.CGIA.Frame() == frame {
		m.Tick()
	}
}

// Framebuffer returns the palette indices of the last drawn frame,
// cgia.DisplayWidth by cgia.DisplayHeight.
func (m *Machine) Framebuffer() []uint8 { return m.fb }

// Reset asserts RES: the CPU runs its reset sequence at the next sync. VRAM
// is refreshed from RAM.
func (m *Machine) Reset() {
	m.pins = m.CPU.Reset()
	m.CGIA.Reset()
	m.CGIA.MirrorVRAM()
}

// LoadImage copies a raw binary image in RAM at addr.
func (m *Machine) LoadImage(r io.Reader, addr uint32) (int, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("load image: %w", err)
	}
	if int(addr)+len(buf) > RAMSize {
		return 0, fmt.Errorf("load image at %06X, %d bytes: %w", addr, len(buf), ErrImageSize)
	}
	copy(m.RAM.Data[addr:], buf)

	log.ModMem.InfoZ("image loaded").
		Hex24("addr", addr).
		Int("size", len(buf)).
		End()
	return len(buf), nil
}

// SetResetVector points the emulation mode reset vector at addr.
func (m *Machine) SetResetVector(addr uint16) {
	m.RAM.Data[0xFFFC] = uint8(addr)
	m.RAM.Data[0xFFFD] = uint8(addr >> 8)
}

// Peek8 reads the bus without side effects.
func (m *Machine) Peek8(addr uint32) uint8 { return m.Bus.Peek8(addr) }

// AddLogContext implements log.ContextAdder.
func (m *Machine) AddLogContext(z *log.EntryZ) {
	z.Hex24("pc", m.CPU.PC24())
	z.Int("line", m.CGIA.Line())
}

// SaveSnapshot writes the CPU, CGIA and RAM state to w.
func (m *Machine) SaveSnapshot(w io.Writer) error {
	s := &snapshot.Machine{
		Pins: uint64(m.pins),
		CPU:  *m.CPU.State(),
		CGIA: *m.CGIA.State(),
	}
	copy(s.RAM[:], m.RAM.Data)
	if err := snapshot.Encode(w, s); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	log.ModSnap.DebugZ("snapshot saved").
		Hex24("pc", m.CPU.PC24()).
		Uint("frame", m.CGIA.Frame()).
		End()
	return nil
}

// LoadSnapshot restores a state written by SaveSnapshot. The restored CGIA
// takes its host bindings from the live one.
func (m *Machine) LoadSnapshot(r io.Reader) error {
	s, err := snapshot.Decode(r)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}

	vpu := new(cgia.CGIA)
	vpu.SetState(&s.CGIA)
	vpu.Rebind(m.CGIA)

	m.CGIA = vpu
	m.RAM.WriteCb = vpu.Snoop
	m.Bus.MapMem(0, &m.RAM)
	m.Bus.MapDevice(CGIABase, &m.cgiaIO)

	m.CPU.SetState(&s.CPU)
	m.pins = pins.Pins(s.Pins)
	copy(m.RAM.Data, s.RAM[:])

	log.ModSnap.DebugZ("snapshot loaded").
		Hex24("pc", m.CPU.PC24()).
		Uint("frame", m.CGIA.Frame()).
		End()
	return nil
}

// DumpState writes the CPU registers and the raster position as JSON.
func (m *Machine) DumpState(w io.Writer) error {
	var e jx.Encoder
	e.SetIdent(2)
	e.ObjStart()
	e.FieldStart("cpu")
	m.CPU.State().EncodeJSON(&e)
	e.FieldStart("cgia")
	e.ObjStart()
	e.FieldStart("frame")
	e.UInt64(m.CGIA.Frame())
	e.FieldStart("line")
	e.Int(m.CGIA.Line())
	e.ObjEnd()
	e.ObjEnd()

	if _, err := w.Write(append(e.Bytes(), '\n')); err != nil {
		return fmt.Errorf("dump state: %w", err)
	}
	return nil
}

// Package w65c816 implements a cycle-stepped WDC W65C816S.
//
// The CPU is driven through a 64-bit pin word: every call to Tick runs one bus
// cycle and returns the pins describing the next one. The host services the
// returned address (reading memory onto the data bus or storing the written
// byte) and passes the pins back on the following tick.
package w65c816

import (
	"x65/emu/log"
	"x65/hw/pins"
	"x65/hw/snapshot"
)

// Desc configures a new CPU.
type Desc struct {
	// BCDDisabled makes ADC and SBC ignore the decimal flag.
	BCDDisabled bool
}

// Vectors, emulation and native mode.
const (
	vecCOP   = 0xFFF4
	vecABORT = 0xFFF8
	vecNMI   = 0xFFFA
	vecRESET = 0xFFFC
	vecIRQ   = 0xFFFE

	vecCOPNative   = 0xFFE4
	vecBRKNative   = 0xFFE6
	vecABORTNative = 0xFFE8
	vecNMINative   = 0xFFEA
	vecIRQNative   = 0xFFEE
)

type brkFlags uint8

const (
	brkIRQ brkFlags = 1 << iota
	brkNMI
	brkReset
)

// eaKind tells how the effective address of the current instruction is
// accessed and how it wraps when the operand is 16-bit.
type eaKind uint8

const (
	eaData    eaKind = iota // 24-bit, second byte may cross into the next bank
	eaBank0                 // direct page or stack relative, wraps in bank 0
	eaProgram               // immediate operand at PBR:PC
)

type CPU struct {
	C  uint16 // accumulator, A is the low half and B the high half
	X  uint16
	Y  uint16
	S  uint16
	D  uint16 // direct page
	PC uint16

	DBR uint8 // data bank
	PBR uint8 // program bank

	P P
	E bool // emulation mode

	IR   uint8 // current opcode
	step uint8 // sub-cycle within the opcode micro-program

	AD uint16 // address latch used across sub-cycles

	ea     uint32
	eaKind eaKind
	tmp    uint16 // operand being assembled
	bank   uint8

	IrqPip uint16
	NmiPip uint16
	brk    brkFlags

	PINS pins.Pins // pins at the end of the last tick
	pins pins.Pins // pins being built by the current sub-cycle

	bcd     bool
	stopped bool // STP
	waiting bool // WAI

	Cycles int64

	tracer *tracer
}

// New creates a CPU in its power-on state and returns the pin word to feed to
// the first tick. That word asserts RES so the first sync runs the reset
// sequence.
func New(desc Desc) (*CPU, pins.Pins) {
	c := &CPU{
		E:   true,
		P:   Zero | Memory | Index,
		S:   0x01FF,
		bcd: !desc.BCDDisabled,
	}
	c.PINS = pins.RW | pins.Sync | pins.RES
	return c, c.PINS
}

// Reset returns pins asserting RES. The reset sequence runs at the next
// instruction boundary.
func (c *CPU) Reset() pins.Pins {
	c.stopped = false
	c.waiting = false
	c.brk |= brkReset
	return c.PINS | pins.RES
}

// Tick runs one bus cycle.
func (c *CPU) Tick(p pins.Pins) pins.Pins {
	if p&(pins.Sync|pins.IRQ|pins.NMI|pins.RDY|pins.RES) != 0 {
		// NMI is edge triggered.
		if p&(p^c.PINS)&pins.NMI != 0 {
			c.NmiPip |= 0x100
		}
		// IRQ is level triggered and maskable.
		if p&pins.IRQ != 0 && !c.P.has(Interrupt) {
			c.IrqPip |= 0x100
		}

		// RDY stalls read cycles only.
		if p.Has(pins.RW | pins.RDY) {
			c.PINS = p
			c.IrqPip <<= 1
			return p
		}

		if p.Has(pins.Sync) {
			p = c.sync(p)
		}
		p &^= pins.Sync
	}

	c.pins = p | pins.RW
	programs[c.IR].steps[c.step](c)
	c.step++
	c.Cycles++

	p = c.pins
	c.PINS = p
	c.IrqPip <<= 1
	c.NmiPip = c.NmiPip<<1 | c.NmiPip&0x8000
	c.normalize()
	return p
}

// sync latches the opcode on the data bus and arbitrates pending interrupts.
func (c *CPU) sync(p pins.Pins) pins.Pins {
	c.IR = p.Data()
	c.step = 0

	if c.IrqPip&0x400 != 0 {
		c.brk |= brkIRQ
	}
	if c.NmiPip&0xFC00 != 0 {
		c.brk |= brkNMI
	}
	if p&pins.RES != 0 {
		c.brk |= brkReset
	}
	c.IrqPip &= 0x3FF
	c.NmiPip &= 0x3FF

	if c.brk == 0 {
		if c.tracer != nil {
			c.tracer.trace(c)
		}
		c.PC++
		return p
	}

	// Hardware interrupt: discard the opcode and run the BRK program.
	c.IR = 0
	if c.brk&brkReset != 0 {
		c.resetRegs()
		log.ModCPU.DebugZ("reset").End()
	} else {
		log.ModCPU.DebugZ("interrupt").
			Bool("nmi", c.brk&brkNMI != 0).
			Hex24("pc", c.PC24()).
			End()
	}
	return p &^ pins.RES
}

func (c *CPU) resetRegs() {
	c.E = true
	c.P |= Memory | Index | Interrupt
	c.P &^= Decimal
	c.D = 0
	c.DBR = 0
	c.PBR = 0
	c.stopped = false
	c.waiting = false
}

// normalize enforces the register constraints of the current mode. It runs
// once at the end of every tick.
func (c *CPU) normalize() {
	if c.E {
		c.S = 0x0100 | c.S&0xFF
		c.P |= Memory | Index
	}
	if c.P.has(Index) {
		c.X &= 0xFF
		c.Y &= 0xFF
	}
}

// Opcode returns the opcode being executed.
func (c *CPU) Opcode() uint8 { return c.IR }

// Step returns the sub-cycle of the current opcode.
func (c *CPU) Step() int { return int(c.step) }

// Halted reports whether the CPU executed STP and waits for a reset.
func (c *CPU) Halted() bool { return c.stopped }

// Waiting reports whether the CPU executed WAI and waits for an interrupt.
func (c *CPU) Waiting() bool { return c.waiting }

// Register accessors.

func (c *CPU) A() uint8        { return uint8(c.C) }
func (c *CPU) SetA(v uint8)    { c.C = c.C&0xFF00 | uint16(v) }
func (c *CPU) B() uint8        { return uint8(c.C >> 8) }
func (c *CPU) SetB(v uint8)    { c.C = c.C&0x00FF | uint16(v)<<8 }
func (c *CPU) XL() uint8       { return uint8(c.X) }
func (c *CPU) YL() uint8       { return uint8(c.Y) }
func (c *CPU) X16() uint16     { return c.X }
func (c *CPU) Y16() uint16     { return c.Y }
func (c *CPU) SetX16(v uint16) { c.X = v }
func (c *CPU) SetY16(v uint16) { c.Y = v }

// A8 reports whether the accumulator is 8-bit wide.
func (c *CPU) A8() bool { return c.E || c.P.has(Memory) }

// I8 reports whether the index registers are 8-bit wide.
func (c *CPU) I8() bool { return c.E || c.P.has(Index) }

// PC24 returns the 24-bit address of the program counter.
func (c *CPU) PC24() uint32 { return uint32(c.PBR)<<16 | uint32(c.PC) }

// acc returns the accumulator at the current width.
func (c *CPU) acc() uint16 {
	if c.A8() {
		return c.C & 0xFF
	}
	return c.C
}

func (c *CPU) setAcc(v uint16) {
	if c.A8() {
		c.SetA(uint8(v))
	} else {
		c.C = v
	}
}

func (c *CPU) setX(v uint16) {
	if c.I8() {
		v &= 0xFF
	}
	c.X = v
}

func (c *CPU) setY(v uint16) {
	if c.I8() {
		v &= 0xFF
	}
	c.Y = v
}

func (c *CPU) setP(v uint8) {
	c.P = P(v)
	if c.E {
		c.P |= Memory | Index
	}
}

// Bus cycle helpers. Each sub-cycle calls exactly one of them to describe the
// next bus cycle.

func (c *CPU) data() uint8 { return c.pins.Data() }

// fetch ends the instruction: the next cycle is the sync of the next opcode.
func (c *CPU) fetch() {
	c.pins = c.pins.SetAddr24(c.PC24()) | pins.Sync
}

// operand reads the next program byte.
func (c *CPU) operand() {
	c.pins = c.pins.SetAddr24(c.PC24()) | pins.VPA
	c.PC++
}

// peekPC reads the program byte at PC without advancing it.
func (c *CPU) peekPC() {
	c.pins = c.pins.SetAddr24(c.PC24()) | pins.VPA
}

// io is an internal operation cycle, neither VPA nor VDA is asserted.
func (c *CPU) io() {
	c.pins = c.pins.SetAddr24(c.PC24())
}

// dummy is an internal cycle that still drives addr on the bus.
func (c *CPU) dummy(addr uint32) {
	c.pins = c.pins.SetAddr24(addr)
}

func (c *CPU) read(addr uint32) {
	c.pins = c.pins.SetAddr24(addr) | pins.VDA
}

func (c *CPU) write(addr uint32, v uint8) {
	c.pins = (c.pins.SetAddr24(addr).SetData(v) | pins.VDA) &^ pins.RW
}

func (c *CPU) push(v uint8) {
	c.write(uint32(c.S), v)
	c.S--
}

// pushInt pushes during an interrupt sequence. The reset sequence runs the
// same cycles as reads.
func (c *CPU) pushInt(v uint8) {
	if c.brk&brkReset != 0 {
		c.read(uint32(c.S))
		c.S--
		return
	}
	c.push(v)
}

func (c *CPU) pull() {
	c.S++
	if c.E {
		c.S = 0x0100 | c.S&0xFF
	}
	c.read(uint32(c.S))
}

func (c *CPU) setEA(addr uint32, k eaKind) {
	c.ea = addr & 0xFFFFFF
	c.eaKind = k
}

// eaHi returns the address of the high byte of a 16-bit operand.
func (c *CPU) eaHi() uint32 {
	if c.eaKind == eaBank0 {
		return (c.ea + 1) & 0xFFFF
	}
	return (c.ea + 1) & 0xFFFFFF
}

func (c *CPU) readLo() {
	if c.eaKind == eaProgram {
		c.operand()
		return
	}
	c.read(c.ea)
}

func (c *CPU) readHi() {
	if c.eaKind == eaProgram {
		c.operand()
		return
	}
	c.read(c.eaHi())
}

// begin issues the first data cycle of the instruction once the addressing
// mode has computed the effective address.
func (c *CPU) begin() {
	programs[c.IR].begin(c)
}

// dpAddr returns the bank 0 address of direct page offset off+idx. In
// emulation mode with a page aligned D, the address wraps within the page.
func (c *CPU) dpAddr(off, idx uint16) uint32 {
	if c.E && c.D&0xFF == 0 {
		return uint32(c.D | (off+idx)&0xFF)
	}
	return uint32(c.D + off + idx)
}

// State returns a snapshot of the CPU.
func (c *CPU) State() *snapshot.CPU {
	return &snapshot.CPU{
		C:        c.C,
		X:        c.X,
		Y:        c.Y,
		S:        c.S,
		D:        c.D,
		PC:       c.PC,
		DBR:      c.DBR,
		PBR:      c.PBR,
		P:        uint8(c.P),
		E:        c.E,
		IR:       c.IR,
		Step:     c.step,
		AD:       c.AD,
		EA:       c.ea,
		EAKind:   uint8(c.eaKind),
		Tmp:      c.tmp,
		Bank:     c.bank,
		IrqPip:   c.IrqPip,
		NmiPip:   c.NmiPip,
		BrkFlags: uint8(c.brk),
		Pins:     uint64(c.PINS),
		BCD:      c.bcd,
		Stopped:  c.stopped,
		Waiting:  c.waiting,
		Cycles:   c.Cycles,
	}
}

// SetState restores the CPU from a snapshot. The tracer is left untouched.
func (c *CPU) SetState(s *snapshot.CPU) {
	c.C = s.C
	c.X = s.X
	c.Y = s.Y
	c.S = s.S
	c.D = s.D
	c.PC = s.PC
	c.DBR = s.DBR
	c.PBR = s.PBR
	c.P = P(s.P)
	c.E = s.E
	c.IR = s.IR
	c.step = s.Step
	c.AD = s.AD
	c.ea = s.EA
	c.eaKind = eaKind(s.EAKind)
	c.tmp = s.Tmp
	c.bank = s.Bank
	c.IrqPip = s.IrqPip
	c.NmiPip = s.NmiPip
	c.brk = brkFlags(s.BrkFlags)
	c.PINS = pins.Pins(s.Pins)
	c.bcd = s.BCD
	c.stopped = s.Stopped
	c.waiting = s.Waiting
	c.Cycles = s.Cycles
}

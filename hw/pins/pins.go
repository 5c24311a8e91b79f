// Package pins defines the 64-bit word exchanged between the W65C816S, the
// CGIA and the host on every clock tick.
//
//	bits  0-15  A0-A15  address, low 16 bits
//	bits 16-23  D0-D7   data bus
//	bit  24     RW      1 read, 0 write
//	bit  25     VPA     valid program address
//	bit  26     VDA     valid data address
//	bits 27-31          IRQ NMI RDY RES ABORT
//	bits 32-39  A16-A23 bank
//	bit  40     CS      CGIA chip select (host decoded)
//	bit  41     VSYNC   CGIA vertical sync output
package pins

import (
	"fmt"
	"strings"
)

type Pins uint64

const (
	AddrMask Pins = 0xFFFF
	DataMask Pins = 0xFF << dataShift
	BankMask Pins = 0xFF << bankShift

	RW    Pins = 1 << 24
	VPA   Pins = 1 << 25
	VDA   Pins = 1 << 26
	IRQ   Pins = 1 << 27
	NMI   Pins = 1 << 28
	RDY   Pins = 1 << 29
	RES   Pins = 1 << 30
	ABORT Pins = 1 << 31

	CS    Pins = 1 << 40
	VSYNC Pins = 1 << 41

	// Sync marks an opcode fetch.
	Sync     = VPA | VDA
	CtrlMask = RW | VPA | VDA | IRQ | NMI | RDY | RES | ABORT

	dataShift = 16
	bankShift = 32
)

func (p Pins) Addr() uint16 { return uint16(p) }

func (p Pins) SetAddr(addr uint16) Pins {
	return p&^AddrMask | Pins(addr)
}

func (p Pins) Bank() uint8 { return uint8(p >> bankShift) }

func (p Pins) SetBank(bank uint8) Pins {
	return p&^BankMask | Pins(bank)<<bankShift
}

// Addr24 returns the full 24-bit bus address (bank and address).
func (p Pins) Addr24() uint32 {
	return uint32(p.Bank())<<16 | uint32(p.Addr())
}

func (p Pins) SetAddr24(addr uint32) Pins {
	return p.SetAddr(uint16(addr)).SetBank(uint8(addr >> 16))
}

func (p Pins) Data() uint8 { return uint8(p >> dataShift) }

func (p Pins) SetData(data uint8) Pins {
	return p&^DataMask | Pins(data)<<dataShift
}

// Has reports whether all the bits of mask are set.
func (p Pins) Has(mask Pins) bool { return p&mask == mask }

// Read reports whether the cycle is a read (RW high).
func (p Pins) Read() bool { return p&RW != 0 }

// Make builds a pin word from control bits, a 24-bit address and a data byte.
func Make(ctrl Pins, addr uint32, data uint8) Pins {
	return (ctrl &^ (AddrMask | DataMask | BankMask)).SetAddr24(addr).SetData(data)
}

// CopyData returns dst with the data bus of src.
func CopyData(dst, src Pins) Pins {
	return dst&^DataMask | src&DataMask
}

var ctrlNames = [...]struct {
	p    Pins
	name string
}{
	{VPA, "VPA"}, {VDA, "VDA"}, {IRQ, "IRQ"}, {NMI, "NMI"},
	{RDY, "RDY"}, {RES, "RES"}, {ABORT, "ABORT"}, {CS, "CS"}, {VSYNC, "VSYNC"},
}

func (p Pins) String() string {
	var sb strings.Builder
	rw := 'w'
	if p.Read() {
		rw = 'r'
	}
	fmt.Fprintf(&sb, "%02X:%04X %02X %c", p.Bank(), p.Addr(), p.Data(), rw)
	sep := byte(' ')
	for _, c := range ctrlNames {
		if p&c.p != 0 {
			sb.WriteByte(sep)
			sb.WriteString(c.name)
			sep = '|'
		}
	}
	return sb.String()
}

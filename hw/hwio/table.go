package hwio

import (
	"fmt"

	"x65/emu/log"
)

// log unmapped accesses (verbose: programs routinely read open bus)
const logUnmapped = false

const (
	// PageShift is the mapping granularity of a Table: every area is mapped
	// on 64-byte boundaries.
	PageShift = 6
	PageSize  = 1 << PageShift

	pagesPerBank = 0x10000 >> PageShift
)

type BankIO8 interface {
	// Read8 reads a byte from the given 24-bit address. If peek is true, the
	// read shouldn't have any side effects (debugging/tracing).
	Read8(addr uint32, peek bool) uint8
	Write8(addr uint32, val uint8)
}

// Write16 writes val little-endian at addr. The high byte wraps at the end of
// the 24-bit address space.
func Write16(b BankIO8, addr uint32, val uint16) {
	b.Write8(addr&0xFFFFFF, uint8(val))
	b.Write8((addr+1)&0xFFFFFF, uint8(val>>8))
}

func Read16(b BankIO8, addr uint32) uint16 {
	lo := b.Read8(addr&0xFFFFFF, false)
	hi := b.Read8((addr+1)&0xFFFFFF, false)
	return uint16(hi)<<8 | uint16(lo)
}

type bankTable [pagesPerBank]BankIO8

// Table dispatches 24-bit bus accesses to the areas mapped on it. Banks are
// allocated on first mapping.
type Table struct {
	Name string

	// Unmapped, if set, serves accesses to addresses no area is mapped at.
	Unmapped BankIO8

	banks [256]*bankTable
}

func NewTable(name string) *Table {
	t := new(Table)
	t.Name = name
	t.Reset()
	return t
}

// Reset unmaps everything.
func (t *Table) Reset() {
	t.banks = [256]*bankTable{}
}

// Map maps io over [addr, addr+size). Both addr and size must be multiples of
// PageSize and the range must fit in the 24-bit address space.
func (t *Table) Map(addr, size uint32, io BankIO8) {
	if addr%PageSize != 0 || size%PageSize != 0 || size == 0 || addr+size > 1<<24 {
		panic(fmt.Errorf("hwio: invalid mapping %06X+%X on bus %s", addr, size, t.Name))
	}

	for page := addr >> PageShift; page < (addr+size)>>PageShift; page++ {
		bank := t.banks[page/pagesPerBank]
		if bank == nil {
			bank = new(bankTable)
			t.banks[page/pagesPerBank] = bank
		}
		bank[page%pagesPerBank] = io
	}
}

func (t *Table) MapMem(addr uint32, mem *Mem) {
	log.ModHwIo.DebugZ("mapping mem").
		Hex24("addr", addr).
		Hex32("size", uint32(mem.VSize)).
		String("area", mem.Name).
		String("bus", t.Name).
		End()

	if len(mem.Data)&(len(mem.Data)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	vsize := mem.VSize
	if vsize == 0 {
		vsize = len(mem.Data)
	}
	t.Map(addr, uint32(vsize), mem.BankIO8())
}

func (t *Table) MapDevice(addr uint32, dev *Device) {
	log.ModHwIo.DebugZ("mapping device").
		Hex24("addr", addr).
		Hex32("size", uint32(dev.Size)).
		String("device", dev.Name).
		String("bus", t.Name).
		End()

	t.Map(addr, uint32(dev.Size), dev)
}

// MapMemorySlice maps mem over [addr, end], mirroring it if the range is
// larger than the slice.
func (t *Table) MapMemorySlice(addr, end uint32, mem []uint8, readonly bool) {
	log.ModHwIo.DebugZ("mapping slice").
		Hex24("addr", addr).
		Hex24("end", end).
		String("bus", t.Name).
		Bool("ro", readonly).
		End()

	var flags MemFlags
	if readonly {
		flags |= MemFlag8ReadOnly
	}
	t.MapMem(addr, &Mem{
		Data:  mem,
		Flags: flags,
		VSize: int(end - addr + 1),
	})
}

// Unmap removes whatever is mapped over [begin, end]. Partial pages at
// either end are unmapped entirely.
func (t *Table) Unmap(begin, end uint32) {
	for page := begin >> PageShift; page <= end>>PageShift && page < 1<<24>>PageShift; page++ {
		if bank := t.banks[page/pagesPerBank]; bank != nil {
			bank[page%pagesPerBank] = nil
		}
	}
}

// Search returns the area mapped at addr, or nil.
func (t *Table) Search(addr uint32) BankIO8 {
	bank := t.banks[uint8(addr>>16)]
	if bank == nil {
		return nil
	}
	return bank[(addr&0xFFFF)>>PageShift]
}

// Read8 searches in the table for the area mapped at the given address and
// forwards the read to it.
func (t *Table) Read8(addr uint32, peek bool) uint8 {
	addr &= 0xFFFFFF
	io := t.Search(addr)
	if io == nil {
		if logUnmapped && !peek {
			log.ModHwIo.ErrorZ("unmapped Read8").
				String("name", t.Name).
				Hex24("addr", addr).
				End()
		}
		if t.Unmapped != nil {
			return t.Unmapped.Read8(addr, peek)
		}
		return 0
	}
	return io.Read8(addr, peek)
}

// Peek8 is a convenience function.
func (t *Table) Peek8(addr uint32) uint8 {
	return t.Read8(addr, true)
}

func (t *Table) Write8(addr uint32, val uint8) {
	addr &= 0xFFFFFF
	io := t.Search(addr)
	if io == nil {
		if logUnmapped {
			log.ModHwIo.ErrorZ("unmapped Write8").
				String("name", t.Name).
				Hex24("addr", addr).
				Hex8("val", val).
				End()
		}
		if t.Unmapped != nil {
			t.Unmapped.Write8(addr, val)
		}
		return
	}
	if mem, ok := io.(*mem); ok {
		// The CheckRO form keeps the read-write path free of calls.
		if !mem.Write8CheckRO(addr, val) {
			log.ModHwIo.ErrorZ("Write8 to read-only address").
				String("name", t.Name).
				Hex24("addr", addr).
				Hex8("val", val).
				End()
		}
		return
	}
	io.Write8(addr, val)
}

// FetchPointer returns the memory slice starting at addr, up to the end of
// the underlying buffer, or nil if addr isn't backed by a Mem.
func (t *Table) FetchPointer(addr uint32) []uint8 {
	if mem, ok := t.Search(addr & 0xFFFFFF).(*mem); ok {
		return mem.FetchPointer(addr)
	}
	return nil
}

package hwio

import "x65/emu/log"

// mem is the BankIO8 adapter of a Mem.
//
// We use this structure by pointer rather than by value because it is stored as
// BankIO8 interface within Table, and checking if a concrete pointer type is
// behind the interface is faster than checking a non-pointer type.
type mem struct {
	buf  []uint8
	mask uint32
	wcb  func(uint32, uint8)
	ro   MemFlags
}

func newMem(buf []byte, wcb func(uint32, uint8), roflag MemFlags) *mem {
	if len(buf) == 0 || len(buf)&(len(buf)-1) != 0 {
		panic("memory buffer size is not pow2")
	}
	return &mem{
		buf:  buf,
		mask: uint32(len(buf) - 1),
		wcb:  wcb,
		ro:   roflag,
	}
}

func (m *mem) FetchPointer(addr uint32) []uint8 {
	return m.buf[addr&m.mask:]
}

func (m *mem) Read8(addr uint32, _ bool) uint8 {
	return m.buf[addr&m.mask]
}

func (m *mem) Write8CheckRO(addr uint32, val uint8) bool {
	if m.ro == 0 {
		m.buf[addr&m.mask] = val
		if m.wcb != nil {
			m.wcb(addr, val)
		}
		return true
	}
	return m.ro == MemFlagNoROLog // fake success if we're in silent mode
}

func (m *mem) Write8(addr uint32, val uint8) {
	if m.wcb != nil {
		m.wcb(addr, val)
		return
	}

	switch m.ro {
	case MemFlagReadWrite:
		m.buf[addr&m.mask] = val
	case MemFlag8ReadOnly:
		log.ModHwIo.ErrorZ("Write8 to readonly memory").
			Hex8("val", val).
			Hex24("addr", addr).
			End()
	case MemFlagNoROLog:
		return
	}
}

type MemFlags int

const (
	MemFlagReadWrite MemFlags = 0
	MemFlag8ReadOnly MemFlags = (1 << iota) // read-only accesses
	MemFlagNoROLog                          // skip logging attempts to write when configured to readonly
)

// Mem is a linear memory area that can be mapped into a Table. Its buffer is
// mirrored over VSize bytes.
type Mem struct {
	Name    string              // name of the memory area (for debugging)
	Data    []byte              // actual memory buffer
	VSize   int                 // virtual size of the memory (can be bigger than physical size)
	Flags   MemFlags            // flags determining how the memory can be accessed
	WriteCb func(uint32, uint8) // optional write callback, called after a successful write
}

func (m *Mem) BankIO8() BankIO8 {
	return newMem(m.Data, m.WriteCb, m.Flags)
}

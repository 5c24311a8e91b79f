package hwio_test

import (
	"bytes"
	"testing"

	"x65/hw/hwio"
)

// Unmapped
type openbus struct{}

func (ob *openbus) Read8(addr uint32, peek bool) uint8 {
	if peek {
		return 0xD4
	}
	return 0xD3
}
func (ob *openbus) Write8(addr uint32, val uint8) {}

type testTable struct {
	t   testing.TB
	Bus *hwio.Table

	// $00:0000-$00:07FF, mirrored up to $00:1FFF
	RAM hwio.Mem
	// $01:0000-$01:FFFF
	HighRAM hwio.Mem

	// $00:4000-$00:40FF
	DefaultDev hwio.Device
	// $00:4100-$00:41FF
	DEV hwio.Device // no peek-callback
	// $00:4200-$00:42FF
	RoDEV hwio.Device
	// $00:4300-$00:43FF
	WoDEV hwio.Device // no peek-callback

	devval uint8
	writes []uint32
}

func newTestTable(tb testing.TB) *testTable {
	tbl := &testTable{t: tb}
	tbl.RAM = hwio.Mem{Name: "ram", Data: make([]byte, 0x800), VSize: 0x2000}
	tbl.HighRAM = hwio.Mem{
		Name:    "hiram",
		Data:    make([]byte, 0x10000),
		WriteCb: func(addr uint32, _ uint8) { tbl.writes = append(tbl.writes, addr) },
	}
	tbl.DefaultDev = hwio.Device{Name: "default", Size: 0x100}
	tbl.DEV = hwio.Device{
		Name:    "dev",
		Size:    0x100,
		ReadCb:  func(addr uint32) uint8 { return 0xE1 },
		WriteCb: func(addr uint32, val uint8) { tbl.devval = uint8(addr) & val },
	}
	tbl.RoDEV = hwio.Device{
		Name:   "rodev",
		Size:   0x100,
		Flags:  hwio.ReadOnlyFlag,
		ReadCb: func(addr uint32) uint8 { return 0xC5 },
		PeekCb: func(addr uint32) uint8 { return 0xC8 },
	}
	tbl.WoDEV = hwio.Device{
		Name:    "wodev",
		Size:    0x100,
		Flags:   hwio.WriteOnlyFlag,
		WriteCb: func(addr uint32, val uint8) { tbl.devval = uint8(addr) & ^val },
	}

	tbl.Bus = hwio.NewTable("bus")
	tbl.Bus.MapMem(0x000000, &tbl.RAM)
	tbl.Bus.MapMem(0x010000, &tbl.HighRAM)
	tbl.Bus.MapDevice(0x004000, &tbl.DefaultDev)
	tbl.Bus.MapDevice(0x004100, &tbl.DEV)
	tbl.Bus.MapDevice(0x004200, &tbl.RoDEV)
	tbl.Bus.MapDevice(0x004300, &tbl.WoDEV)
	tbl.Bus.Unmapped = &openbus{}
	return tbl
}

func (tbl *testTable) wantRead8(addr uint32, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Read8(addr, false); got != want {
		tbl.t.Errorf("Read8(%06X) = %02X, want %02X", addr, got, want)
	}
}

func (tbl *testTable) Write8(addr uint32, val uint8) {
	tbl.Bus.Write8(addr, val)
}

func (tbl *testTable) wantPeek8(addr uint32, want uint8) {
	tbl.t.Helper()

	if got := tbl.Bus.Peek8(addr); got != want {
		tbl.t.Errorf("Peek8(%06X) = %02X, want %02X", addr, got, want)
	}
}

func TestTableMem(t *testing.T) {
	tbl := newTestTable(t)

	tbl.wantRead8(0x00, 0)
	tbl.Write8(0x00, 0x12)
	tbl.wantRead8(0x00, 0x12)
	tbl.wantRead8(0x800, 0x12)
	tbl.wantRead8(0x1800, 0x12)
	tbl.wantRead8(0x2000, 0xD3) // past the mirror

	tbl.Write8(0x01FFFF, 0x77)
	tbl.wantRead8(0x01FFFF, 0x77)
	tbl.wantPeek8(0x01FFFF, 0x77)
	if len(tbl.writes) != 1 || tbl.writes[0] != 0x01FFFF {
		t.Errorf("write callback got %X, want [1FFFF]", tbl.writes)
	}

	// Addresses wrap at 24 bits.
	tbl.wantRead8(0x1000000, 0x12)
}

func TestTableUnmapped(t *testing.T) {
	tbl := newTestTable(t)
	tbl.wantRead8(0x2020, 0xd3)
	tbl.wantPeek8(0x2020, 0xd4)
	tbl.wantRead8(0xFE0000, 0xd3)

	tbl.Bus.Unmapped = nil
	tbl.wantRead8(0x2020, 0)
	tbl.Write8(0x2020, 0xFF) // must not panic
}

func TestTableMapMemorySlice(t *testing.T) {
	tbl := newTestTable(t)

	rom := bytes.Repeat([]byte("\x12\x34"), 0x100)
	tbl.Bus.MapMemorySlice(0x023000, 0x0233FF, rom, true)

	tbl.wantRead8(0x023000, 0x12)
	tbl.wantRead8(0x023001, 0x34)
	tbl.wantRead8(0x0233FF, 0x34)
	tbl.wantRead8(0x023400, 0xd3) // unmapped

	tbl.Write8(0x023000, 0xFF) // readonly
	tbl.wantRead8(0x023000, 0x12)

	if p := tbl.Bus.FetchPointer(0x0231FE); len(p) != 2 || p[0] != 0x12 {
		t.Errorf("FetchPointer(0231FE) = % X", p)
	}
	if p := tbl.Bus.FetchPointer(0x004000); p != nil {
		t.Errorf("FetchPointer on a device = % X, want nil", p)
	}
}

func TestTableMapDevice(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x4000, 0xff)
	tbl.wantRead8(0x4000, 0x00)
	tbl.wantPeek8(0x4000, 0x00)

	tbl.wantRead8(0x4100, 0xe1)
	tbl.wantPeek8(0x4100, 0x00)
	tbl.Write8(0x4120, 0x27)
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4200, 0xc5)
	tbl.wantPeek8(0x4200, 0xc8)
	tbl.Write8(0x4200, 0xff) // readonly
	if tbl.devval != 0x20 {
		t.Errorf("devval = %02X, want 0x20", tbl.devval)
	}

	tbl.wantRead8(0x4300, 0x00) // writeonly
	tbl.wantPeek8(0x4300, 0x00) // writeonly
	tbl.Write8(0x4355, 0x0f)
	if tbl.devval != 0x50 {
		t.Errorf("devval = %02X, want 0x50", tbl.devval)
	}

	if got := tbl.Bus.Search(0x4180); got != &tbl.DEV {
		t.Errorf("Search(4180) = %v, want DEV", got)
	}
}

func TestUnmap(t *testing.T) {
	tbl := newTestTable(t)

	tbl.Write8(0x40, 0x12)
	tbl.Bus.Unmap(0x0000, 0x1FFF)
	tbl.wantRead8(0x40, 0xd3)
	tbl.wantPeek8(0x40, 0xd4)

	tbl.wantRead8(0x417F, 0xE1)
	tbl.Bus.Unmap(0x4100, 0x41FF)
	tbl.wantRead8(0x417F, 0xd3)
	tbl.wantRead8(0x4200, 0xc5)

	tbl.Bus.Unmap(0xFF0000, 0xFFFFFF) // never mapped
}

func TestMapInvalid(t *testing.T) {
	tests := []struct {
		name       string
		addr, size uint32
	}{
		{"unaligned addr", 0x0010, 0x40},
		{"unaligned size", 0x0000, 0x41},
		{"empty", 0x0000, 0},
		{"overflow", 0xFFFFC0, 0x80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("Map(%06X, %X) did not panic", tt.addr, tt.size)
				}
			}()
			hwio.NewTable("bus").Map(tt.addr, tt.size, &openbus{})
		})
	}
}

func TestRead16Write16(t *testing.T) {
	tbl := newTestTable(t)

	hwio.Write16(tbl.Bus, 0x01FFFE, 0xBEEF)
	if got := hwio.Read16(tbl.Bus, 0x01FFFE); got != 0xBEEF {
		t.Errorf("Read16 = %04X, want BEEF", got)
	}
	tbl.wantRead8(0x01FFFE, 0xEF)
	tbl.wantRead8(0x01FFFF, 0xBE)
}

func BenchmarkTableRead8(b *testing.B) {
	tbl := newTestTable(b)
	for i := range b.N {
		tbl.Bus.Read8(uint32(i)&0x1FFFF, false)
	}
}

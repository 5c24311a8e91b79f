package cgia

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// setPlane writes a plane descriptor. Offsets not in regs are left untouched.
func (v *CGIA) setPlane(n int, regs map[int]int) {
	base := RegPlane0 + n*PlaneSize
	for off, val := range regs {
		v.regs[base+off] = uint8(val)
		switch off {
		case planeMemory, planeColour, planeBackgr, planeChargen:
			v.regs[base+off+1] = uint8(val >> 8)
		}
	}
}

func renderLine(v *CGIA, y int) []uint8 {
	dst := make([]uint8, ActiveWidth)
	planeRenderer{}.RenderLine(v, y, dst)
	return dst
}

func repeat(n int, vals ...uint8) []uint8 {
	var out []uint8
	for _, v := range vals {
		for range n {
			out = append(out, v)
		}
	}
	return out
}

func TestRenderDisabled(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegBack] = 0x21
	v.regs[RegPlanes] = 0x0F
	v.setPlane(0, map[int]int{planeMode: 3, planeFG: 1})

	got := renderLine(v, 0)
	if diff := cmp.Diff(repeat(ActiveWidth, 0x21), got); diff != "" {
		t.Errorf("disabled display (-want +got):\n%s", diff)
	}

	// Unknown encoder draws BACK over the plane area.
	v.regs[RegMode] = modeEnable
	v.setPlane(0, map[int]int{planeMode: 6})
	got = renderLine(v, 0)
	if diff := cmp.Diff(repeat(ActiveWidth, 0x21), got); diff != "" {
		t.Errorf("encoder 6 (-want +got):\n%s", diff)
	}
}

func TestMode5DoubledMapped(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.setPlane(0, map[int]int{
		planeMode:    5 | PlaneDoubled | PlaneMapped,
		planeMemory:  0x0000,
		planeColour:  0x1000,
		planeBackgr:  0x2000,
		planeShared0: 0x10,
		planeShared1: 0x20,
	})

	vram := &v.vram[0]
	vram[0x0000], vram[0x1000], vram[0x2000] = 0b00_01_10_11, 0x33, 0x44
	vram[0x0001], vram[0x1001], vram[0x2001] = 0b11_11_10_10, 0x55, 0x66

	got := renderLine(v, 0)
	want := repeat(2, 0x10, 0x44, 0x33, 0x20, 0x20, 0x20, 0x55, 0x55)
	if diff := cmp.Diff(want, got[:16]); diff != "" {
		t.Errorf("first columns (-want +got):\n%s", diff)
	}
	// Remaining columns: all zero bits, shared0.
	if diff := cmp.Diff(repeat(ActiveWidth-16, 0x10), got[16:]); diff != "" {
		t.Errorf("remaining columns (-want +got):\n%s", diff)
	}
}

func TestMode5MappedRowHeight(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.setPlane(0, map[int]int{
		planeMode:      5 | PlaneDoubled | PlaneMapped,
		planeRowHeight: 3,
		planeMemory:    0x0000,
		planeColour:    0x1000,
		planeBackgr:    0x2000,
		planeShared0:   0x10,
		planeShared1:   0x20,
	})

	// Line 6 is line 2 of cell row 1. Cell row 1 starts 48 columns of 4
	// bytes in, and colour entries are spaced like bitmap columns.
	const cells = MaxColumns * 4
	vram := &v.vram[0]
	vram[cells+2], vram[0x1000+cells], vram[0x2000+cells] = 0b00_01_10_11, 0x33, 0x44
	vram[cells+6], vram[0x1000+cells+4], vram[0x2000+cells+4] = 0b10_10_01_01, 0x55, 0x66
	vram[0x1000+cells+1], vram[0x2000+cells+1] = 0x11, 0x22

	got := renderLine(v, 6)
	want := repeat(2, 0x10, 0x44, 0x33, 0x20, 0x55, 0x55, 0x66, 0x66)
	if diff := cmp.Diff(want, got[:16]); diff != "" {
		t.Errorf("first columns (-want +got):\n%s", diff)
	}
}

func TestMode5Shared(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.setPlane(0, map[int]int{
		planeMode:    5,
		planeColumns: 1,
		planeShared0: 1,
		planeShared1: 2,
		planeFG:      3,
		planeBG:      4,
	})
	vram := &v.vram[0]
	vram[0], vram[1] = 0b00_01_10_11, 0b11_10_01_00

	got := renderLine(v, 0)
	left := (MaxColumns - 1) / 2 * ColumnPx
	want := []uint8{1, 4, 3, 2, 2, 3, 4, 1}
	if diff := cmp.Diff(want, got[left:left+8]); diff != "" {
		t.Errorf("column (-want +got):\n%s", diff)
	}
	if got[0] != 0 || got[left+8] != 0 {
		t.Errorf("border = %d %d, want BACK", got[0], got[left+8])
	}
}

func TestMode2Text(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.setPlane(0, map[int]int{
		planeMode:      2,
		planeCharShift: 3,
		planeRowHeight: 7,
		planeMemory:    0x0400,
		planeChargen:   0x3000,
		planeFG:        1,
		planeBG:        2,
	})
	vram := &v.vram[0]
	// Row 1, column 0 holds character 5.
	vram[0x0400+MaxColumns] = 5
	vram[0x3000+5<<3+2] = 0xA5

	got := renderLine(v, 8+2)
	want := []uint8{1, 2, 1, 2, 2, 1, 2, 1}
	if diff := cmp.Diff(want, got[:8]); diff != "" {
		t.Errorf("glyph row (-want +got):\n%s", diff)
	}
}

func TestMode3ColumnMajor(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.regs[RegBack] = 9
	v.setPlane(0, map[int]int{
		planeMode:      3,
		planeRowHeight: 3,
		planeColumns:   2,
		planeMemory:    0x0100,
		planeFG:        7,
		planeBG:        8,
	})
	vram := &v.vram[0]
	// Line 5 is line 1 of cell row 1; each cell row is 2 columns of 4 bytes.
	vram[0x0100+8+1] = 0xF0
	vram[0x0100+8+4+1] = 0x0F

	got := renderLine(v, 5)
	left := (MaxColumns - 2) / 2 * ColumnPx
	want := []uint8{7, 7, 7, 7, 8, 8, 8, 8, 8, 8, 8, 8, 7, 7, 7, 7}
	if diff := cmp.Diff(want, got[left:left+16]); diff != "" {
		t.Errorf("bitmap (-want +got):\n%s", diff)
	}
	if got[left-1] != 9 || got[left+16] != 9 {
		t.Errorf("border = %d %d, want 9", got[left-1], got[left+16])
	}
}

func TestMode4Text(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.setPlane(0, map[int]int{
		planeMode:      4 | PlaneMapped,
		planeCharShift: 4,
		planeRowHeight: 7,
		planeMemory:    0x0000,
		planeColour:    0x0800,
		planeBackgr:    0x0C00,
		planeChargen:   0x2000,
		planeShared0:   1,
		planeShared1:   2,
	})
	vram := &v.vram[0]
	vram[0x0000], vram[0x0800], vram[0x0C00] = 3, 0x30, 0x40
	// Line 1 of character 3: two bytes per glyph row.
	vram[0x2000+3<<4+2] = 0b00_01_10_11
	vram[0x2000+3<<4+3] = 0b11_11_00_00

	got := renderLine(v, 1)
	want := []uint8{1, 0x40, 0x30, 2, 2, 2, 1, 1}
	if diff := cmp.Diff(want, got[:8]); diff != "" {
		t.Errorf("glyph row (-want +got):\n%s", diff)
	}
}

func TestMode7Affine(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 1
	v.setPlane(0, map[int]int{
		planeMode: 7 | PlaneSlot1,
		planeU0:   0x0000,
		planeV0:   0x0500,
		planeDUDX: 0x0100,
		planeDVDY: 0x0100,
	})
	for k := range 256 {
		v.vram[1][0x0700+k] = uint8(k)
	}

	got := renderLine(v, 2)
	for i, px := range got {
		if px != uint8(i) {
			t.Fatalf("pixel %d = %d, want %d", i, px, uint8(i))
		}
	}

	// Half-speed horizontal scaling.
	v.setPlane(0, map[int]int{planeDUDX: 0x0080})
	got = renderLine(v, 2)
	if got[0] != 0 || got[1] != 0 || got[2] != 1 || got[3] != 1 {
		t.Errorf("scaled pixels = % X, want 00 00 01 01", got[:4])
	}
}

func TestPlaneOverlay(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	v.regs[RegMode] = modeEnable
	v.regs[RegPlanes] = 0b0011
	v.setPlane(0, map[int]int{planeMode: 3, planeMemory: 0x0000, planeFG: 5, planeBG: 6})
	v.setPlane(1, map[int]int{planeMode: 3, planeMemory: 0x0100, planeFG: 9, planeBG: 0})
	v.vram[0][0x0100] = 0x80

	got := renderLine(v, 0)
	want := []uint8{9, 6, 6, 6, 6, 6, 6, 6}
	if diff := cmp.Diff(want, got[:8]); diff != "" {
		t.Errorf("overlay (-want +got):\n%s", diff)
	}

	// Plane 1 alone: transparent pixels show BACK.
	v.regs[RegPlanes] = 0b0010
	v.regs[RegBack] = 0x3F
	got = renderLine(v, 0)
	if got[0] != 9 || got[1] != 0x3F {
		t.Errorf("overlay on BACK = % X", got[:2])
	}
}

func TestPalette(t *testing.T) {
	v, _ := newTestCGIA(t, BitClockKHz*1000, nil)
	pal := v.Palette()

	if pal[0] != 0xFF000000 {
		t.Errorf("palette[0] = %08X, want FF000000", pal[0])
	}
	if pal[7] != 0xFFFEFEFE {
		t.Errorf("palette[7] = %08X, want FFFEFEFE", pal[7])
	}
	for i, c := range pal {
		if c>>24 != 0xFF {
			t.Errorf("palette[%d] = %08X, not opaque", i, c)
		}
		r, g, b := rawColor(uint8(i))
		if c != rgba(r, g, b) {
			t.Errorf("palette[%d] = %08X, want %08X", i, c, rgba(r, g, b))
		}
	}
	if rgba(255, 200, 10) != 0xFF0DFFFF {
		t.Errorf("rgba gain = %08X, want FF0DFFFF", rgba(255, 200, 10))
	}
}

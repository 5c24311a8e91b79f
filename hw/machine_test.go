package hw

import (
	"bytes"
	"errors"
	"testing"

	"github.com/go-faster/jx"
	"github.com/google/go-cmp/cmp"

	"x65/hw/cgia"
	"x65/hw/snapshot"
)

func newTestMachine(t *testing.T, prog ...uint8) *Machine {
	t.Helper()

	m, err := NewMachine(MachineConfig{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.LoadImage(bytes.NewReader(prog), 0x8000); err != nil {
		t.Fatal(err)
	}
	m.SetResetVector(0x8000)
	return m
}

func runUntilHalt(t *testing.T, m *Machine) {
	t.Helper()

	for range 10000 {
		m.Tick()
		if m.CPU.Halted() {
			return
		}
	}
	t.Fatalf("CPU not halted, pc = %06X", m.CPU.PC24())
}

func TestMachineCGIAWindow(t *testing.T) {
	m := newTestMachine(t,
		0xA9, 0x42, // LDA #$42
		0x8D, 0x03, 0xFF, // STA $FF03
		0xA9, 0x00, // LDA #$00
		0xAD, 0x03, 0xFF, // LDA $FF03
		0x8D, 0x10, 0x00, // STA $0010
		0xDB, // STP
	)
	runUntilHalt(t, m)

	if got := m.CGIA.Reg(cgia.RegBack); got != 0x42 {
		t.Errorf("CGIA BACK = %02X, want 42", got)
	}
	if got := m.RAM.Data[0x10]; got != 0x42 {
		t.Errorf("value read back from CGIA = %02X, want 42", got)
	}
	if got := m.RAM.Data[0xFF03]; got != 0 {
		t.Errorf("write to CGIA window reached RAM: %02X", got)
	}
	if got := m.Peek8(0xFF03); got != 0x42 {
		t.Errorf("Peek8(FF03) = %02X, want 42", got)
	}
}

func TestMachineSnoop(t *testing.T) {
	m := newTestMachine(t,
		0xA9, 0x99, // LDA #$99
		0x8D, 0x34, 0x12, // STA $1234
		0xDB, // STP
	)
	runUntilHalt(t, m)

	if got := m.CGIA.VRAM(0)[0x1234]; got != 0x99 {
		t.Errorf("VRAM(0)[1234] = %02X, want 99", got)
	}
}

func TestMachineRunFrame(t *testing.T) {
	m := newTestMachine(t, 0xDB) // STP

	m.RunFrame()
	if m.CGIA.Frame() != 1 {
		t.Fatalf("Frame() = %d, want 1", m.CGIA.Frame())
	}
	// 500 lines of 960 pixels at 28.8 MHz, ticked at 8 MHz.
	if m.CPU.Cycles < 133300 || m.CPU.Cycles > 133400 {
		t.Errorf("frame took %d ticks, want ~133334", m.CPU.Cycles)
	}
	if !m.CPU.Halted() {
		t.Errorf("CPU not halted")
	}
}

func TestMachineClock(t *testing.T) {
	_, err := NewMachine(MachineConfig{ClockHz: 50_000_000})
	if !errors.Is(err, cgia.ErrTickHz) {
		t.Errorf("NewMachine(50 MHz) error = %v, want %v", err, cgia.ErrTickHz)
	}
}

func TestMachineLoadImage(t *testing.T) {
	m, err := NewMachine(MachineConfig{})
	if err != nil {
		t.Fatal(err)
	}
	n, err := m.LoadImage(bytes.NewReader([]byte{1, 2, 3}), 0x7E0000)
	if err != nil || n != 3 {
		t.Fatalf("LoadImage = %d, %v", n, err)
	}
	if got := m.Peek8(0x7E0002); got != 3 {
		t.Errorf("Peek8(7E0002) = %d, want 3", got)
	}

	if _, err := m.LoadImage(bytes.NewReader([]byte{1, 2}), 0xFFFFFF); !errors.Is(err, ErrImageSize) {
		t.Errorf("LoadImage past the end: error = %v, want %v", err, ErrImageSize)
	}
}

func TestMachineSnapshot(t *testing.T) {
	prog := []uint8{
		0xEE, 0x10, 0x00, // INC $0010
		0x8D, 0x03, 0xFF, // STA $FF03
		0x80, 0xF8, // BRA -8
	}
	m := newTestMachine(t, prog...)
	for range 1000 {
		m.Tick()
	}

	var buf bytes.Buffer
	if err := m.SaveSnapshot(&buf); err != nil {
		t.Fatal(err)
	}

	for range 5000 {
		m.Tick()
	}
	want := *m.CPU.State()
	wantCount := m.RAM.Data[0x10]
	wantLine := m.CGIA.Line()

	if err := m.LoadSnapshot(&buf); err != nil {
		t.Fatal(err)
	}
	for range 5000 {
		m.Tick()
	}

	if diff := cmp.Diff(want, *m.CPU.State()); diff != "" {
		t.Errorf("CPU state after restore (-want +got):\n%s", diff)
	}
	if m.RAM.Data[0x10] != wantCount || m.CGIA.Line() != wantLine {
		t.Errorf("counter %d line %d, want %d %d", m.RAM.Data[0x10], m.CGIA.Line(), wantCount, wantLine)
	}

	// The restored CGIA is wired to the bus.
	m.RAM.Data[0x20] = 0
	m.Bus.Write8(0x0020, 0x5A)
	if m.CGIA.VRAM(0)[0x20] != 0x5A {
		t.Errorf("restored CGIA doesn't snoop bus writes")
	}
	if m.Peek8(0xFF03) != m.CGIA.Reg(cgia.RegBack) {
		t.Errorf("register window not served by the restored CGIA")
	}

	if err := m.LoadSnapshot(bytes.NewReader([]byte("nope"))); !errors.Is(err, snapshot.ErrBadMagic) {
		t.Errorf("LoadSnapshot(garbage) error = %v, want %v", err, snapshot.ErrBadMagic)
	}
}

func TestMachineDumpState(t *testing.T) {
	m := newTestMachine(t, 0xA9, 0x37, 0xDB) // LDA #$37; STP
	runUntilHalt(t, m)

	var buf bytes.Buffer
	if err := m.DumpState(&buf); err != nil {
		t.Fatal(err)
	}

	var (
		cpu  snapshot.CPU
		line int
	)
	err := jx.DecodeBytes(buf.Bytes()).Obj(func(d *jx.Decoder, key string) error {
		switch key {
		case "cpu":
			return cpu.DecodeJSON(d)
		case "cgia":
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "line" {
					return d.Skip()
				}
				var err error
				line, err = d.Int()
				return err
			})
		}
		return d.Skip()
	})
	if err != nil {
		t.Fatalf("decoding %s: %v", buf.Bytes(), err)
	}

	if cpu.C&0xFF != 0x37 || cpu.PC != m.CPU.PC || !cpu.E {
		t.Errorf("dumped cpu = %+v", cpu)
	}
	if line != m.CGIA.Line() {
		t.Errorf("dumped line = %d, want %d", line, m.CGIA.Line())
	}
}

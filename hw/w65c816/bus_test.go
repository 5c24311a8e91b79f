package w65c816

import (
	"testing"

	"x65/hw/pins"
)

// testBus is a flat 16 MiB memory serving CPU bus cycles.
type testBus struct {
	mem  []uint8
	ctrl pins.Pins // control inputs driven by the host: IRQ, NMI, RDY
}

func newTestBus() *testBus {
	return &testBus{mem: make([]uint8, 1<<24)}
}

func (b *testBus) Peek8(addr uint32) uint8 { return b.mem[addr&0xFFFFFF] }

func (b *testBus) load(addr uint32, data ...uint8) {
	copy(b.mem[addr:], data)
}

func (b *testBus) service(p pins.Pins) pins.Pins {
	addr := p.Addr24()
	if p.Read() {
		p = p.SetData(b.mem[addr])
	} else {
		b.mem[addr] = p.Data()
	}
	return p&^(pins.IRQ|pins.NMI|pins.RDY) | b.ctrl
}

type testSystem struct {
	cpu  *CPU
	bus  *testBus
	pins pins.Pins

	// check, if set, runs after every tick.
	check func(c *CPU)
}

// newTestSystem loads prog at origin, points the reset vector at it and runs
// the reset sequence.
func newTestSystem(t *testing.T, origin uint32, prog ...uint8) *testSystem {
	t.Helper()

	bus := newTestBus()
	bus.mem[0xFFFC] = uint8(origin)
	bus.mem[0xFFFD] = uint8(origin >> 8)
	bus.load(origin, prog...)

	cpu, p := New(Desc{})
	s := &testSystem{cpu: cpu, bus: bus, pins: bus.service(p)}
	s.ticks(7)
	if !s.pins.Has(pins.Sync) || s.pins.Addr24() != origin {
		t.Fatalf("after reset, pins = %s, want sync at %06X", s.pins, origin)
	}
	return s
}

func (s *testSystem) tick() {
	s.pins = s.bus.service(s.cpu.Tick(s.pins))
	if s.check != nil {
		s.check(s.cpu)
	}
}

func (s *testSystem) ticks(n int) {
	for range n {
		s.tick()
	}
}

// step runs the instruction at the current sync and returns its cycle count.
func (s *testSystem) step() int {
	for n := 1; ; n++ {
		s.tick()
		if s.pins.Has(pins.Sync) {
			return n
		}
		if n > 64 {
			panic("instruction doesn't end")
		}
	}
}

func (s *testSystem) steps(n int) {
	for range n {
		s.step()
	}
}

// runTo steps until the next sync is at addr.
func (s *testSystem) runTo(t *testing.T, addr uint32) {
	t.Helper()
	for range 10000 {
		if s.pins.Addr24() == addr {
			return
		}
		s.step()
	}
	t.Fatalf("never reached %06X, pins = %s", addr, s.pins)
}

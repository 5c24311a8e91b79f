package w65c816

import (
	"fmt"
	"io"
)

// cpuState stores the CPU state for the execution trace.
type cpuState struct {
	PC   uint32
	C    uint16
	X, Y uint16
	S, D uint16
	DBR  uint8
	P    P
	E    bool
	M8   bool
	X8   bool

	Cycles int64
}

type disasmer interface {
	Disasm(pc uint32, m8, x8 bool) DisasmOp
}

type peekDisasm struct{ Peeker }

func (d peekDisasm) Disasm(pc uint32, m8, x8 bool) DisasmOp {
	return Disasm(d.Peeker, pc, m8, x8)
}

type tracer struct {
	d disasmer
	w io.Writer
}

// SetTraceOutput enables the execution trace: one line is written to w for
// each instruction, before it executes. peek is used to disassemble it. A nil
// w disables tracing.
func (c *CPU) SetTraceOutput(w io.Writer, peek Peeker) {
	if w == nil {
		c.tracer = nil
		return
	}
	c.tracer = &tracer{d: peekDisasm{peek}, w: w}
}

func (t *tracer) trace(c *CPU) {
	t.write(cpuState{
		PC:     c.PC24(),
		C:      c.C,
		X:      c.X,
		Y:      c.Y,
		S:      c.S,
		D:      c.D,
		DBR:    c.DBR,
		P:      c.P,
		E:      c.E,
		M8:     c.A8(),
		X8:     c.I8(),
		Cycles: c.Cycles,
	})
}

// write the execution trace for current instruction.
func (t *tracer) write(state cpuState) {
	const totalLen = 120
	buf := make([]byte, 0, totalLen)

	dis := t.d.Disasm(state.PC, state.M8, state.X8)
	buf = append(buf, dis.Bytes()...)

	flags := state.P.String()
	e := 0
	if state.E {
		flags = state.P.Emulation()
		e = 1
	}
	buf = fmt.Appendf(buf, "C:%04X X:%04X Y:%04X S:%04X D:%04X DB:%02X %s E:%d CYC:%d\n",
		state.C, state.X, state.Y, state.S, state.D, state.DBR, flags, e, state.Cycles)
	t.w.Write(buf)
}

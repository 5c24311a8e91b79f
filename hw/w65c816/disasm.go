package w65c816

import (
	"fmt"
	"strings"
)

// Peeker reads memory without side effects.
type Peeker interface {
	Peek8(addr uint32) uint8
}

type DisasmOp struct {
	Opcode string
	Oper   string
	Buf    []byte
	PC     uint32 // 24-bit address of the opcode
}

func hexEncode(dst []byte, v byte) {
	const hextable = "0123456789ABCDEF"
	dst[0] = hextable[v>>4]
	dst[1] = hextable[v&0x0f]
}

// Bytes returns the string representation of a DisasmOp, this is optimized
// version, suitable for the execution tracer.
func (d DisasmOp) Bytes() []byte {
	const totalLen = 48
	buf := make([]byte, totalLen)

	hexEncode(buf[0:], byte(d.PC>>16))
	buf[2] = ':'
	hexEncode(buf[3:], byte(d.PC>>8))
	hexEncode(buf[5:], byte(d.PC))
	buf[7] = ' '
	buf[8] = ' '

	off := 9
	for i := range d.Buf {
		hexEncode(buf[off:], d.Buf[i])
		buf[off+2] = ' '
		off += 3
	}

	for ; off < 22; off++ {
		buf[off] = ' '
	}

	off += copy(buf[off:], d.Opcode)
	buf[off] = ' '
	off++

	buf = append(buf[:off], d.Oper...)
	off += len(d.Oper)
	if len(buf) > totalLen {
		buf = append(buf, ' ')
	} else {
		buf = buf[:totalLen]
		for i := off; i < totalLen; i++ {
			buf[i] = ' '
		}
	}

	return buf
}

func (d DisasmOp) String() string {
	return strings.TrimRight(string(d.Bytes()), " ")
}

// Disasm decodes the instruction at addr. m8 and x8 give the width of the
// accumulator and index registers, which the length of immediate operands
// depends on.
func Disasm(peek Peeker, addr uint32, m8, x8 bool) DisasmOp {
	addr &= 0xFFFFFF
	opcode := peek.Peek8(addr)
	def := defs[opcode]

	wide := !m8
	if def.op.index {
		wide = !x8
	}
	n := def.m.operandLen(wide)

	// Operands never cross the program bank.
	bank := addr & 0xFF0000
	buf := make([]byte, 1+n)
	buf[0] = opcode
	for i := 1; i <= n; i++ {
		buf[i] = peek.Peek8(bank | (addr+uint32(i))&0xFFFF)
	}

	var v uint32
	for i := n; i >= 1; i-- {
		v = v<<8 | uint32(buf[i])
	}

	pc := uint16(addr)
	var oper string
	switch def.m {
	case impl:
	case acc:
		oper = "A"
	case imm, imm8:
		oper = fmt.Sprintf("#$%0*X", 2*n, v)
	case abs:
		oper = fmt.Sprintf("$%04X", v)
	case absX:
		oper = fmt.Sprintf("$%04X,X", v)
	case absY:
		oper = fmt.Sprintf("$%04X,Y", v)
	case absL:
		oper = fmt.Sprintf("$%06X", v)
	case absLX:
		oper = fmt.Sprintf("$%06X,X", v)
	case dp:
		oper = fmt.Sprintf("$%02X", v)
	case dpX:
		oper = fmt.Sprintf("$%02X,X", v)
	case dpY:
		oper = fmt.Sprintf("$%02X,Y", v)
	case dpInd:
		oper = fmt.Sprintf("($%02X)", v)
	case dpIndX:
		oper = fmt.Sprintf("($%02X,X)", v)
	case dpIndY:
		oper = fmt.Sprintf("($%02X),Y", v)
	case dpIndL:
		oper = fmt.Sprintf("[$%02X]", v)
	case dpIndLY:
		oper = fmt.Sprintf("[$%02X],Y", v)
	case sr:
		oper = fmt.Sprintf("$%02X,S", v)
	case srIndY:
		oper = fmt.Sprintf("($%02X,S),Y", v)
	case rel:
		oper = fmt.Sprintf("$%04X", pc+2+uint16(int8(v)))
	case relL:
		oper = fmt.Sprintf("$%04X", pc+3+uint16(v))
	case absInd:
		oper = fmt.Sprintf("($%04X)", v)
	case absIndX:
		oper = fmt.Sprintf("($%04X,X)", v)
	case absIndL:
		oper = fmt.Sprintf("[$%04X]", v)
	case blk:
		// Encoded destination first, written source first.
		oper = fmt.Sprintf("$%02X,$%02X", buf[2], buf[1])
	}

	return DisasmOp{
		Opcode: def.n,
		Oper:   oper,
		Buf:    buf,
		PC:     addr,
	}
}

package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-faster/jx"
)

var magic = [4]byte{'X', '6', '5', 'S'}

var (
	ErrBadMagic   = errors.New("not a snapshot")
	ErrBadVersion = errors.New("unsupported snapshot version")
)

// Encode writes m, preceded by a magic and the format version.
func Encode(w io.Writer, m *Machine) error {
	m.Version = Version
	if _, err := w.Write(magic[:]); err != nil {
		return fmt.Errorf("snapshot header: %w", err)
	}
	for _, v := range []any{m.Version, m.Pins, &m.CPU, &m.CGIA} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("snapshot body: %w", err)
		}
	}
	if _, err := w.Write(m.RAM[:]); err != nil {
		return fmt.Errorf("snapshot ram: %w", err)
	}
	return nil
}

// Decode reads a snapshot written by Encode.
func Decode(r io.Reader) (*Machine, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, fmt.Errorf("snapshot header: %w", err)
	}
	if !bytes.Equal(hdr[:], magic[:]) {
		return nil, ErrBadMagic
	}

	m := new(Machine)
	if err := binary.Read(r, binary.LittleEndian, &m.Version); err != nil {
		return nil, fmt.Errorf("snapshot version: %w", err)
	}
	if m.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrBadVersion, m.Version)
	}
	for _, v := range []any{&m.Pins, &m.CPU, &m.CGIA} {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return nil, fmt.Errorf("snapshot body: %w", err)
		}
	}
	if _, err := io.ReadFull(r, m.RAM[:]); err != nil {
		return nil, fmt.Errorf("snapshot ram: %w", err)
	}
	return m, nil
}

// EncodeJSON writes the CPU registers as a JSON object.
func (c *CPU) EncodeJSON(e *jx.Encoder) {
	e.ObjStart()
	e.FieldStart("pc")
	e.UInt32(uint32(c.PBR)<<16 | uint32(c.PC))
	e.FieldStart("c")
	e.UInt16(c.C)
	e.FieldStart("x")
	e.UInt16(c.X)
	e.FieldStart("y")
	e.UInt16(c.Y)
	e.FieldStart("s")
	e.UInt16(c.S)
	e.FieldStart("d")
	e.UInt16(c.D)
	e.FieldStart("dbr")
	e.UInt8(c.DBR)
	e.FieldStart("pbr")
	e.UInt8(c.PBR)
	e.FieldStart("p")
	e.UInt8(c.P)
	e.FieldStart("e")
	e.Bool(c.E)
	e.FieldStart("cycles")
	e.Int64(c.Cycles)
	e.ObjEnd()
}

// DecodeJSON reads an object written by EncodeJSON. Unknown keys are skipped.
func (c *CPU) DecodeJSON(d *jx.Decoder) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "pc":
			var v uint32
			v, err = d.UInt32()
			c.PBR = uint8(v >> 16)
			c.PC = uint16(v)
		case "c":
			c.C, err = d.UInt16()
		case "x":
			c.X, err = d.UInt16()
		case "y":
			c.Y, err = d.UInt16()
		case "s":
			c.S, err = d.UInt16()
		case "d":
			c.D, err = d.UInt16()
		case "dbr":
			c.DBR, err = d.UInt8()
		case "pbr":
			c.PBR, err = d.UInt8()
		case "p":
			c.P, err = d.UInt8()
		case "e":
			c.E, err = d.Bool()
		case "cycles":
			c.Cycles, err = d.Int64()
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("cpu.%s: %w", key, err)
		}
		return nil
	})
}

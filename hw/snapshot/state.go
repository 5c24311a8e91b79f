// Package snapshot holds the plain state of the emulated chips. The structs
// only carry fixed-size fields so they can be stored with encoding/binary, host
// pointers (callbacks, framebuffer) are never part of a snapshot.
package snapshot

const Version = 1

type Machine struct {
	Version int32
	Pins    uint64 // CPU pins between two ticks
	CPU     CPU
	CGIA    CGIA
	RAM     [1 << 24]uint8
}

type CPU struct {
	C, X, Y, S, D, PC uint16

	DBR, PBR uint8
	P        uint8
	E        bool

	IR   uint8
	Step uint8

	AD     uint16
	EA     uint32
	EAKind uint8
	Tmp    uint16
	Bank   uint8

	IrqPip   uint16
	NmiPip   uint16
	BrkFlags uint8
	Pins     uint64

	BCD     bool
	Stopped bool
	Waiting bool

	Cycles int64
}

type CGIA struct {
	Regs [256]uint8

	HCount  int64
	HPeriod int64
	LCount  int32
	Frame   uint64

	// VRAM slots and the host bank they currently mirror.
	VRAM       [2][0x10000]uint8
	CachedBank [2]uint8
	Cached     [2]bool

	Linebuffer [8 + 384]uint8
}

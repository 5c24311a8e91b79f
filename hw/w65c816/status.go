package w65c816

// P is the processor status register.
//
// Bits 4 and 5 are the index and memory width flags in native mode. In
// emulation mode they read as the break and unused bits and are kept set.
type P uint8

const (
	Carry P = 1 << iota
	Zero
	Interrupt
	Decimal
	Index
	Memory
	Overflow
	Negative

	Break  = Index
	Unused = Memory
)

func (p P) String() string {
	return p.format("nvmxdizcNVMXDIZC")
}

// Emulation formats p with the emulation mode flag names.
func (p P) Emulation() string {
	return p.format("nvubdizcNVUBDIZC")
}

func (p P) format(bits string) string {
	s := make([]byte, 8)
	for i := range 8 {
		ibit := (uint8(p) >> (7 - i)) & 1
		s[i] = bits[i+int(8*ibit)]
	}
	return string(s)
}

func (p P) has(f P) bool { return p&f != 0 }

func (p *P) set(f P, v bool) {
	if v {
		*p |= f
	} else {
		*p &^= f
	}
}

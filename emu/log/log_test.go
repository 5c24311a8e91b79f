package log

import (
	"bytes"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"
)

func TestZFieldValue(t *testing.T) {
	tests := []struct {
		f    ZField
		want string
	}{
		{ZField{Type: FieldTypeBool, Integer: 1}, "true"},
		{ZField{Type: FieldTypeString, Str: "foo"}, "foo"},
		{ZField{Type: FieldTypeHex8, Integer: 0xA}, "0a"},
		{ZField{Type: FieldTypeHex16, Integer: 0xBEEF}, "beef"},
		{ZField{Type: FieldTypeHex24, Integer: 0x7E1234}, "7e:1234"},
		{ZField{Type: FieldTypeHex32, Integer: 0xCAFE}, "0000cafe"},
		{ZField{Type: FieldTypeInt, Integer: ^uint64(0)}, "-1"},
		{ZField{Type: FieldTypeUint, Integer: 42}, "42"},
		{ZField{Type: FieldTypeError}, "<nil>"},
		{ZField{Type: FieldTypeError, Err: errors.New("boom")}, "boom"},
		{ZField{Type: FieldTypeDuration, Integer: uint64(time.Second)}, "1s"},
	}
	for _, tt := range tests {
		if got := tt.f.Value(); got != tt.want {
			t.Errorf("Value(%+v) = %q, want %q", tt.f, got, tt.want)
		}
	}
}

type lineContext struct{ line int }

func (c *lineContext) AddLogContext(z *EntryZ) { z.Int("line", c.line) }

func TestEntryZ(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		DisableDebugModules(ModVPU.Mask())
	})

	if z := ModVPU.DebugZ("hidden"); z != nil {
		t.Fatalf("DebugZ on disabled module returned an entry")
	}
	// A nil entry swallows everything.
	ModVPU.DebugZ("hidden").Hex24("addr", 0x123456).End()
	if buf.Len() != 0 {
		t.Fatalf("disabled module wrote %q", buf.String())
	}

	EnableDebugModules(ModVPU.Mask())
	ctx := &lineContext{line: 37}
	AddContext(ctx)
	ModVPU.DebugZ("bank fetched").Hex24("addr", 0x7E1234).End()
	RemoveContext(ctx)

	out := buf.String()
	for _, want := range []string{"bank fetched", "_mod=vpu", "7e:1234", "line=37"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q doesn't contain %q", out, want)
		}
	}

	buf.Reset()
	ModVPU.InfoZ("no context").End()
	if strings.Contains(buf.String(), "line=") {
		t.Errorf("context still applied after RemoveContext: %q", buf.String())
	}
}

func TestModules(t *testing.T) {
	mod, ok := ModuleByName("cpu")
	if !ok || mod != ModCPU {
		t.Errorf("ModuleByName(cpu) = %v, %t", mod, ok)
	}
	if _, ok := ModuleByName("ppu"); ok {
		t.Errorf("ModuleByName(ppu) found")
	}
	if !ModEmu.Enabled(WarnLevel) {
		t.Errorf("warnings must always be enabled")
	}

	names := ModuleNames()
	names[0] = "changed"
	if ModuleNames()[0] != "emu" {
		t.Errorf("ModuleNames exposes the internal slice")
	}
}

func BenchmarkDisabledEntry(b *testing.B) {
	SetOutput(io.Discard)
	for b.Loop() {
		ModCPU.DebugZ("op").Hex24("pc", 0x8000).Uint("cycles", 7).End()
	}
}

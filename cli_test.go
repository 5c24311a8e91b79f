package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseAddr24(t *testing.T) {
	tests := []struct {
		s       string
		want    uint32
		wantErr bool
	}{
		{s: "8000", want: 0x8000},
		{s: "$C000", want: 0xC000},
		{s: "0x12abcd", want: 0x12ABCD},
		{s: "01:8000", want: 0x018000},
		{s: "FF:$FFFF", want: 0xFFFFFF},
		{s: "1000000", wantErr: true},
		{s: "01:18000", wantErr: true},
		{s: "100:0000", wantErr: true},
		{s: "zz", wantErr: true},
	}
	for _, tt := range tests {
		got, err := parseAddr24(tt.s)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseAddr24(%q) error = %v, wantErr %t", tt.s, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseAddr24(%q) = %06X, want %06X", tt.s, got, tt.want)
		}
	}
}

func TestDisasmMain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prog.bin")
	prog := []byte{
		0xA9, 0x01, // LDA #$01
		0xC2, 0x20, // REP #$20
		0xA9, 0x34, 0x12, // LDA #$1234
		0xE2, 0x20, // SEP #$20
		0xA9, 0x02, // LDA #$02
		0xDB, // STP
	}
	if err := os.WriteFile(path, prog, 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := disasmMain(&out, Disasm{ImagePath: path, LoadAddr: 0x8000}); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"00:8000  A9 01        LDA #$01",
		"00:8002  C2 20        REP #$20",
		"00:8004  A9 34 12     LDA #$1234",
		"00:8007  E2 20        SEP #$20",
		"00:8009  A9 02        LDA #$02",
		"00:800B  DB           STP",
	}
	got := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("disassembly mismatch (-want +got):\n%s", diff)
	}

	out.Reset()
	start := addr24(0x8004)
	if err := disasmMain(&out, Disasm{ImagePath: path, LoadAddr: 0x8000, Start: &start, Count: 1, M16: true}); err != nil {
		t.Fatal(err)
	}
	if got := strings.TrimSpace(out.String()); got != "00:8004  A9 34 12     LDA #$1234" {
		t.Errorf("got %q", got)
	}

	start = 0x9000
	if err := disasmMain(&out, Disasm{ImagePath: path, LoadAddr: 0x8000, Start: &start}); err == nil {
		t.Errorf("disasm starting outside image succeeded")
	}
}

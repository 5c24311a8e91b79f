package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/veandco/go-sdl2/sdl"

	"x65/emu"
	"x65/emu/rpc"
	"x65/hw"
	"x65/hw/statsview"
	"x65/hw/w65c816"
)

// runMain runs the emulator with the given program image.
func runMain(args Run, cfg *emu.Config) {
	if args.LoadAddr != nil {
		cfg.Machine.LoadAddr = uint32(*args.LoadAddr)
	}
	if args.ClockHz != 0 {
		cfg.Machine.ClockHz = args.ClockHz
	}

	img := emu.Image{LoadAddr: cfg.Machine.LoadAddr}
	if args.ResetVector != nil {
		if *args.ResetVector > 0xFFFF {
			fatalf("reset vector %06X is not in bank 0", uint32(*args.ResetVector))
		}
		vec := uint16(*args.ResetVector)
		img.ResetVector = &vec
	}

	var err error
	img.Data, err = os.ReadFile(args.ImagePath)
	checkf(err, "failed to read image")

	m, err := emu.PowerUp(img, cfg.Machine)
	checkf(err, "failed to power up")

	if args.SnapshotIn != "" {
		checkf(restoreSnapshot(m, args.SnapshotIn), "failed to restore snapshot")
	}

	if args.StatsView {
		if !statsview.Available() {
			fatalf("statsview not available, rebuild with -tags statsview")
		}
		statsview.Launch(os.Stdout)
	}

	if args.Trace != nil {
		defer args.Trace.Close()
	}

	if args.CPUProfile != "" {
		f, err := os.Create(args.CPUProfile)
		checkf(err, "failed to create cpu profile file")
		checkf(pprof.StartCPUProfile(f), "failed to start cpu profile")
		defer func() {
			pprof.StopCPUProfile()
			f.Close()
			fmt.Println("CPU profile written to", args.CPUProfile)
		}()
	}

	var exitcode int
	if args.Headless {
		exitcode = runHeadless(m, args, cfg)
	} else {
		if args.Trace != nil {
			cfg.TraceOut = args.Trace
		}
		sdl.Main(func() {
			emulator, err := emu.Launch(m, *cfg)
			if err != nil {
				fmt.Fprintf(os.Stderr, "failed to start emulator: %v\n", err)
				exitcode = 1
				return
			}
			emulator.SetScreenshotPath(args.Screenshot)

			if args.Port != 0 {
				server, err := rpc.NewServer(args.Port, emulator)
				if err != nil {
					fmt.Fprintf(os.Stderr, "RPC error: %v\n", err)
					exitcode = 1
					return
				}
				defer server.Close()
			}

			emulator.Run()
		})
	}

	if err := saveState(m, args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		exitcode = 1
	}
	if exitcode != 0 {
		os.Exit(exitcode)
	}
}

func runHeadless(m *hw.Machine, args Run, cfg *emu.Config) int {
	if args.Trace != nil {
		m.CPU.SetTraceOutput(args.Trace, m)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := emu.RunHeadless(ctx, m, emu.HeadlessConfig{
		Frames:     args.Frames,
		Screenshot: args.Screenshot,
		Scale:      cfg.Video.Scale,
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "headless run failed: %v\n", err)
		return 1
	}
	return 0
}

func restoreSnapshot(m *hw.Machine, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return m.LoadSnapshot(f)
}

// saveState writes the snapshot and state dump requested on the command line.
func saveState(m *hw.Machine, args Run) error {
	if args.SnapshotOut != "" {
		f, err := os.Create(args.SnapshotOut)
		if err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
		if err := m.SaveSnapshot(f); err != nil {
			f.Close()
			return fmt.Errorf("snapshot: %w", err)
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("snapshot: %w", err)
		}
	}
	if args.DumpState != nil {
		defer args.DumpState.Close()
		if err := m.DumpState(args.DumpState); err != nil {
			return fmt.Errorf("dump state: %w", err)
		}
	}
	return nil
}

func ctlMain(args Ctl) error {
	c, err := rpc.NewClient(args.Port)
	if err != nil {
		return err
	}
	defer c.Close()

	switch args.Action {
	case "pause":
		return c.SetPause(true)
	case "resume":
		return c.SetPause(false)
	case "reset":
		return c.Reset()
	case "stop":
		return c.Stop()
	case "frames":
		n, err := c.Frames()
		if err != nil {
			return err
		}
		fmt.Println(n)
	}
	return nil
}

// imagePeeker serves the bytes of a program image loaded at base. Addresses
// outside the image read as 0.
type imagePeeker struct {
	data []byte
	base uint32
}

func (p imagePeeker) Peek8(addr uint32) uint8 {
	off := (addr - p.base) & 0xFFFFFF
	if off >= uint32(len(p.data)) {
		return 0
	}
	return p.data[off]
}

// disasmMain prints the disassembly of the image. REP and SEP immediates
// update the assumed register widths as they're met.
func disasmMain(w io.Writer, args Disasm) error {
	buf, err := os.ReadFile(args.ImagePath)
	if err != nil {
		return err
	}
	base := uint32(args.LoadAddr)
	end := base + uint32(len(buf))

	pc := base
	if args.Start != nil {
		pc = uint32(*args.Start)
	}
	if pc < base || pc >= end {
		return fmt.Errorf("start address %06X outside image [%06X-%06X)", pc, base, end)
	}

	m8, x8 := !args.M16, !args.X16
	peek := imagePeeker{data: buf, base: base}
	for n := 0; pc < end && (args.Count == 0 || n < args.Count); n++ {
		op := w65c816.Disasm(peek, pc, m8, x8)
		if _, err := fmt.Fprintln(w, op.String()); err != nil {
			return err
		}

		switch op.Buf[0] {
		case 0xC2: // REP
			m8 = m8 && op.Buf[1]&0x20 == 0
			x8 = x8 && op.Buf[1]&0x10 == 0
		case 0xE2: // SEP
			m8 = m8 || op.Buf[1]&0x20 != 0
			x8 = x8 || op.Buf[1]&0x10 != 0
		}
		pc += uint32(len(op.Buf))
	}
	return nil
}

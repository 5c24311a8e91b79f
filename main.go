package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"x65/emu"
)

func main() {
	args := parseArgs(os.Args[1:])

	switch args.mode {
	case runMode:
		cfg := emu.LoadConfigOrDefault()
		runMain(args.Run, &cfg)
	case disasmMode:
		checkf(disasmMain(os.Stdout, args.Disasm), "disassembly failed")
	case ctlMode:
		checkf(ctlMain(args.Ctl), "remote control failed")
	case versionMode:
		printVersion()
	}
}

func printVersion() {
	version := "(devel)"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" {
		version = bi.Main.Version
	}
	fmt.Println("x65", version)
}

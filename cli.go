package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"x65/emu/log"
)

type mode byte

const (
	runMode     mode = iota // Run a program image
	disasmMode              // Disassemble a program image
	ctlMode                 // Control a running emulator
	versionMode             // Show x65 version
)

type (
	CLI struct {
		Run     Run     `cmd:"" help:"Run program image in emulator." default:"withargs"`
		Disasm  Disasm  `cmd:"" help:"Disassemble program image."`
		Ctl     Ctl     `cmd:"" help:"Control an emulator started with --port."`
		Version Version `cmd:"" help:"Show x65 version."`

		Log logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`

		mode mode
	}

	Run struct {
		ImagePath   string  `arg:"" name:"/path/to/image" help:"${imagepath_help}" type:"existingfile"`
		LoadAddr    *addr24 `name:"load-addr" help:"${loadaddr_help}" placeholder:"ADDR"`
		ResetVector *addr24 `name:"reset-vector" help:"${resetvector_help}" placeholder:"ADDR"`
		ClockHz     int     `name:"clock" help:"CPU and VPU clock frequency, in Hz." placeholder:"HZ"`

		Trace      *outfile `name:"trace" help:"Write CPU trace log." placeholder:"FILE|stdout|stderr"`
		CPUProfile string   `name:"cpuprofile" help:"${cpuprofile_help}" type:"path"`
		StatsView  bool     `name:"statsview" help:"${statsview_help}"`
		Port       int      `name:"port" help:"Accept remote control on this port (see ctl)."`

		Headless    bool     `name:"headless" help:"Run without window."`
		Frames      int      `name:"frames" help:"Number of frames to run in headless mode." default:"60"`
		Screenshot  string   `name:"screenshot" help:"Save the last frame as PNG on exit." type:"path"`
		SnapshotIn  string   `name:"snapshot-in" help:"Restore machine state from file before running." type:"existingfile"`
		SnapshotOut string   `name:"snapshot-out" help:"Save machine state to file on exit." type:"path"`
		DumpState   *outfile `name:"dump-state" help:"Write CPU and VPU state as JSON on exit." placeholder:"FILE|stdout|stderr"`
	}

	Disasm struct {
		ImagePath string  `arg:"" name:"/path/to/image" type:"existingfile"`
		LoadAddr  addr24  `name:"load-addr" help:"24-bit address the image is loaded at." default:"8000" placeholder:"ADDR"`
		Start     *addr24 `name:"start" help:"First disassembled address. (default: load address)" placeholder:"ADDR"`
		Count     int     `name:"count" help:"Number of instructions, 0 for whole image." default:"0"`
		M16       bool    `name:"m16" help:"Decode immediates with a 16-bit accumulator."`
		X16       bool    `name:"x16" help:"Decode immediates with 16-bit index registers."`
	}

	Ctl struct {
		Port   int    `name:"port" help:"Port the emulator listens on." required:""`
		Action string `arg:"" enum:"pause,resume,reset,stop,frames" help:"One of: pause, resume, reset, stop, frames."`
	}

	Version struct{}
)

var vars = kong.Vars{
	"imagepath_help":   "Raw binary image, loaded in RAM then run.",
	"loadaddr_help":    "24-bit address the image is loaded at. (default: from config, $8000)",
	"resetvector_help": "Override the reset vector at $FFFC.",
	"cpuprofile_help":  "Write CPU profile to file.",
	"statsview_help":   "Serve runtime statistics over HTTP. (needs the statsview build tag)",
	"log_help":         "Enable logging for specified modules.",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("x65"),
		kong.Description("W65C816S and CGIA emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch ctx.Command() {
	case "disasm </path/to/image>":
		cfg.mode = disasmMode
	case "ctl <action>":
		cfg.mode = ctlMode
	case "version":
		cfg.mode = versionMode
	default:
		cfg.mode = runMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	if strings.HasPrefix(ctx.Command(), "run") {
		loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
		var strs []string
		for _, m := range log.ModuleNames() {
			strs = append(strs, "    - "+m)
		}

		fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	}

	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

// addr24 is a 24-bit address, given in hexadecimal ($8000, 0x8000, 8000) or
// as bank:offset (01:8000).
type addr24 uint32

// Decode implements kong.MapperValue interface.
func (a *addr24) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	s, ok := tok.Value.(string)
	if !ok {
		return fmt.Errorf("expected address, got %v", tok.Value)
	}
	v, err := parseAddr24(s)
	if err != nil {
		return err
	}
	*a = addr24(v)
	return nil
}

func parseAddr24(s string) (uint32, error) {
	bank, off, hasBank := strings.Cut(s, ":")
	if !hasBank {
		off, bank = bank, "0"
	}
	off = strings.TrimPrefix(off, "$")
	off = strings.TrimPrefix(strings.TrimPrefix(off, "0x"), "0X")

	b, err := strconv.ParseUint(bank, 16, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid bank in address %q", s)
	}
	bits := 24
	if hasBank {
		bits = 16
	}
	o, err := strconv.ParseUint(off, 16, bits)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return uint32(b)<<16 | uint32(o), nil
}

type outfile struct {
	w     io.Writer
	name  string
	close func() error
}

// Decode decodes FILE|stdout|stderr into an io.WriteCloser
// that writes to that file.
//
// Implements kong.MapperValue interface.
func (f *outfile) Decode(ctx *kong.DecodeContext) error {
	tok := ctx.Scan.Pop()
	f.name = tok.Value.(string)
	f.close = func() error { return nil }

	switch f.name {
	case "stdout":
		f.w = os.Stdout
	case "stderr":
		f.w = os.Stderr
	default:
		fd, err := os.Create(f.name)
		if err != nil {
			return err
		}
		f.w = fd
		f.close = fd.Close
	}
	return nil
}

func (f *outfile) String() string              { return f.name }
func (f *outfile) Write(p []byte) (int, error) { return f.w.Write(p) }
func (f *outfile) Close() error                { return f.close() }

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fatalf(format+".\n"+err.Error(), args...)
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "fatal error:")
	fmt.Fprintf(os.Stderr, "\n\t%s\n", fmt.Sprintf(format, args...))
	os.Exit(1)
}

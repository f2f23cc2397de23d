package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/eightbitsim/eightbit/cpu"
	"github.com/eightbitsim/eightbit/emulator"
)

func main() {
	var hz float64
	var listing bool
	var trace bool
	var verbose bool

	flag.Float64Var(&hz, "hz", 0, "clock rate in Hz (0 runs unpaced)")
	flag.BoolVar(&listing, "l", false, "print the assembled listing and exit")
	flag.BoolVar(&trace, "t", false, "trace every executed step")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	logger := newLogger(verbose)

	if flag.NArg() != 1 {
		logger.Fatal("usage: eightbit [flags] program.asm")
	}

	source := flag.Arg(0)
	inf, err := os.Open(source)
	if err != nil {
		logger.Fatal("open failed", log.String("file", source), log.Err(err))
	}
	defer inf.Close()

	asm := &cpu.Assembler{Verbose: verbose}
	prog, err := asm.Assemble(inf)
	if err != nil {
		var asmErr *cpu.ErrAssembly
		if errors.As(err, &asmErr) {
			for _, diag := range asmErr.Diags {
				logger.Error(diag.Error())
			}
		} else {
			logger.Error("assembly failed", log.Err(err))
		}
		os.Exit(1)
	}

	if listing {
		printListing(prog)
		return
	}

	emu := emulator.New(logger)
	emu.Load(prog)

	if hz > 0 {
		run(emu, hz, logger)
	} else {
		stepAll(emu, prog, trace)
	}

	fmt.Print(emu.State().String())
}

// newLogger follows the default configuration, raised to debug level in
// verbose mode.
func newLogger(verbose bool) *log.Logger {
	cfg := log.DefaultConfig()
	if verbose {
		cfg.Level = log.DebugLevel
	}
	return log.NewWithConfig(cfg)
}

func printListing(prog *cpu.Program) {
	for addr, in := range prog.Listing() {
		if in.Operands > 0 && addr+1 < len(prog.Code) {
			fmt.Printf("%3d: %-3v %v\n", addr, in.Name(), prog.Code[addr+1])
		} else {
			fmt.Printf("%3d: %v\n", addr, in.Name())
		}
	}
}

// run executes under the wall-clock scheduler until the program halts.
func run(emu *emulator.Emulator, hz float64, logger *log.Logger) {
	if err := emu.SetClockSpeed(hz); err != nil {
		logger.Fatal("clock rate", log.Err(err))
	}

	emu.Run()
	for emu.Running() {
		time.Sleep(10 * time.Millisecond)
	}
}

// stepAll single-steps the machine as fast as possible.
func stepAll(emu *emulator.Emulator, prog *cpu.Program, trace bool) {
	for !emu.AtEnd() {
		if trace {
			st := emu.State()
			fmt.Printf("%3d: %-3v ; line %v\n", st.Pc, cpu.Op(prog.Code[st.Pc]), st.Line)
		}
		if emu.Step() {
			break
		}
	}
}

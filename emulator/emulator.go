// Package emulator drives a cpu.Machine in wall-clock time.
//
// The emulator owns the machine and a periodic scheduler that invokes
// one fetch-decode-execute step per tick. Control operations and state
// polling are serialized on an internal lock, so a UI polling State
// while the scheduler runs never observes an in-progress step.
package emulator

import (
	"fmt"
	"iter"
	"maps"
	"sync"
	"time"

	"github.com/retroenv/retrogolib/log"

	"github.com/eightbitsim/eightbit/cpu"
	"github.com/eightbitsim/eightbit/internal"
)

const (
	DEFAULT_CLOCK_HZ = 2.0 // Default clock rate, slow enough to follow on screen.
)

var _emulator_defines = map[string]string{
	"DEFAULT_CLOCK_HZ": fmt.Sprintf("%v", DEFAULT_CLOCK_HZ),
}

// Emulator is a machine plus its execution scheduler.
type Emulator struct {
	mu      sync.Mutex
	machine *cpu.Machine
	logger  *log.Logger
	hz      float64
	running bool
	ticker  *time.Ticker
	cancel  chan struct{} // Cancellation token for the running scheduler.
}

// State is the machine snapshot plus scheduler state.
type State struct {
	cpu.State
	Running bool
	ClockHz float64
}

// New creates a stopped emulator at the default clock rate. A nil
// logger falls back to the default configuration.
func New(logger *log.Logger) (emu *Emulator) {
	if logger == nil {
		logger = log.NewWithConfig(log.DefaultConfig())
	}

	emu = &Emulator{
		machine: cpu.NewMachine(),
		logger:  logger,
		hz:      DEFAULT_CLOCK_HZ,
	}

	return
}

// Defines returns an iterator over all of the defines.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines), cpu.Defines())
}

// Load stops the scheduler and loads a program into the machine.
func (emu *Emulator) Load(prog *cpu.Program) {
	emu.Stop()

	emu.mu.Lock()
	defer emu.mu.Unlock()

	emu.machine.Load(prog)
	emu.logger.Debug("program loaded", log.Int("bytes", emu.machine.Len()))
}

// Reset stops the scheduler and zeroes the machine. The source-line
// map of the last loaded program survives.
func (emu *Emulator) Reset() {
	emu.Stop()

	emu.mu.Lock()
	defer emu.mu.Unlock()

	emu.machine.Reset()
}

// Step advances the machine a single cycle outside the scheduler and
// reports whether the instruction requested a halt.
func (emu *Emulator) Step() (halt bool) {
	emu.mu.Lock()
	defer emu.mu.Unlock()

	return emu.machine.Step()
}

// Running reports whether the scheduler is active.
func (emu *Emulator) Running() bool {
	emu.mu.Lock()
	defer emu.mu.Unlock()

	return emu.running
}

// AtEnd reports whether the program counter has run past the loaded
// program.
func (emu *Emulator) AtEnd() bool {
	emu.mu.Lock()
	defer emu.mu.Unlock()

	return emu.machine.AtEnd()
}

// LineNo returns the 0-based source line for the next instruction.
func (emu *Emulator) LineNo() int {
	emu.mu.Lock()
	defer emu.mu.Unlock()

	return emu.machine.LineNo()
}

// State returns a defensive copy of the machine and scheduler state.
func (emu *Emulator) State() State {
	emu.mu.Lock()
	defer emu.mu.Unlock()

	return State{
		State:   emu.machine.Snapshot(),
		Running: emu.running,
		ClockHz: emu.hz,
	}
}

// SetClockSpeed changes the tick rate. If the scheduler is running, the
// interval restarts immediately at the new rate.
func (emu *Emulator) SetClockSpeed(hz float64) (err error) {
	if !(hz > 0) {
		return ErrClockRate
	}

	emu.mu.Lock()
	defer emu.mu.Unlock()

	emu.hz = hz
	if emu.running {
		emu.ticker.Reset(emu.period())
	}

	return
}

// period is the tick interval for the current clock rate.
// Callers hold the lock.
func (emu *Emulator) period() time.Duration {
	return time.Duration(float64(time.Second) / emu.hz)
}

// Run starts the scheduler. A no-op if already running. The scheduler
// steps the machine once per tick until an instruction halts or the
// program counter runs past the loaded program, then stops itself.
func (emu *Emulator) Run() {
	emu.mu.Lock()
	if emu.running {
		emu.mu.Unlock()
		return
	}
	emu.running = true
	emu.ticker = time.NewTicker(emu.period())
	emu.cancel = make(chan struct{})
	ticker, cancel := emu.ticker, emu.cancel
	emu.mu.Unlock()

	emu.logger.Debug("run")
	go emu.loop(ticker, cancel)
}

// Stop cancels the scheduler. Idempotent; once Stop returns, no further
// step executes until the next Run.
func (emu *Emulator) Stop() {
	emu.mu.Lock()
	defer emu.mu.Unlock()

	emu.stopLocked()
}

func (emu *Emulator) stopLocked() {
	if !emu.running {
		return
	}

	emu.running = false
	emu.ticker.Stop()
	close(emu.cancel)
	emu.logger.Debug("stop")
}

func (emu *Emulator) loop(ticker *time.Ticker, cancel chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			emu.mu.Lock()
			if !emu.running {
				// A tick raced with Stop; the step must not run.
				emu.mu.Unlock()
				return
			}
			halt := emu.machine.Step()
			done := halt || emu.machine.AtEnd()
			if done {
				emu.stopLocked()
			}
			emu.mu.Unlock()
			if done {
				return
			}
		}
	}
}

// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/lemurs/config"
	"github.com/ezrec/lemurs/cpu"
	"github.com/ezrec/lemurs/internal"
	"github.com/ezrec/lemurs/io"
	"github.com/ezrec/lemurs/memory"
)

const (
	CHECK_INTERVAL = 1024 // Ticks between checks for cancellation.
)

var _emulator_defines = map[string]string{
	"MEMORY_SIZE": fmt.Sprintf("%#x", memory.SIZE),
}

// Emulator state. CPU + memory image + output sink.
type Emulator struct {
	Verbose  bool         // If set, enables verbose logging.
	*cpu.Cpu              // Reference to the CPU simulation.
	Program  *cpu.Program // Listing of the running program, if assembled.
	Policy   config.Run   // Termination policy; the machine has no halt.

	Rom  io.Rom  // Image loaded at address 0 on reset.
	Tape io.Tape // Default output sink.
}

// NewEmulator creates a new emulator writing to its tape.
func NewEmulator(policy config.Run) (emu *Emulator) {
	emu = &Emulator{
		Cpu:     cpu.NewCpu(),
		Program: &cpu.Program{},
		Policy:  policy,
	}

	emu.Cpu.Output = &emu.Tape

	return
}

// Defines returns an iterator over all of the defines
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	return internal.IterSeq2Concat(maps.All(_emulator_defines),
		emu.Cpu.Defines(),
		emu.Rom.Defines(),
		emu.Tape.Defines(),
	)
}

// SetProgram installs an assembled program as the image.
func (emu *Emulator) SetProgram(prog *cpu.Program) {
	emu.Program = prog
	emu.Rom.Data = prog.Binary()
}

// Reset the machine and load the image.
func (emu *Emulator) Reset() (err error) {
	emu.Cpu.Verbose = emu.Verbose

	emu.Cpu.Reset()

	err = emu.Cpu.Memory.Load(emu.Rom.Data)
	if err != nil {
		return
	}

	return
}

// Ticks returns the total ticks since a reset.
func (emu *Emulator) Ticks() int {
	return emu.Cpu.Ticks
}

// Ip returns current instruction pointer.
func (emu *Emulator) Ip() int {
	return int(emu.Cpu.Ip)
}

// Code returns the current instruction code.
func (emu *Emulator) Code() cpu.Code {
	if emu.Cpu.Ip > 0xffff {
		return cpu.Code{}
	}

	dbg := emu.Program.Debug(uint16(emu.Cpu.Ip))
	if dbg.Opcode == nil {
		return cpu.Code{}
	}

	return dbg.Codes[dbg.Index]
}

// LineNo returns the current line number for the executing opcode.
func (emu *Emulator) LineNo() int {
	if emu.Cpu.Ip > 0xffff {
		return 0
	}

	dbg := emu.Program.Debug(uint16(emu.Cpu.Ip))
	if dbg.Opcode == nil {
		return 0
	}

	return dbg.Opcode.LineNo
}

// Tick performs a single tick of the emulator.
func (emu *Emulator) Tick() (done bool, err error) {
	// Set CPU verbosity
	emu.Cpu.Verbose = emu.Verbose

	// A fault does not retire, so Ip still names the faulting code.
	defer func() {
		if err != nil {
			err = &ErrRuntime{Ip: emu.Cpu.Ip, LineNo: emu.LineNo(), Err: err}
		}
	}()

	err = emu.Cpu.Tick()
	if emu.Policy.StopAtEnd && errors.Is(err, cpu.ErrIpEnd) {
		err = nil
		done = true
		return
	}

	return
}

// Run ticks until the program is done, a fault occurs, the step budget is
// spent or ctx is cancelled. Cancellation is only observed between
// instructions.
func (emu *Emulator) Run(ctx context.Context) (steps int, err error) {
	for {
		if emu.Policy.MaxSteps > 0 && steps >= emu.Policy.MaxSteps {
			err = ErrStepBudget
			return
		}

		if steps%CHECK_INTERVAL == 0 {
			err = ctx.Err()
			if err != nil {
				return
			}
		}

		var done bool
		done, err = emu.Tick()
		if done || err != nil {
			return
		}
		steps++
	}
}

package emulator

import (
	"bytes"
	"context"
	"maps"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/lemurs/config"
	"github.com/ezrec/lemurs/cpu"
	"github.com/ezrec/lemurs/memory"
)

var stopAtEnd = config.Run{StopAtEnd: true, MaxSteps: 100_000}

func TestEmulator(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(stopAtEnd)

	assert.False(emu.Verbose)
	assert.NotNil(emu.Cpu.Memory)

	defines := maps.Collect(emu.Defines())
	assert.Equal("0x10000", defines["MEMORY_SIZE"])
	assert.Equal("0xffff", defines["WIDE_MAX"])
	assert.Contains(defines, "ROM_LIMIT")
}

func assemble(emu *Emulator, program []string, t *testing.T) (output *bytes.Buffer) {
	asm := &cpu.Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(program, "\n")))
	require.NoError(t, err)

	emu.SetProgram(prog)

	output = &bytes.Buffer{}
	emu.Tape.Output = output

	err = emu.Reset()
	require.NoError(t, err)

	return
}

// doRunSingle steps a straight line program, checking the listing
// tracks the instruction pointer.
func doRunSingle(emu *Emulator, program []string, t *testing.T) (output []byte) {
	assert := assert.New(t)

	tape := assemble(emu, program, t)

	for _, op := range emu.Program.Opcodes {
		if len(op.Codes) == 0 {
			continue
		}
		here := program[op.LineNo-1]
		assert.Equal(op.LineNo, emu.LineNo(), here)
		assert.Equal(uint32(op.Ip), emu.Cpu.Ip, here)
		assert.Equal(op.Codes[0], emu.Code(), here)

		done, err := emu.Tick()
		require.NoError(t, err, here)
		assert.False(done, here)
	}

	output = tape.Bytes()
	return
}

func TestEmulatorAlu(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(stopAtEnd)
	program := []string{
		"set r1 0x10",
		"addcimm r1 r1 1",    // r1 = 0x11
		"xor r0 r0",          // r0 = 0
		"subm r0 r1",         // r0 = -0x11
		"set r2 250",
		"addc r2 r1",         // clamps at 255
		"setw r3 0x1234",
		"shlimmw r4 r3 4",    // r4w = 0x2340
		"andimmw r4 r4 ~0xf", // unchanged
		"absdiffw r4 r3",     // 0x110c
	}

	doRunSingle(emu, program, t)

	assert.Equal(uint8(0x100-0x11), emu.Cpu.Register.Small[0])
	assert.Equal(uint8(0x11), emu.Cpu.Register.Small[1])
	assert.Equal(uint8(0xff), emu.Cpu.Register.Small[2])
	assert.Equal(uint16(0x1234), emu.Cpu.Register.Wide[3])
	assert.Equal(uint16(0x110c), emu.Cpu.Register.Wide[4])
	// Banks are independent.
	assert.Equal(uint16(0), emu.Cpu.Register.Wide[1])
	assert.Equal(uint8(0), emu.Cpu.Register.Small[3])
}

func TestEmulatorEqu(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(stopAtEnd)
	program := []string{
		".equ CONST_10 0x10",
		"set r0 CONST_10",
		"set r1 $(CONST_10 + CONST_10)",
		".equ CONST_30 $(2 * CONST_10 + CONST_10)",
		"set r2 CONST_30",
		"set r3 $(LINENO * 8 + 0x10)",
		"set r4 'A'",
	}

	doRunSingle(emu, program, t)

	assert.Equal(uint8(0x10), emu.Cpu.Register.Small[0])
	assert.Equal(uint8(0x20), emu.Cpu.Register.Small[1])
	assert.Equal(uint8(0x30), emu.Cpu.Register.Small[2])
	assert.Equal(uint8(0x40), emu.Cpu.Register.Small[3])
	assert.Equal(uint8('A'), emu.Cpu.Register.Small[4])
}

func TestEmulatorMacro(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(stopAtEnd)
	program := []string{
		".macro SETADD rn a b",
		"set rn a",
		"addmimm rn rn b",
		".endm",
		"SETADD r0 8 8",
		".equ CONST_10 0x10",
		"SETADD r1 CONST_10 CONST_10",
		"SETADD r2 $(CONST_10 + CONST_10) 0x10",
	}

	tape := assemble(emu, program, t)
	assert.Len(emu.Rom.Data, 18)

	// Zeroed memory past the image decodes as output r0.
	steps, err := emu.Run(context.Background())
	assert.NoError(err)
	assert.Equal(6+memory.SIZE-18, steps)
	assert.Equal(memory.SIZE-18, tape.Len())

	assert.Equal(uint8(0x10), emu.Cpu.Register.Small[0])
	assert.Equal(uint8(0x20), emu.Cpu.Register.Small[1])
	assert.Equal(uint8(0x30), emu.Cpu.Register.Small[2])
}

func TestEmulatorRun(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Run{StopAtEnd: true})
	program := []string{
		"        set r1 5",
		"loop:   output r1",
		"        subcimm r1 r1 2",
		"        jo r1 loop",
		"        jmp $(MEMORY_SIZE - 1)",
	}

	tape := assemble(emu, program, t)

	// The last byte of memory is output r0.
	steps, err := emu.Run(context.Background())
	assert.NoError(err)
	assert.Equal(12, steps)
	assert.Equal(emu.Ticks(), steps)
	assert.Equal([]byte{5, 3, 1, 0}, tape.Bytes())
}

func TestEmulatorEnd(t *testing.T) {
	table := [](struct {
		name      string
		stopAtEnd bool
		err       error
	}){
		{"stop", true, nil},
		{"fault", false, cpu.ErrAddressOutOfRange},
	}

	for _, entry := range table {
		t.Run(entry.name, func(t *testing.T) {
			assert := assert.New(t)

			emu := NewEmulator(config.Run{StopAtEnd: entry.stopAtEnd})
			emu.Rom.Data = []byte{0x60, 0xff, 0xff} // jmp 0xffff
			require.NoError(t, emu.Reset())

			// output r0 at 0xffff, then off the end.
			steps, err := emu.Run(context.Background())
			assert.Equal(2, steps)
			if entry.err == nil {
				assert.NoError(err)
			} else {
				assert.ErrorIs(err, entry.err)
				assert.ErrorIs(err, cpu.ErrIpEnd)
				var rt *ErrRuntime
				assert.ErrorAs(err, &rt)
				assert.Equal(uint32(0x10000), rt.Ip)
			}
		})
	}
}

func TestEmulatorFault(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(stopAtEnd)
	program := []string{
		"set r0 1",
		"loadmemw r0 0xffff",
	}

	assemble(emu, program, t)

	steps, err := emu.Run(context.Background())
	assert.Equal(1, steps)
	assert.ErrorIs(err, cpu.ErrAddressOutOfRange)

	var rt *ErrRuntime
	require.ErrorAs(t, err, &rt)
	assert.Equal(2, rt.LineNo)
	assert.Equal(uint32(3), rt.Ip)
	// The faulting instruction did not retire.
	assert.Equal(uint32(3), emu.Cpu.Ip)
	assert.Equal(uint8(1), emu.Cpu.Register.Small[0])
}

func TestEmulatorBudget(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Run{MaxSteps: 50})
	emu.Rom.Data = []byte{0x60, 0x00, 0x00} // jmp 0
	assert.NoError(emu.Reset())

	steps, err := emu.Run(context.Background())
	assert.ErrorIs(err, ErrStepBudget)
	assert.Equal(50, steps)
}

func TestEmulatorLongListing(t *testing.T) {
	assert := assert.New(t)

	program := make([]string, 0, 20_001)
	for range 20_000 {
		program = append(program, "nop")
	}
	program = append(program, "jmp 0")

	emu := NewEmulator(config.Run{MaxSteps: 200_000})
	assemble(emu, program, t)
	assert.Len(emu.Program.Opcodes, 20_001)

	start := time.Now()
	steps, err := emu.Run(context.Background())
	elapsed := time.Since(start)

	assert.ErrorIs(err, ErrStepBudget)
	assert.Equal(200_000, steps)
	assert.Less(elapsed, 2*time.Second)

	assert.Equal(emu.Program.Opcodes[steps%20_001].LineNo, emu.LineNo())
}

func TestEmulatorCancel(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(config.Run{})
	emu.Rom.Data = []byte{0x60, 0x00, 0x00} // jmp 0
	assert.NoError(emu.Reset())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	steps, err := emu.Run(ctx)
	assert.ErrorIs(err, context.Canceled)
	assert.Equal(0, steps)
}

func TestEmulatorReset(t *testing.T) {
	assert := assert.New(t)

	emu := NewEmulator(stopAtEnd)
	program := []string{
		"set r5 7",
		"storemem r5 data",
		"data: .byte 1 2",
	}

	assemble(emu, program, t)
	for range 2 {
		_, err := emu.Tick()
		assert.NoError(err)
	}

	value, err := emu.Cpu.Memory.ReadByteAt(6)
	assert.NoError(err)
	assert.Equal(uint8(7), value)

	assert.NoError(emu.Reset())
	assert.Equal(uint32(0), emu.Cpu.Ip)
	assert.Equal(0, emu.Ticks())
	assert.Equal(uint8(0), emu.Cpu.Register.Small[5])

	value, err = emu.Cpu.Memory.ReadByteAt(6)
	assert.NoError(err)
	assert.Equal(uint8(1), value)
}

package cpu

import (
	"errors"
	"fmt"
	"iter"
	"maps"

	"github.com/ezrec/lemurs/internal/log"
	"github.com/ezrec/lemurs/io"
	"github.com/ezrec/lemurs/memory"
)

const (
	MAX_CODE_LEN = 4 // Longest instruction encoding, in bytes.
)

var _cpu_defines = map[string]string{
	"MEMORY_END": fmt.Sprintf("%#x", memory.SIZE-1),
	"SMALL_MAX":  fmt.Sprintf("%#x", WIDTH_SMALL.Max()),
	"WIDE_MAX":   fmt.Sprintf("%#x", WIDTH_WIDE.Max()),
}

// Sink is an output sink.
type Sink io.Sink

// Cpu is the simulation context for the lemurs processor.
type Cpu struct {
	Verbose bool // Set to enable verbose logging.

	Memory   *memory.Memory // Program and data memory.
	Output   Sink           // Receiver of output and outputw; nil discards.
	Trace    *Tracer        // If set, records every executed instruction.
	Ip       uint32         // Current instruction pointer.
	Register RegisterFile   // Register banks.

	Ticks int // CPU ticks counter.
}

// NewCpu creates a new CPU with its own memory.
func NewCpu() (cpu *Cpu) {
	cpu = &Cpu{
		Memory: memory.NewMemory(),
	}

	return
}

// Defines for the cpu
func (cpu *Cpu) Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// String returns the current CPU state as a string.
func (cpu *Cpu) String() (text string) {
	text += fmt.Sprintf("%5s: %04X\n", "ip", cpu.Ip)
	for n := range REGISTER_COUNT {
		text += fmt.Sprintf("%5s: %02X  %04X\n", CodeReg(n).String(), cpu.Register.Small[n], cpu.Register.Wide[n])
	}

	return
}

// Reset the CPU state.
// - Clears the registers and memory.
// - Zeros the tick counter.
// - Sets the IP to 0.
func (cpu *Cpu) Reset() {
	if cpu.Verbose {
		log.Cpu.Debug().Msg("cpu: reset")
	}

	cpu.Register.Reset()
	cpu.Memory.Reset()
	cpu.Ip = 0
	cpu.Ticks = 0
}

// FetchCode decodes the instruction at the instruction pointer.
func (cpu *Cpu) FetchCode() (code Code, err error) {
	size := cpu.Memory.Size()
	ip := int(cpu.Ip)

	if ip >= size {
		err = errors.Join(ErrIpEnd, &memory.ErrAddress{Address: ip, Width: 1, Size: size})
		return
	}

	window, err := cpu.Memory.Bytes(ip, min(MAX_CODE_LEN, size-ip))
	if err != nil {
		return
	}

	code, err = Decode(window)
	if err != nil {
		err = &ErrFetch{Ip: cpu.Ip, Err: errors.Join(ErrOpcodeDecode, err)}
		return
	}

	return
}

// Tick executes a single CPU instruction cycle.
func (cpu *Cpu) Tick() (err error) {
	cpu.Memory.Verbose = cpu.Verbose

	code, err := cpu.FetchCode()
	if err != nil {
		return
	}

	err = cpu.Execute(code)
	return
}

// Execute executes a single decoded instruction.
func (cpu *Cpu) Execute(code Code) (err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrOpcode(code), err)
		}
	}()

	ip := cpu.Ip
	if cpu.Verbose {
		log.Cpu.Debug().Msgf("%04x: %v", ip, code)
	}

	next_ip := cpu.Ip + uint32(code.Len())
	width := code.Width()
	addr := int(code.Addr)

	switch code.Class {
	case OP_OUTPUT, OP_OUTPUTW:
		if cpu.Output == nil {
			break
		}
		if width == WIDTH_WIDE {
			err = cpu.Output.SendWord(cpu.Register.ReadWide(code.A))
		} else {
			err = cpu.Output.SendByte(cpu.Register.ReadSmall(code.A))
		}
		if err != nil {
			err = errors.Join(ErrOutput, err)
			return
		}
	case OP_LOADMEM:
		var value uint8
		value, err = cpu.Memory.ReadByteAt(addr)
		if err != nil {
			err = errors.Join(ErrOpcodeMemory, err)
			return
		}
		cpu.Register.WriteSmall(code.A, value)
	case OP_LOADMEMW:
		var value uint16
		value, err = cpu.Memory.ReadWordAt(addr)
		if err != nil {
			err = errors.Join(ErrOpcodeMemory, err)
			return
		}
		cpu.Register.WriteWide(code.A, value)
	case OP_STOREMEM:
		err = cpu.Memory.WriteByteAt(addr, cpu.Register.ReadSmall(code.A))
		if err != nil {
			err = errors.Join(ErrOpcodeMemory, err)
			return
		}
	case OP_STOREMEMW:
		err = cpu.Memory.WriteWordAt(addr, cpu.Register.ReadWide(code.A))
		if err != nil {
			err = errors.Join(ErrOpcodeMemory, err)
			return
		}
	case OP_JMP:
		next_ip = uint32(code.Addr)
	case OP_JO:
		if cpu.Register.ReadSmall(code.A)&1 == 1 {
			next_ip = uint32(code.Addr)
		}
	case OP_ALU, OP_ALUW:
		a := cpu.Register.Read(width, code.A)
		b := cpu.Register.Read(width, code.B)
		var output uint16
		output, err = Apply(code.Op, width, a, b)
		if err != nil {
			err = errors.Join(ErrOpcodeAlu, err)
			return
		}
		cpu.Register.Write(width, code.A, output)
	case OP_ALUIMM, OP_ALUIMMW:
		// The low nibble is the source, the literal the second operand.
		src := cpu.Register.Read(width, code.B)
		var output uint16
		output, err = Apply(code.Op, width, src, code.Imm)
		if err != nil {
			err = errors.Join(ErrOpcodeAlu, err)
			return
		}
		cpu.Register.Write(width, code.A, output)
	default:
		err = ErrOpcodeDecode
		return
	}

	cpu.Ip = next_ip
	cpu.Ticks += 1

	if cpu.Trace != nil {
		cpu.Trace.Record(cpu, ip, code)
	}

	return
}

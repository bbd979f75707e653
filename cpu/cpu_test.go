package cpu

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/lemurs/io"
	"github.com/ezrec/lemurs/memory"
)

func load(t *testing.T, codes ...Code) (cpu *Cpu, record *io.Record) {
	var image []byte
	for _, code := range codes {
		image = append(image, code.Bytes()...)
	}

	record = &io.Record{}
	cpu = NewCpu()
	cpu.Output = record
	require.NoError(t, cpu.Memory.Load(image))

	return
}

func TestCpu_StoreLoadOutput(t *testing.T) {
	assert := assert.New(t)

	cpu, record := load(t,
		MakeCodeAluImm(WIDTH_SMALL, ALU_OP_COPY, 1, 1, 42),
		MakeCodeStore(WIDTH_SMALL, 1, 0x0000),
		MakeCodeLoad(WIDTH_SMALL, 0, 0x0000),
		MakeCodeOutput(WIDTH_SMALL, 0),
	)

	for range 4 {
		assert.NoError(cpu.Tick())
	}

	assert.Equal([]io.Sample{{Value: 42}}, record.Samples)
	assert.Equal(4, cpu.Ticks)
	assert.Equal(uint32(3+3+3+1), cpu.Ip)
}

func TestCpu_OutputWide(t *testing.T) {
	assert := assert.New(t)

	cpu, record := load(t,
		MakeCodeAluImm(WIDTH_WIDE, ALU_OP_COPY, 7, 7, 0xbeef),
		MakeCodeOutput(WIDTH_WIDE, 7),
		MakeCodeOutput(WIDTH_SMALL, 7),
	)

	for range 3 {
		assert.NoError(cpu.Tick())
	}

	assert.Equal([]io.Sample{{Wide: true, Value: 0xbeef}, {Value: 0}}, record.Samples)
}

func TestCpu_JumpIfOdd(t *testing.T) {
	table := [](struct {
		value uint8
		taken bool
	}){
		{7, true},
		{8, false},
		{0, false},
		{255, true},
	}

	for _, entry := range table {
		assert := assert.New(t)

		cpu, _ := load(t, MakeCodeJumpOdd(4, 0x1234))
		cpu.Register.Small[4] = entry.value
		cpu.Register.Wide[4] = 1

		assert.NoError(cpu.Tick())
		if entry.taken {
			assert.Equal(uint32(0x1234), cpu.Ip, "%d", entry.value)
		} else {
			assert.Equal(uint32(3), cpu.Ip, "%d", entry.value)
		}
	}
}

func TestCpu_Jump(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := load(t, Code{Class: OP_JMP, A: 9, Addr: 0x0abc})
	assert.NoError(cpu.Tick())
	assert.Equal(uint32(0x0abc), cpu.Ip)
}

func TestCpu_ImmediateRoles(t *testing.T) {
	assert := assert.New(t)

	// r1 = r2 - 1: the low nibble is read, the high nibble written.
	cpu, _ := load(t, MakeCodeAluImm(WIDTH_SMALL, ALU_OP_SUBM, 1, 2, 1))
	cpu.Register.Small[1] = 100
	cpu.Register.Small[2] = 50

	assert.NoError(cpu.Tick())
	assert.Equal(uint8(49), cpu.Register.Small[1])
	assert.Equal(uint8(50), cpu.Register.Small[2])

	// Register form: r1 = r1 - r2.
	cpu, _ = load(t, MakeCodeAlu(WIDTH_SMALL, ALU_OP_SUBM, 1, 2))
	cpu.Register.Small[1] = 100
	cpu.Register.Small[2] = 50

	assert.NoError(cpu.Tick())
	assert.Equal(uint8(50), cpu.Register.Small[1])
	assert.Equal(uint8(50), cpu.Register.Small[2])

	// Wide immediate
	cpu, _ = load(t, MakeCodeAluImm(WIDTH_WIDE, ALU_OP_ADDM, 2, 5, 300))
	cpu.Register.Wide[5] = 0xffff

	assert.NoError(cpu.Tick())
	assert.Equal(uint16(299), cpu.Register.Wide[2])
	assert.Equal(uint16(0xffff), cpu.Register.Wide[5])
	assert.Equal(uint8(0), cpu.Register.Small[2])
}

func TestCpu_InvalidOperation(t *testing.T) {
	assert := assert.New(t)

	for _, opcode := range []byte{0x9f, 0xbf, 0xdf, 0xff} {
		cpu := NewCpu()
		require.NoError(t, cpu.Memory.Load([]byte{opcode, 0x12, 0x34, 0x56}))
		for n := range REGISTER_COUNT {
			cpu.Register.Small[n] = uint8(n)
			cpu.Register.Wide[n] = uint16(n) << 8
		}
		pre := cpu.Register

		err := cpu.Tick()
		assert.ErrorIs(err, ErrInvalidOperation)
		assert.ErrorIs(err, ErrOpcodeDecode)

		var fetch *ErrFetch
		if assert.True(errors.As(err, &fetch)) {
			assert.Equal(uint32(0), fetch.Ip)
		}

		assert.Equal(pre, cpu.Register)
		assert.Equal(uint32(0), cpu.Ip)
		assert.Equal(0, cpu.Ticks)

		view, err := cpu.Memory.Bytes(0, 4)
		assert.NoError(err)
		assert.Equal([]byte{opcode, 0x12, 0x34, 0x56}, view)
	}
}

func TestCpu_MemoryFault(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := load(t,
		MakeCodeStore(WIDTH_WIDE, 0, 0xffff),
	)

	err := cpu.Tick()
	assert.ErrorIs(err, ErrAddressOutOfRange)
	assert.ErrorIs(err, ErrOpcodeMemory)
	assert.ErrorIs(err, ErrOpcode(Code{}))

	var addr *memory.ErrAddress
	if assert.True(errors.As(err, &addr)) {
		assert.Equal(0xffff, addr.Address)
		assert.Equal(2, addr.Width)
	}
	assert.Equal(uint32(0), cpu.Ip)

	// The byte forms reach the last address.
	cpu, _ = load(t,
		MakeCodeStore(WIDTH_SMALL, 0, 0xffff),
		MakeCodeLoad(WIDTH_SMALL, 1, 0xffff),
	)
	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())
}

func TestCpu_IpEnd(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	cpu.Ip = memory.SIZE

	err := cpu.Tick()
	assert.ErrorIs(err, ErrIpEnd)
	assert.ErrorIs(err, ErrAddressOutOfRange)
}

func TestCpu_Truncated(t *testing.T) {
	assert := assert.New(t)

	cpu := NewCpu()
	require.NoError(t, cpu.Memory.WriteByteAt(memory.SIZE-2, 0x60))
	cpu.Ip = memory.SIZE - 2

	err := cpu.Tick()
	assert.ErrorIs(err, ErrTruncatedInstruction)
	assert.Equal(uint32(memory.SIZE-2), cpu.Ip)
}

func TestCpu_OutputError(t *testing.T) {
	assert := assert.New(t)

	cpu, record := load(t,
		MakeCodeOutput(WIDTH_SMALL, 0),
		MakeCodeOutput(WIDTH_SMALL, 0),
	)
	record.Limit = 1

	assert.NoError(cpu.Tick())
	err := cpu.Tick()
	assert.ErrorIs(err, ErrOutput)
	assert.ErrorIs(err, io.ErrRecordFull)
	assert.Equal(uint32(1), cpu.Ip)
}

func TestCpu_NilOutput(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := load(t, MakeCodeOutput(WIDTH_WIDE, 0))
	cpu.Output = nil

	assert.NoError(cpu.Tick())
	assert.Equal(uint32(1), cpu.Ip)
}

func TestCpu_Reset(t *testing.T) {
	assert := assert.New(t)

	cpu, _ := load(t, MakeCodeAluImm(WIDTH_SMALL, ALU_OP_COPY, 1, 1, 1))
	assert.NoError(cpu.Tick())

	cpu.Reset()
	assert.Equal(uint32(0), cpu.Ip)
	assert.Equal(0, cpu.Ticks)
	assert.Equal(RegisterFile{}, cpu.Register)

	value, err := cpu.Memory.ReadByteAt(0)
	assert.NoError(err)
	assert.Equal(uint8(0), value)
}

func TestCpu_Trace(t *testing.T) {
	assert := assert.New(t)

	buffer := &bytes.Buffer{}
	logger := zerolog.New(buffer).Level(zerolog.DebugLevel)

	cpu, _ := load(t,
		MakeCodeAluImm(WIDTH_SMALL, ALU_OP_COPY, 3, 3, 9),
		MakeCodeJumpOdd(3, 0x0000),
	)
	cpu.Trace = NewTracer(&logger)

	assert.NoError(cpu.Tick())
	assert.NoError(cpu.Tick())

	lines := bytes.Split(bytes.TrimSpace(buffer.Bytes()), []byte("\n"))
	if assert.Len(lines, 2) {
		assert.Contains(string(lines[0]), `"code":"copyimm r3 r3 9"`)
		assert.Contains(string(lines[0]), `"r3":9`)
		assert.Contains(string(lines[1]), `"taken":true`)
		assert.Contains(string(lines[1]), `"next":0`)
	}

	// Nothing is logged above the logger level.
	buffer.Reset()
	quiet := zerolog.New(buffer).Level(zerolog.InfoLevel)
	cpu.Trace = NewTracer(&quiet)
	assert.NoError(cpu.Tick())
	assert.Zero(buffer.Len())
}

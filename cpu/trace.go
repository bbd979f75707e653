package cpu

import (
	"github.com/rs/zerolog"
)

// Tracer logs one event per executed instruction.
type Tracer struct {
	Log   *zerolog.Logger
	Level zerolog.Level
}

// NewTracer creates a tracer that logs at debug level.
func NewTracer(log *zerolog.Logger) *Tracer {
	return &Tracer{
		Log:   log,
		Level: zerolog.DebugLevel,
	}
}

// Record logs the instruction executed at ip and the state it left behind.
func (tr *Tracer) Record(cpu *Cpu, ip uint32, code Code) {
	ev := tr.Log.WithLevel(tr.Level)
	if ev == nil {
		return
	}

	ev = ev.Int("tick", cpu.Ticks).
		Uint32("ip", ip).
		Str("code", code.String())

	switch code.Class {
	case OP_LOADMEM, OP_ALU, OP_ALUIMM:
		ev = ev.Uint8(code.A.String(), cpu.Register.ReadSmall(code.A))
	case OP_LOADMEMW, OP_ALUW, OP_ALUIMMW:
		ev = ev.Uint16(code.A.String()+"w", cpu.Register.ReadWide(code.A))
	case OP_JO:
		ev = ev.Bool("taken", cpu.Ip == uint32(code.Addr) && cpu.Register.ReadSmall(code.A)&1 == 1)
	}

	ev.Uint32("next", cpu.Ip).Send()
}

package evolve

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/ezrec/lemurs/config"
	"github.com/ezrec/lemurs/emulator"
	lio "github.com/ezrec/lemurs/io"
	"github.com/ezrec/lemurs/internal/log"
)

// Result of running one program.
type Result struct {
	Program []byte
	Output  []byte // Exactly OutputLimit bytes, zero padded.
	Steps   int
	Err     error // Fault or budget that ended the run, if any.
}

// capture keeps at most limit bytes and then reports the record full.
type capture struct {
	data  []byte
	limit int
}

func (cp *capture) Write(data []byte) (n int, err error) {
	room := cp.limit - len(cp.data)
	if len(data) > room {
		cp.data = append(cp.data, data[:room]...)
		return room, lio.ErrRecordFull
	}

	cp.data = append(cp.data, data...)
	if len(cp.data) == cp.limit {
		err = lio.ErrRecordFull
	}

	return len(data), err
}

// Run executes a single program until its output is full or the run
// policy ends it. Only cancellation of ctx is returned as an error.
func Run(ctx context.Context, program []byte, cfg config.Config) (result Result, err error) {
	limit := cfg.Evolve.OutputLimit
	out := &capture{limit: limit, data: make([]byte, 0, limit)}

	emu := emulator.NewEmulator(cfg.Run)
	emu.Tape.Output = out
	emu.Rom.Data = program

	result.Program = program

	result.Err = emu.Reset()
	if result.Err == nil && limit > 0 {
		result.Steps, result.Err = emu.Run(ctx)
	}

	switch {
	case errors.Is(result.Err, lio.ErrRecordFull):
		result.Err = nil
	case errors.Is(result.Err, context.Canceled), errors.Is(result.Err, context.DeadlineExceeded):
		err = result.Err
		return
	}

	result.Output = make([]byte, limit)
	copy(result.Output, out.data)

	return
}

// Evaluate runs every program in its own emulator, at most
// cfg.Evolve.Workers at a time. A program fault only ends that program's
// run; the batch fails only if ctx is done.
func Evaluate(ctx context.Context, programs [][]byte, cfg config.Config) (results []Result, err error) {
	workers := cfg.Evolve.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results = make([]Result, len(programs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for n, program := range programs {
		g.Go(func() error {
			result, err := Run(ctx, program, cfg)
			if err != nil {
				return err
			}

			if result.Err != nil {
				log.Evolve.Debug().Int("index", n).Int("steps", result.Steps).Err(result.Err).Msg("program ended")
			}

			results[n] = result
			return nil
		})
	}

	err = g.Wait()
	if err != nil {
		results = nil
	}

	return
}

package evolve

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezrec/lemurs/config"
	"github.com/ezrec/lemurs/cpu"
	"github.com/ezrec/lemurs/emulator"
)

var (
	// loop: addmimm r0 r0 1; output r0; jmp loop
	counter = []byte{0xd0, 0x00, 0x01, 0x00, 0x60, 0x00, 0x00}
	// Selector 31 is unassigned.
	faulty = []byte{0x9f, 0x00}
	// jmp 0
	silent = []byte{0x60, 0x00, 0x00}
)

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Run.MaxSteps = 10_000
	cfg.Evolve.OutputLimit = 8
	cfg.Evolve.Workers = 2
	return cfg
}

func TestRun(t *testing.T) {
	assert := assert.New(t)

	result, err := Run(context.Background(), counter, testConfig())
	require.NoError(t, err)
	assert.NoError(result.Err)
	assert.Equal([]byte{1, 2, 3, 4, 5, 6, 7, 8}, result.Output)
}

func TestRun_Fault(t *testing.T) {
	assert := assert.New(t)

	result, err := Run(context.Background(), faulty, testConfig())
	require.NoError(t, err)
	assert.ErrorIs(result.Err, cpu.ErrInvalidOperation)
	assert.Equal(make([]byte, 8), result.Output)
}

func TestRun_Budget(t *testing.T) {
	assert := assert.New(t)

	result, err := Run(context.Background(), silent, testConfig())
	require.NoError(t, err)
	assert.ErrorIs(result.Err, emulator.ErrStepBudget)
	assert.Equal(10_000, result.Steps)
	assert.Equal(make([]byte, 8), result.Output)
}

func TestEvaluate(t *testing.T) {
	assert := assert.New(t)

	programs := [][]byte{counter, faulty, silent, counter}

	results, err := Evaluate(context.Background(), programs, testConfig())
	require.NoError(t, err)
	require.Len(t, results, len(programs))

	for n, result := range results {
		assert.Equal(programs[n], result.Program)
		assert.Len(result.Output, 8)
	}

	assert.NoError(results[0].Err)
	assert.Error(results[1].Err)
	assert.Error(results[2].Err)
	assert.Equal(results[0].Output, results[3].Output)
}

func TestEvaluate_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Evaluate(ctx, [][]byte{silent}, testConfig())
	assert.ErrorIs(t, err, context.Canceled)
}

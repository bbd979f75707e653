// Package evolve breeds and evaluates populations of lemurs programs.
package evolve

import (
	"math/rand/v2"
	"slices"
)

const (
	MIN_ERASE_LEN = 16 // Programs at or below this length never shrink.
)

// Random returns length bytes of noise, a starting point when there is
// no parent program.
func Random(rng *rand.Rand, length int) (program []byte) {
	program = make([]byte, length)
	for n := range program {
		program[n] = byte(rng.Uint32())
	}

	return
}

// Mutate applies one random edit to program and returns the result.
// Out of twenty draws: one inserts a byte, one erases a byte, eight
// replace a byte and ten flip a single bit. An empty program can only
// grow.
func Mutate(rng *rand.Rand, program []byte) []byte {
	kind := rng.IntN(20)
	if len(program) == 0 {
		kind = 0
	}

	switch {
	case kind == 0:
		at := rng.IntN(len(program) + 1)
		program = slices.Insert(program, at, byte(rng.Uint32()))
	case kind == 1:
		if len(program) <= MIN_ERASE_LEN {
			break
		}
		at := rng.IntN(len(program))
		program = slices.Delete(program, at, at+1)
	case kind < 10:
		program[rng.IntN(len(program))] = byte(rng.Uint32())
	default:
		program[rng.IntN(len(program))] ^= 1 << rng.IntN(8)
	}

	return program
}

// Breed returns size children. Each is a copy of a randomly chosen parent
// with mutations edits applied.
func Breed(rng *rand.Rand, parents [][]byte, size int, mutations int) (children [][]byte, err error) {
	if len(parents) == 0 {
		err = ErrNoParents
		return
	}

	children = make([][]byte, size)
	for n := range children {
		child := slices.Clone(parents[rng.IntN(len(parents))])
		for range mutations {
			child = Mutate(rng, child)
		}
		children[n] = child
	}

	return
}

package testutils

import "github.com/argus-labs/sparseworld/pkg/assert"

const maxGenDepth = 32

// Gen enumerates every sequence of bounded choices, one sequence per loop iteration:
//
//	for g := testutils.NewGen(); !g.Done(); {
//	    n := g.Intn(3)   // 0..3
//	    ok := g.Bool()
//	}
//
// Each call site draws the next digit of a mixed-radix counter. Done advances the counter by
// bumping the rightmost digit still below its bound and zeroing everything after it.
// See https://matklad.github.io/2021/11/07/generate-all-the-things.html.
type Gen struct {
	started bool
	digits  [maxGenDepth]struct{ value, bound uint32 }
	pos     int
	depth   int
}

func NewGen() *Gen {
	return &Gen{}
}

// Done reports whether every sequence has been produced.
func (g *Gen) Done() bool {
	if !g.started {
		g.started = true
		return false
	}
	// Digits past the last draw belong to an older, longer sequence.
	g.depth = g.pos
	for i := g.depth - 1; i >= 0; i-- {
		if g.digits[i].value < g.digits[i].bound {
			g.digits[i].value++
			g.depth = i + 1
			g.pos = 0
			return false
		}
	}
	return true
}

func (g *Gen) next(bound uint32) uint32 {
	assert.That(g.pos < maxGenDepth, "gen: more than %d choices in one sequence", maxGenDepth)
	if g.pos == g.depth {
		g.digits[g.pos].value = 0
		g.depth++
	}
	g.digits[g.pos].bound = bound
	g.pos++
	return g.digits[g.pos-1].value
}

// Intn returns a value in [0, bound].
func (g *Gen) Intn(bound int) int {
	return int(g.next(uint32(bound))) //nolint:gosec // bounds are small in tests
}

// Bool returns both false and true across sequences.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}

// Pick returns every element of slice across sequences.
func Pick[T any](g *Gen, slice []T) T {
	assert.That(len(slice) > 0, "gen: pick from empty slice")
	return slice[g.Intn(len(slice)-1)]
}

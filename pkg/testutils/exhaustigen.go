package testutils

import "github.com/argus-labs/component-container/pkg/assert"

// Gen enumerates every combination of the bounded choices made inside a `for !g.Done()` loop.
// Each loop iteration replays the previous choice sequence with the rightmost incrementable
// choice bumped and everything after it reset to zero.
//
// See: <https://matklad.github.io/2021/11/07/generate-all-the-things.html>
type Gen struct {
	started bool
	v       [32]struct{ value, bound uint32 }
	p       int
	pMax    int
}

func NewGen() *Gen {
	return &Gen{}
}

// Done returns true when all combinations have been exhausted.
func (g *Gen) Done() bool {
	if !g.started {
		g.started = true
		return false
	}
	i := g.pMax
	for i > 0 {
		i--
		if g.v[i].value < g.v[i].bound {
			g.v[i].value++
			g.pMax = i + 1
			g.p = 0
			return false
		}
	}
	return true
}

func (g *Gen) gen(bound uint32) uint32 {
	assert.That(g.p < len(g.v), "exhaustigen: exceeded maximum depth of 32")
	if g.p == g.pMax {
		g.v[g.p] = struct{ value, bound uint32 }{value: 0, bound: 0}
		g.pMax++
	}
	g.p++
	g.v[g.p-1].bound = bound
	return g.v[g.p-1].value
}

// Intn returns an int in range [0, bound] (inclusive).
func (g *Gen) Intn(bound int) int {
	return int(g.gen(uint32(bound))) //nolint:gosec // bound is expected to be small in tests
}

// Bool returns an exhaustive boolean value.
func (g *Gen) Bool() bool {
	return g.Intn(1) == 1
}

// Shuffle permutes the slice in place; across a full Done loop every permutation is produced.
func Shuffle[T any](g *Gen, slice []T) {
	for i := 0; i < len(slice)-1; i++ {
		j := i + g.Intn(len(slice)-1-i)
		slice[i], slice[j] = slice[j], slice[i]
	}
}

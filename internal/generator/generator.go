// Package generator provides the randomness used to order and draw questions.
package generator

import (
	"math/rand"
	"time"
)

// Generator wraps a random source for permutations and weighted draws.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Permutation returns a uniform Fisher-Yates permutation of 0..n-1.
func (g *Generator) Permutation(n int) []int {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		j := g.rnd.Intn(i + 1)
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// Shuffle returns a shuffled copy of items.
func Shuffle[T any](g *Generator, items []T) []T {
	perm := g.Permutation(len(items))
	out := make([]T, len(items))
	for i, p := range perm {
		out[i] = items[p]
	}
	return out
}

// WeightedIndex draws an index with probability proportional to its weight.
// r is drawn from [0, total) and weights are subtracted in order until the
// remainder drops to zero or below. It returns -1 for an empty slice and
// falls back to 0 when no candidate crosses the boundary.
func (g *Generator) WeightedIndex(weights []int) int {
	if len(weights) == 0 {
		return -1
	}
	total := 0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return 0
	}
	r := g.rnd.Float64() * float64(total)
	for i, w := range weights {
		r -= float64(w)
		if r <= 0 {
			return i
		}
	}
	return 0
}

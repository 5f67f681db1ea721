// Package game holds the randomness shared by the bot's game mechanics.
package game

import "math/rand/v2"

// Source yields uniformly distributed integers in [0, n).
// *rand.Rand from math/rand/v2 satisfies it, which lets tests use a seeded source.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// DefaultSource draws from the goroutine-safe global generator.
var DefaultSource Source = globalSource{}

// Between returns a uniform integer in the closed range [lo, hi].
// The bounds are swapped when lo > hi.
func Between(src Source, lo, hi int) int {
	if lo > hi {
		lo, hi = hi, lo
	}
	return lo + src.IntN(hi-lo+1)
}

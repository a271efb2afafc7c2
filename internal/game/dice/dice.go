// Package dice provides the randomness abstraction used by enemy timers and
// the simulation host.
package dice

// Source is the randomness provider for gameplay timers.
//
// Implementations need not be safe for concurrent use; each simulation owns its Source.
type Source interface {
	// Intn returns a non-negative random int in [0, n).
	//
	// Precondition: n > 0.
	Intn(n int) int
	// Float64 returns a random float in [0, 1).
	Float64() float64
}

// Range returns a uniformly distributed value in [lo, hi].
//
// Precondition: lo <= hi; src must be non-nil.
// Postcondition: lo <= result <= hi.
func Range(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + src.Float64()*(hi-lo)
}

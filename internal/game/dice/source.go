package dice

import (
	"crypto/rand"
	"encoding/binary"
	"math/big"
	mrand "math/rand/v2"
)

// cryptoSource implements Source using crypto/rand.
//
// Invariant: All values produced are uniformly distributed in their documented range.
type cryptoSource struct{}

// NewCryptoSource returns a Source backed by crypto/rand.
//
// Postcondition: Every value returned by Intn is in [0, n).
func NewCryptoSource() Source {
	return &cryptoSource{}
}

// Intn returns a cryptographically secure random int in [0, n).
//
// Precondition: n > 0. Panics with "dice: Intn called with n <= 0" if n <= 0.
// Panics with "dice: crypto/rand failure: <err>" if crypto/rand fails.
func (c *cryptoSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	val, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	return int(val.Int64())
}

// Float64 returns a cryptographically secure random float in [0, 1).
func (c *cryptoSource) Float64() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic("dice: crypto/rand failure: " + err.Error())
	}
	// 53 random bits scaled into [0, 1).
	return float64(binary.LittleEndian.Uint64(buf[:])>>11) / (1 << 53)
}

// seededSource is a deterministic PCG-backed Source.
type seededSource struct {
	rng *mrand.Rand
}

// NewSeededSource returns a deterministic Source; equal seeds yield equal sequences.
//
// Postcondition: Returns a non-nil Source.
func NewSeededSource(seed uint64) Source {
	return &seededSource{rng: mrand.New(mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Intn returns a pseudo-random int in [0, n).
//
// Precondition: n > 0.
func (s *seededSource) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return s.rng.IntN(n)
}

// Float64 returns a pseudo-random float in [0, 1).
func (s *seededSource) Float64() float64 {
	return s.rng.Float64()
}

// Fixed is a Source that always returns the same fraction; useful in tests.
//
// Invariant: 0 <= Fixed < 1.
type Fixed float64

// Intn returns floor(f * n).
func (f Fixed) Intn(n int) int {
	if n <= 0 {
		panic("dice: Intn called with n <= 0")
	}
	return int(float64(f) * float64(n))
}

// Float64 returns f.
func (f Fixed) Float64() float64 { return float64(f) }

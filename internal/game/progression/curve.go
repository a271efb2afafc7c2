// Package progression implements character experience, levels and stats:
// an unbounded experience curve, level-up cascades with class growth,
// manually allocated stat points and the multipliers derived from them.
package progression

import (
	"math"
	"math/big"
)

// Curve is the experience table. XPForLevel(L) is the sum over lvl in
// [1, L-1] of floor((lvl + 300·2^(lvl/7)) / 4).
//
// Totals are memoized as they are first computed and the table is extended
// from its highest cached level. Values pass the int64 range in the
// mid-300s, so totals are arbitrary precision.
//
// A Curve is not safe for concurrent use. Each Engine owns its own.
type Curve struct {
	// table[i] is the total experience required to reach level i+1.
	table []*big.Int
}

// NewCurve returns a curve holding only level 1.
func NewCurve() *Curve {
	return &Curve{table: []*big.Int{new(big.Int)}}
}

// Cached returns the number of levels whose totals are memoized.
func (c *Curve) Cached() int { return len(c.table) }

// XPForLevel returns the total experience required to reach level.
//
// Postcondition: Returns 0 for level <= 1; the result is a copy the caller may mutate.
func (c *Curve) XPForLevel(level int) *big.Int {
	return new(big.Int).Set(c.at(level))
}

// LevelFromXP returns the highest level whose requirement does not exceed xp.
//
// The upper bound is doubled until it overshoots xp and the level is then
// binary searched, so lookups stay logarithmic on an unbounded table.
//
// Postcondition: XPForLevel(n) <= xp < XPForLevel(n+1) for xp >= 0; returns 1
// for nil or negative xp.
func (c *Curve) LevelFromXP(xp *big.Int) int {
	if xp == nil || xp.Sign() <= 0 {
		return 1
	}
	bound := 2
	for c.at(bound).Cmp(xp) <= 0 {
		bound *= 2
	}
	lo, hi := 1, bound
	for hi-lo > 1 {
		mid := lo + (hi-lo)/2
		if c.at(mid).Cmp(xp) <= 0 {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// at returns the memoized total for level without copying.
func (c *Curve) at(level int) *big.Int {
	if level <= 1 {
		return c.table[0]
	}
	for len(c.table) < level {
		lvl := len(c.table)
		next := new(big.Int).Add(c.table[lvl-1], levelTerm(lvl))
		c.table = append(c.table, next)
	}
	return c.table[level-1]
}

// levelTerm returns floor((lvl + 300·2^(lvl/7)) / 4).
//
// 2^(lvl/7) is split into 2^(lvl div 7) · 2^((lvl mod 7)/7) so the large
// factor is an exact binary shift. The fractional factor carries 128 bits
// beyond the integer part of the term.
func levelTerm(lvl int) *big.Int {
	q, r := lvl/7, lvl%7
	prec := uint(q) + 128
	x := seventhRootOfTwo(r, prec)
	x.Mul(x, new(big.Float).SetInt64(300))
	x.SetMantExp(x, q)
	x.Add(x, new(big.Float).SetInt64(int64(lvl)))
	x.SetMantExp(x, -2)
	n, _ := x.Int(nil)
	return n
}

// seventhRootOfTwo returns 2^(r/7) to prec bits, refining the float64
// estimate by Newton iteration on y^7 = 2^r.
func seventhRootOfTwo(r int, prec uint) *big.Float {
	y := new(big.Float).SetPrec(prec).SetFloat64(math.Exp2(float64(r) / 7))
	if r == 0 {
		return y
	}
	a := new(big.Float).SetPrec(prec).SetInt64(1 << r)
	six := new(big.Float).SetPrec(prec).SetInt64(6)
	seven := new(big.Float).SetPrec(prec).SetInt64(7)
	y6 := new(big.Float).SetPrec(prec)
	// Each step doubles the correct bits; one extra absorbs rounding.
	for bits := uint(50); bits < 2*prec; bits *= 2 {
		y6.Mul(y, y)
		y6.Mul(y6, y)
		y6.Mul(y6, y6)
		y6.Quo(a, y6)
		y.Mul(y, six)
		y.Add(y, y6)
		y.Quo(y, seven)
	}
	return y
}

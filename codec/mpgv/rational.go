/*
NAME
  rational.go

DESCRIPTION
  rational.go provides a simplified rational number type used for frame
  rates and sample aspect ratios.

AUTHOR
  Dan Kortschak <dan@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

package mpgv

// Rational is a ratio of two integers, used for frame rates and sample
// aspect ratios.
type Rational struct {
	Num, Den int64
}

// Simplify returns r reduced to lowest terms. A zero denominator is left
// untouched.
func (r Rational) Simplify() Rational {
	if r.Den == 0 {
		return r
	}
	g := gcd(abs64(r.Num), abs64(r.Den))
	if g == 0 {
		return r
	}
	return Rational{Num: r.Num / g, Den: r.Den / g}
}

// Mul returns r * s, simplified.
func (r Rational) Mul(s Rational) Rational {
	return Rational{Num: r.Num * s.Num, Den: r.Den * s.Den}.Simplify()
}

func gcd(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

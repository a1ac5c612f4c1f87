package fixedpoint

import (
	"strings"

	"github.com/holiman/uint256"
)

// Decimal is an unsigned fixed-point number with 18 fractional decimal
// digits, stored as a 256-bit integer scaled by 1e18. It is an immutable
// value type: every operation returns a fresh Decimal and never aliases the
// receiver. There are no negative values; Sub panics on underflow and
// callers that expect underflow must use SaturatingSub.
type Decimal struct {
	v uint256.Int
}

var (
	scale   = uint256.NewInt(1_000_000_000_000_000_000)
	percent = uint256.NewInt(10_000_000_000_000_000)
	bps     = uint256.NewInt(100_000_000_000_000)
)

// Zero returns the zero value.
func Zero() Decimal { return Decimal{} }

// One returns the decimal 1.
func One() Decimal { return FromUint64(1) }

// FromUint64 converts a whole number of units.
func FromUint64(v uint64) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(v), scale)
	return d
}

// FromPercent converts a percentage, so FromPercent(50) is 0.5.
func FromPercent(v uint8) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(uint64(v)), percent)
	return d
}

// FromBps converts basis points, so FromBps(50) is 0.005.
func FromBps(v uint64) Decimal {
	var d Decimal
	d.v.Mul(uint256.NewInt(v), bps)
	return d
}

// FromScaled wraps a raw 1e18-scaled value.
func FromScaled(v *uint256.Int) Decimal {
	var d Decimal
	d.v.Set(v)
	return d
}

// Add returns d + o, panicking on 256-bit overflow.
func (d Decimal) Add(o Decimal) Decimal {
	var out Decimal
	if _, overflow := out.v.AddOverflow(&d.v, &o.v); overflow {
		panic("fixedpoint: addition overflow")
	}
	return out
}

// Sub returns d - o. Underflow is a programming error and panics; use
// SaturatingSub when the operand may legitimately exceed the receiver.
func (d Decimal) Sub(o Decimal) Decimal {
	var out Decimal
	if _, underflow := out.v.SubOverflow(&d.v, &o.v); underflow {
		panic("fixedpoint: subtraction underflow")
	}
	return out
}

// SaturatingSub returns d - o, clamped at zero.
func (d Decimal) SaturatingSub(o Decimal) Decimal {
	var out Decimal
	if _, underflow := out.v.SubOverflow(&d.v, &o.v); underflow {
		return Decimal{}
	}
	return out
}

// Mul returns d * o, truncating toward zero. The product is computed on a
// 512-bit intermediate before rescaling, so no precision is lost to
// pre-rescale overflow.
func (d Decimal) Mul(o Decimal) Decimal {
	var out Decimal
	if _, overflow := out.v.MulDivOverflow(&d.v, &o.v, scale); overflow {
		panic("fixedpoint: multiplication overflow")
	}
	return out
}

// Div returns d / o, truncating toward zero, and panics on division by
// zero. The quotient is computed on a 512-bit intermediate.
func (d Decimal) Div(o Decimal) Decimal {
	if o.v.IsZero() {
		panic("fixedpoint: division by zero")
	}
	var out Decimal
	if _, overflow := out.v.MulDivOverflow(&d.v, scale, &o.v); overflow {
		panic("fixedpoint: division overflow")
	}
	return out
}

// Pow returns d raised to exp by binary exponentiation.
func (d Decimal) Pow(exp uint64) Decimal {
	cur := d
	out := One()
	for exp > 0 {
		if exp%2 == 1 {
			out = out.Mul(cur)
		}
		exp /= 2
		if exp > 0 {
			cur = cur.Mul(cur)
		}
	}
	return out
}

// Floor truncates to whole units. Panics when the result does not fit a
// uint64.
func (d Decimal) Floor() uint64 {
	var q uint256.Int
	q.Div(&d.v, scale)
	if !q.IsUint64() {
		panic("fixedpoint: floor out of uint64 range")
	}
	return q.Uint64()
}

// Ceil rounds up to whole units. Panics when the result does not fit a
// uint64.
func (d Decimal) Ceil() uint64 {
	var sum uint256.Int
	rounding := new(uint256.Int).Sub(scale, uint256.NewInt(1))
	if _, overflow := sum.AddOverflow(&d.v, rounding); overflow {
		panic("fixedpoint: ceil overflow")
	}
	sum.Div(&sum, scale)
	if !sum.IsUint64() {
		panic("fixedpoint: ceil out of uint64 range")
	}
	return sum.Uint64()
}

// Cmp returns -1, 0 or 1 comparing d against o.
func (d Decimal) Cmp(o Decimal) int { return d.v.Cmp(&o.v) }

func (d Decimal) Eq(o Decimal) bool { return d.v.Eq(&o.v) }
func (d Decimal) Lt(o Decimal) bool { return d.v.Lt(&o.v) }
func (d Decimal) Le(o Decimal) bool { return !o.v.Lt(&d.v) }
func (d Decimal) Gt(o Decimal) bool { return o.v.Lt(&d.v) }
func (d Decimal) Ge(o Decimal) bool { return !d.v.Lt(&o.v) }

// IsZero reports whether d is exactly zero.
func (d Decimal) IsZero() bool { return d.v.IsZero() }

// Min returns the smaller of a and b.
func Min(a, b Decimal) Decimal {
	if a.Lt(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Decimal) Decimal {
	if a.Gt(b) {
		return a
	}
	return b
}

// Scaled returns a copy of the raw 1e18-scaled backing value.
func (d Decimal) Scaled() *uint256.Int {
	return new(uint256.Int).Set(&d.v)
}

// String renders the decimal with trailing fractional zeros trimmed.
func (d Decimal) String() string {
	var q, r uint256.Int
	q.DivMod(&d.v, scale, &r)
	if r.IsZero() {
		return q.Dec()
	}
	frac := r.Dec()
	for len(frac) < 18 {
		frac = "0" + frac
	}
	frac = strings.TrimRight(frac, "0")
	return q.Dec() + "." + frac
}

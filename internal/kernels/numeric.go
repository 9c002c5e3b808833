// Package kernels implements the per-dtype element-wise and reduction
// operations as generic functions parameterized by dtype with
// trait-style bounds (golang.org/x/exp/constraints): one function per
// operation covering all eleven concrete numeric dtypes.
//
// The scalar loops implement the observable contract a SIMD build must
// also satisfy — NaN-sticky float min/max/sum/prod, with sum/prod
// permitted to regroup lanes — so results stay identical to a
// vectorized implementation modulo that documented regrouping.
package kernels

import "golang.org/x/exp/constraints"

// Number is any concrete dtype the engine represents as a Go numeric
// type (bool and string are handled separately).
type Number interface {
	constraints.Integer | constraints.Float
}

func Add[T Number](out, a, b []T) {
	for i := range out {
		out[i] = a[i] + b[i]
	}
}

func Sub[T Number](out, a, b []T) {
	for i := range out {
		out[i] = a[i] - b[i]
	}
}

func Mul[T Number](out, a, b []T) {
	for i := range out {
		out[i] = a[i] * b[i]
	}
}

// DivFloat is ordinary IEEE 754 division: division by zero produces
// ±Inf/NaN, never a panic.
func DivFloat[T constraints.Float](out, a, b []T) {
	for i := range out {
		out[i] = a[i] / b[i]
	}
}

// DivInt yields zero for a zero divisor rather than raising; user
// expressions depend on that.
func DivInt[T constraints.Integer](out, a, b []T) {
	for i := range out {
		if b[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = a[i] / b[i]
	}
}

// ModInt mirrors DivInt's zero-divisor contract for %.
func ModInt[T constraints.Integer](out, a, b []T) {
	for i := range out {
		if b[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = a[i] % b[i]
	}
}

// AddScalar/MulScalar/PowScalar are the scalar-right-operand fast paths
// taken when the right child folded to a constant, saving the broadcast
// temporary an all-vector kernel would need.
func AddScalar[T Number](out, a []T, s T) {
	for i := range out {
		out[i] = a[i] + s
	}
}

func MulScalar[T Number](out, a []T, s T) {
	for i := range out {
		out[i] = a[i] * s
	}
}

func Neg[T Number](out, a []T) {
	for i := range out {
		out[i] = -a[i]
	}
}

func Pos[T Number](out, a []T) {
	copy(out, a)
}

func BitAnd[T constraints.Integer](out, a, b []T) {
	for i := range out {
		out[i] = a[i] & b[i]
	}
}

func BitOr[T constraints.Integer](out, a, b []T) {
	for i := range out {
		out[i] = a[i] | b[i]
	}
}

func BitXor[T constraints.Integer](out, a, b []T) {
	for i := range out {
		out[i] = a[i] ^ b[i]
	}
}

func BitNot[T constraints.Integer](out, a []T) {
	for i := range out {
		out[i] = ^a[i]
	}
}

func Shl[T constraints.Integer](out, a, b []T) {
	for i := range out {
		out[i] = a[i] << uint64(b[i])
	}
}

func Shr[T constraints.Integer](out, a, b []T) {
	for i := range out {
		out[i] = a[i] >> uint64(b[i])
	}
}

func Eq[T comparable](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] == b[i]
	}
}

func Ne[T comparable](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] != b[i]
	}
}

func Lt[T constraints.Ordered](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] < b[i]
	}
}

func Gt[T constraints.Ordered](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] > b[i]
	}
}

func Le[T constraints.Ordered](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] <= b[i]
	}
}

func Ge[T constraints.Ordered](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] >= b[i]
	}
}

func LogAnd(out, a, b []bool) {
	for i := range out {
		out[i] = a[i] && b[i]
	}
}

func LogOr(out, a, b []bool) {
	for i := range out {
		out[i] = a[i] || b[i]
	}
}

func LogNot(out, a []bool) {
	for i := range out {
		out[i] = !a[i]
	}
}

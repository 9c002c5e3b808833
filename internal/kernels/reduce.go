// reduce.go implements the seven reduction kernels. Each operates on a
// slice already converted to its reduction's accumulator dtype
// (ast.ReductionResultDtype decides that width; the evaluator converts
// before calling these). The only widening inside them is SumFloat and
// ProdFloat accumulating in float64. Float min/max/sum/prod are NaN-sticky: once a NaN is
// seen, the running result stays NaN, regardless of how a vectorized
// build might regroup lanes.
package kernels

import (
	"math"

	"golang.org/x/exp/constraints"
)

func SumInt[T constraints.Integer](a []T) T {
	var s T
	for _, v := range a {
		s += v
	}
	return s
}

// SumFloat accumulates in float64 regardless of T's width for
// precision, then narrows back to T.
func SumFloat[T constraints.Float](a []T) T {
	var s float64
	for _, v := range a {
		s += float64(v)
	}
	return T(s)
}

func SumComplex[T Complex](a []T) T {
	var s T
	for _, v := range a {
		s += v
	}
	return s
}

func ProdInt[T constraints.Integer](a []T) T {
	s := T(1)
	for _, v := range a {
		s *= v
	}
	return s
}

func ProdFloat[T constraints.Float](a []T) T {
	s := float64(1)
	for _, v := range a {
		s *= float64(v)
	}
	return T(s)
}

func ProdComplex[T Complex](a []T) T {
	s := T(1)
	for _, v := range a {
		s *= v
	}
	return s
}

// MeanNumber returns NaN for an empty input.
func MeanNumber[T Number](a []T) float64 {
	if len(a) == 0 {
		return math.NaN()
	}
	var s float64
	for _, v := range a {
		s += float64(v)
	}
	return s / float64(len(a))
}

func MeanComplex[T Complex](a []T) complex128 {
	if len(a) == 0 {
		return complex(math.NaN(), math.NaN())
	}
	var s complex128
	for _, v := range a {
		s += complex128(v)
	}
	return s / complex(float64(len(a)), 0)
}

// MinInt/MaxInt take the caller-supplied type bound to return for an
// empty slice (type-max for min, type-min for max); the concrete
// integer width's bound can't be recovered from T alone through
// generics, so the evaluator passes it in from the dtype it already
// knows it is instantiating against.
func MinInt[T constraints.Integer](a []T, emptyIdentity T) T {
	if len(a) == 0 {
		return emptyIdentity
	}
	m := a[0]
	for _, v := range a[1:] {
		if v < m {
			m = v
		}
	}
	return m
}

func MaxInt[T constraints.Integer](a []T, emptyIdentity T) T {
	if len(a) == 0 {
		return emptyIdentity
	}
	m := a[0]
	for _, v := range a[1:] {
		if v > m {
			m = v
		}
	}
	return m
}

// MinFloat/MaxFloat are NaN-sticky: any operand NaN poisons the result.
// An empty slice returns +Inf/-Inf.
func MinFloat[T constraints.Float](a []T) T {
	if len(a) == 0 {
		return T(math.Inf(1))
	}
	m := a[0]
	nan := math.IsNaN(float64(m))
	for _, v := range a[1:] {
		if math.IsNaN(float64(v)) {
			nan = true
			continue
		}
		if !nan && v < m {
			m = v
		}
	}
	if nan {
		return T(math.NaN())
	}
	return m
}

func MaxFloat[T constraints.Float](a []T) T {
	if len(a) == 0 {
		return T(math.Inf(-1))
	}
	m := a[0]
	nan := math.IsNaN(float64(m))
	for _, v := range a[1:] {
		if math.IsNaN(float64(v)) {
			nan = true
			continue
		}
		if !nan && v > m {
			m = v
		}
	}
	if nan {
		return T(math.NaN())
	}
	return m
}

func AnyNumber[T Number](a []T) bool {
	for _, v := range a {
		if v != 0 {
			return true
		}
	}
	return false
}

func AllNumber[T Number](a []T) bool {
	for _, v := range a {
		if v == 0 {
			return false
		}
	}
	return true
}

// Complex truthiness requires both components non-zero, matching the
// engine's documented any/all semantics.
func ComplexTruthy[T Complex](v T) bool {
	c := complex128(v)
	return real(c) != 0 && imag(c) != 0
}

func AnyComplex[T Complex](a []T) bool {
	for _, v := range a {
		if ComplexTruthy(v) {
			return true
		}
	}
	return false
}

func AllComplex[T Complex](a []T) bool {
	for _, v := range a {
		if !ComplexTruthy(v) {
			return false
		}
	}
	return true
}

func AnyBool(a []bool) bool {
	for _, v := range a {
		if v {
			return true
		}
	}
	return false
}

func AllBool(a []bool) bool {
	for _, v := range a {
		if !v {
			return false
		}
	}
	return true
}

package kernels

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Float1 applies a float64 math-library wrapper element-wise, the
// shared shape of every transcendental/rounding builtin.
func Float1[T constraints.Float](out, a []T, fn func(float64) float64) {
	for i := range out {
		out[i] = T(fn(float64(a[i])))
	}
}

func Float2[T constraints.Float](out, a, b []T, fn func(float64, float64) float64) {
	for i := range out {
		out[i] = T(fn(float64(a[i]), float64(b[i])))
	}
}

func Float3[T constraints.Float](out, a, b, c []T, fn func(float64, float64, float64) float64) {
	for i := range out {
		out[i] = T(fn(float64(a[i]), float64(b[i]), float64(c[i])))
	}
}

func Sinpi(x float64) float64 { return math.Sin(math.Pi * x) }
func Cospi(x float64) float64 { return math.Cos(math.Pi * x) }
func Exp10(x float64) float64 { return math.Pow(10, x) }
func Lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}
func LogAddExp(a, b float64) float64 {
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	if math.IsInf(hi, -1) {
		return hi
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}
func Factorial(n float64) float64 { return math.Gamma(n + 1) }
func NChooseR(n, r float64) float64 {
	return math.Round(math.Exp(Lgamma(n+1) - Lgamma(r+1) - Lgamma(n-r+1)))
}
func NPermuteR(n, r float64) float64 {
	return math.Round(math.Exp(Lgamma(n+1) - Lgamma(n-r+1)))
}

// Where fills out[i] with a[i] when cond[i] is truthy, b[i] otherwise.
func Where[T any](out []T, cond []bool, a, b []T) {
	for i := range out {
		if cond[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
}

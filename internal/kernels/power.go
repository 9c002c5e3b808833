package kernels

import "math"

// Pow computes a[i]**b[i] element-wise. Every concrete numeric dtype
// routes through float64 math.Pow and casts back; the slices carry the
// narrow dtype, the computation happens at the widest convenient
// precision.
func Pow[T Number](out, a, b []T) {
	for i := range out {
		out[i] = T(math.Pow(float64(a[i]), float64(b[i])))
	}
}

func PowScalar[T Number](out, a []T, s T) {
	e := float64(s)
	for i := range out {
		out[i] = T(math.Pow(float64(a[i]), e))
	}
}

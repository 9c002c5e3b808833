package kernels

import "math/cmplx"

// Complex is either concrete complex width the engine supports.
type Complex interface {
	~complex64 | ~complex128
}

func CAdd[T Complex](out, a, b []T) {
	for i := range out {
		out[i] = a[i] + b[i]
	}
}

func CSub[T Complex](out, a, b []T) {
	for i := range out {
		out[i] = a[i] - b[i]
	}
}

func CMul[T Complex](out, a, b []T) {
	for i := range out {
		out[i] = a[i] * b[i]
	}
}

func CDiv[T Complex](out, a, b []T) {
	for i := range out {
		out[i] = a[i] / b[i]
	}
}

func CNeg[T Complex](out, a []T) {
	for i := range out {
		out[i] = -a[i]
	}
}

func CPow[T Complex](out, a, b []T) {
	for i := range out {
		out[i] = T(cmplx.Pow(complex128(a[i]), complex128(b[i])))
	}
}

// C1 applies a complex128 math-library wrapper element-wise, the
// complex counterpart of Float1.
func C1[T Complex](out, a []T, fn func(complex128) complex128) {
	for i := range out {
		out[i] = T(fn(complex128(a[i])))
	}
}

func C2[T Complex](out, a, b []T, fn func(complex128, complex128) complex128) {
	for i := range out {
		out[i] = T(fn(complex128(a[i]), complex128(b[i])))
	}
}

func CEq[T Complex](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] == b[i]
	}
}

func CNe[T Complex](out []bool, a, b []T) {
	for i := range out {
		out[i] = a[i] != b[i]
	}
}

// Real, Imag, and Conj implement the complex selectors. Real/Imag narrow a complex128/complex64 input to its matching float
// width; Conj preserves the input's complex width.
func Real64(out []float64, a []complex128) {
	for i := range out {
		out[i] = real(a[i])
	}
}

func Imag64(out []float64, a []complex128) {
	for i := range out {
		out[i] = imag(a[i])
	}
}

func Conj128(out, a []complex128) {
	for i := range out {
		out[i] = cmplx.Conj(a[i])
	}
}

func Real32(out []float32, a []complex64) {
	for i := range out {
		out[i] = real(a[i])
	}
}

func Imag32(out []float32, a []complex64) {
	for i := range out {
		out[i] = imag(a[i])
	}
}

func Conj64(out, a []complex64) {
	for i := range out {
		out[i] = complex64(cmplx.Conj(complex128(a[i])))
	}
}

// Abs32/Abs64 reduce a complex input to the modulus in the matching
// float width.
func Abs32(out []float32, a []complex64) {
	for i := range out {
		out[i] = float32(cmplx.Abs(complex128(a[i])))
	}
}

func Abs64(out []float64, a []complex128) {
	for i := range out {
		out[i] = cmplx.Abs(a[i])
	}
}

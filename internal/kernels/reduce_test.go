package kernels

import (
	"math"
	"testing"
)

var nan32 = float32(math.NaN())

func TestFloatMinMaxNaNSticky(t *testing.T) {
	tests := []struct {
		name string
		in   []float32
		min  float32
		max  float32
	}{
		{"plain", []float32{3, 1, 2}, 1, 3},
		{"negative", []float32{-3, -1, -2}, -3, -1},
		{"nan first", []float32{nan32, 1, 2}, nan32, nan32},
		{"nan middle", []float32{1, nan32, 2}, nan32, nan32},
		{"nan last", []float32{1, 2, nan32}, nan32, nan32},
		{"all nan", []float32{nan32, nan32}, nan32, nan32},
		{"single", []float32{7}, 7, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin := MinFloat(tt.in)
			gotMax := MaxFloat(tt.in)
			if math.IsNaN(float64(tt.min)) {
				if !math.IsNaN(float64(gotMin)) || !math.IsNaN(float64(gotMax)) {
					t.Errorf("min/max = %v/%v, want NaN/NaN", gotMin, gotMax)
				}
				return
			}
			if gotMin != tt.min || gotMax != tt.max {
				t.Errorf("min/max = %v/%v, want %v/%v", gotMin, gotMax, tt.min, tt.max)
			}
		})
	}
}

func TestEmptyReductionIdentities(t *testing.T) {
	if got := SumFloat([]float64(nil)); got != 0 {
		t.Errorf("empty sum = %v, want 0", got)
	}
	if got := ProdFloat([]float64(nil)); got != 1 {
		t.Errorf("empty prod = %v, want 1", got)
	}
	if got := MeanNumber([]float64(nil)); !math.IsNaN(got) {
		t.Errorf("empty mean = %v, want NaN", got)
	}
	if got := MinFloat([]float64(nil)); !math.IsInf(got, 1) {
		t.Errorf("empty float min = %v, want +Inf", got)
	}
	if got := MaxFloat([]float64(nil)); !math.IsInf(got, -1) {
		t.Errorf("empty float max = %v, want -Inf", got)
	}
	if got := MinInt([]int16(nil), math.MaxInt16); got != math.MaxInt16 {
		t.Errorf("empty int min = %v, want type max", got)
	}
	if got := MaxInt([]int16(nil), math.MinInt16); got != math.MinInt16 {
		t.Errorf("empty int max = %v, want type min", got)
	}
	if AnyNumber([]int32(nil)) {
		t.Error("empty any = true, want false")
	}
	if !AllNumber([]int32(nil)) {
		t.Error("empty all = false, want true")
	}
}

func TestSumNaNPropagates(t *testing.T) {
	got := SumFloat([]float32{1, nan32, 3})
	if !math.IsNaN(float64(got)) {
		t.Errorf("sum with NaN input = %v, want NaN", got)
	}
	got = ProdFloat([]float32{1, nan32, 3})
	if !math.IsNaN(float64(got)) {
		t.Errorf("prod with NaN input = %v, want NaN", got)
	}
}

func TestF32SumAccumulatesInF64(t *testing.T) {
	// 16M ones followed by small values would stall a naive f32
	// accumulator at 2^24; the f64 accumulator keeps counting
	in := make([]float32, 1<<24+10)
	for i := range in {
		in[i] = 1
	}
	got := SumFloat(in)
	want := float32(1<<24 + 10)
	if got != want {
		t.Errorf("sum = %v, want %v", got, want)
	}
}

func TestIntegerDivModByZero(t *testing.T) {
	out := make([]int32, 4)
	DivInt(out, []int32{10, 7, -9, 5}, []int32{2, 0, 3, 0})
	want := []int32{5, 0, -3, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("div[%d] = %d, want %d", i, out[i], want[i])
		}
	}
	ModInt(out, []int32{10, 7, -9, 5}, []int32{3, 0, 4, 0})
	want = []int32{1, 0, -1, 0}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("mod[%d] = %d, want %d", i, out[i], want[i])
		}
	}
}

func TestComplexTruthiness(t *testing.T) {
	// truthy needs both components non-zero
	if ComplexTruthy(complex(1, 0)) {
		t.Error("1+0i is truthy, want falsy")
	}
	if ComplexTruthy(complex(0, 1)) {
		t.Error("0+1i is truthy, want falsy")
	}
	if !ComplexTruthy(complex(1, 1)) {
		t.Error("1+1i is falsy, want truthy")
	}
	if !AnyComplex([]complex128{0, complex(2, 3)}) {
		t.Error("any = false, want true")
	}
	if AllComplex([]complex128{complex(1, 1), complex(1, 0)}) {
		t.Error("all = true, want false")
	}
}

func TestStringKernels(t *testing.T) {
	s := []rune("foobar")
	if !HasPrefix(s, []rune("foo")) || HasPrefix(s, []rune("bar")) {
		t.Error("HasPrefix misbehaves")
	}
	if !HasSuffix(s, []rune("bar")) || HasSuffix(s, []rune("foo")) {
		t.Error("HasSuffix misbehaves")
	}
	if !Contains(s, []rune("oba")) || Contains(s, []rune("xyz")) {
		t.Error("Contains misbehaves")
	}
	// empty needles match trivially
	if !HasPrefix(s, nil) || !HasSuffix(s, nil) || !Contains(s, nil) {
		t.Error("empty needle must match")
	}
}

func TestStringAt(t *testing.T) {
	// two 8-byte slots (2 code points each): "ab", "c" + null padding
	buf := []byte{
		'a', 0, 0, 0, 'b', 0, 0, 0,
		'c', 0, 0, 0, 0, 0, 0, 0,
	}
	if got := StringAt(buf, 8, 0); string(got) != "ab" {
		t.Errorf("slot 0 = %q, want %q", string(got), "ab")
	}
	if got := StringAt(buf, 8, 1); string(got) != "c" {
		t.Errorf("slot 1 = %q, want %q", string(got), "c")
	}
}

package dtype

import "testing"

func TestCommonPromotion(t *testing.T) {
	tests := []struct {
		name string
		a, b Dtype
		want Dtype
	}{
		{"same type", F32, F32, F32},
		{"bool below unsigned", Bool, U8, U8},
		{"bool below signed", Bool, I64, I64},
		{"unsigned ladder", U8, U32, U32},
		{"signed ladder", I16, I64, I64},
		{"cross signedness same width", I32, U32, I64},
		{"cross signedness narrow unsigned", I32, U8, I32},
		{"cross signedness wide unsigned", I8, U32, I64},
		{"u64 meets signed", I8, U64, I64},
		{"integer below float", I64, F32, F32},
		{"float widths", F32, F64, F64},
		{"float below complex", F64, C64, C64},
		{"f32 meets c64", F32, C64, C64},
		{"complex widths", C64, C128, C128},
		{"bool below float", Bool, F64, F64},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Common(tt.a, tt.b); got != tt.want {
				t.Errorf("Common(%s, %s) = %s, want %s", tt.a, tt.b, got, tt.want)
			}
			// the lattice join is symmetric
			if got := Common(tt.b, tt.a); got != tt.want {
				t.Errorf("Common(%s, %s) = %s, want %s", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestItemSize(t *testing.T) {
	tests := []struct {
		d    Dtype
		want int
	}{
		{Bool, 1}, {I8, 1}, {U8, 1},
		{I16, 2}, {U16, 2},
		{I32, 4}, {U32, 4}, {F32, 4},
		{I64, 8}, {U64, 8}, {F64, 8}, {C64, 8},
		{C128, 16},
		{Str, 0},
	}
	for _, tt := range tests {
		if got := tt.d.ItemSize(); got != tt.want {
			t.Errorf("%s.ItemSize() = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestRealDtype(t *testing.T) {
	if got := C64.RealDtype(); got != F32 {
		t.Errorf("C64.RealDtype() = %s, want F32", got)
	}
	if got := C128.RealDtype(); got != F64 {
		t.Errorf("C128.RealDtype() = %s, want F64", got)
	}
	if got := I32.RealDtype(); got != I32 {
		t.Errorf("I32.RealDtype() = %s, want I32", got)
	}
}

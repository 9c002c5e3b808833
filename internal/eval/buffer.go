// Package eval implements the dispatch evaluator and the reduction
// evaluator: the single algorithm, parameterized over the result dtype,
// that walks a compiled tree, manages intermediate buffers, promotes
// operand variables, and calls the kernels package.
//
// Thread safety follows the immutable-plan/per-call-workspace split:
// the compiled tree is never mutated during evaluation; everything a
// call touches (variable bindings, transient buffers, the allocation
// accountant) lives in a Workspace owned by that call alone.
package eval

import (
	"unsafe"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"vexpr/dtype"
	verr "vexpr/internal/errors"
	"vexpr/internal/kernels"
)

// ClosureFunc is one caller-registered callback. The evaluator hands it
// every argument converted to float64 and expects out filled with one
// result per element.
type ClosureFunc func(ctx interface{}, out []float64, args [][]float64) error

// Binding is one variable block for the current call: the raw bytes the
// caller handed in, plus the dtype and per-element width recorded at
// compile time.
type Binding struct {
	Name     string
	Dtype    dtype.Dtype
	ItemSize int // bytes per element; Dtype.ItemSize() except for Str
	Data     []byte
}

// Workspace carries all per-call mutable state. A fresh one is built
// for every Evaluate call, so concurrent calls on one compiled tree
// never share transient buffers.
type Workspace struct {
	bindings map[string]Binding
	closures []ClosureFunc

	memLimit  int64 // 0 means unlimited
	allocated int64
}

func NewWorkspace(bindings []Binding, closures []ClosureFunc, memLimit int64) *Workspace {
	m := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		m[b.Name] = b
	}
	return &Workspace{bindings: m, closures: closures, memLimit: memLimit}
}

// offset returns a shallow copy of ws with every binding's data pointer
// advanced by off elements, for sub-block evaluation.
func (ws *Workspace) offset(off int) *Workspace {
	cp := *ws
	cp.bindings = make(map[string]Binding, len(ws.bindings))
	for name, b := range ws.bindings {
		b.Data = b.Data[off*b.ItemSize:]
		cp.bindings[name] = b
	}
	return &cp
}

// vector is one typed intermediate buffer. data holds the concrete
// slice ([]int8, []float32, []bool, ...); Str vectors instead keep the
// raw caller bytes plus the slot width.
type vector struct {
	dt       dtype.Dtype
	data     interface{}
	raw      []byte // Str only
	itemSize int    // Str only
}

func (v vector) bools() []bool       { return v.data.([]bool) }
func (v vector) i8() []int8          { return v.data.([]int8) }
func (v vector) i16() []int16        { return v.data.([]int16) }
func (v vector) i32() []int32        { return v.data.([]int32) }
func (v vector) i64() []int64        { return v.data.([]int64) }
func (v vector) u8() []uint8         { return v.data.([]uint8) }
func (v vector) u16() []uint16       { return v.data.([]uint16) }
func (v vector) u32() []uint32       { return v.data.([]uint32) }
func (v vector) u64() []uint64       { return v.data.([]uint64) }
func (v vector) f32() []float32      { return v.data.([]float32) }
func (v vector) f64() []float64      { return v.data.([]float64) }
func (v vector) c64() []complex64    { return v.data.([]complex64) }
func (v vector) c128() []complex128  { return v.data.([]complex128) }

// charge accounts bytes against the workspace memory limit before an
// allocation happens.
func (ws *Workspace) charge(bytes int64) error {
	ws.allocated += bytes
	if ws.memLimit > 0 && ws.allocated > ws.memLimit {
		return errors.Wrapf(verr.ErrOom,
			"allocating %s temporary exceeds the %s evaluation memory limit",
			humanize.IBytes(uint64(bytes)), humanize.IBytes(uint64(ws.memLimit)))
	}
	return nil
}

// alloc builds a fresh zeroed vector of n elements of d.
func (ws *Workspace) alloc(d dtype.Dtype, n int) (vector, error) {
	if err := ws.charge(int64(n) * int64(d.ItemSize())); err != nil {
		return vector{}, err
	}
	v := vector{dt: d}
	switch d {
	case dtype.Bool:
		v.data = make([]bool, n)
	case dtype.I8:
		v.data = make([]int8, n)
	case dtype.I16:
		v.data = make([]int16, n)
	case dtype.I32:
		v.data = make([]int32, n)
	case dtype.I64:
		v.data = make([]int64, n)
	case dtype.U8:
		v.data = make([]uint8, n)
	case dtype.U16:
		v.data = make([]uint16, n)
	case dtype.U32:
		v.data = make([]uint32, n)
	case dtype.U64:
		v.data = make([]uint64, n)
	case dtype.F32:
		v.data = make([]float32, n)
	case dtype.F64:
		v.data = make([]float64, n)
	case dtype.C64:
		v.data = make([]complex64, n)
	case dtype.C128:
		v.data = make([]complex128, n)
	default:
		panic("eval: alloc of non-numeric dtype " + d.String())
	}
	return v, nil
}

// viewAs reinterprets a caller byte buffer as a typed slice without
// copying. The caller contract requires natural alignment for the
// element type.
func viewAs[T any](b []byte, n int) []T {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*T)(unsafe.Pointer(&b[0])), n)
}

// bindingVector wraps one bound variable block as a vector of its
// native dtype. Numeric dtypes are zero-copy views; Bool is decoded
// through a defensive byte!=0 loop so arbitrary caller bytes cannot
// produce an invalid Go bool.
func (ws *Workspace) bindingVector(b Binding, n int) (vector, error) {
	switch b.Dtype {
	case dtype.Bool:
		v, err := ws.alloc(dtype.Bool, n)
		if err != nil {
			return vector{}, err
		}
		out := v.bools()
		for i := 0; i < n; i++ {
			out[i] = b.Data[i] != 0
		}
		return v, nil
	case dtype.I8:
		return vector{dt: b.Dtype, data: viewAs[int8](b.Data, n)}, nil
	case dtype.I16:
		return vector{dt: b.Dtype, data: viewAs[int16](b.Data, n)}, nil
	case dtype.I32:
		return vector{dt: b.Dtype, data: viewAs[int32](b.Data, n)}, nil
	case dtype.I64:
		return vector{dt: b.Dtype, data: viewAs[int64](b.Data, n)}, nil
	case dtype.U8:
		return vector{dt: b.Dtype, data: viewAs[uint8](b.Data, n)}, nil
	case dtype.U16:
		return vector{dt: b.Dtype, data: viewAs[uint16](b.Data, n)}, nil
	case dtype.U32:
		return vector{dt: b.Dtype, data: viewAs[uint32](b.Data, n)}, nil
	case dtype.U64:
		return vector{dt: b.Dtype, data: viewAs[uint64](b.Data, n)}, nil
	case dtype.F32:
		return vector{dt: b.Dtype, data: viewAs[float32](b.Data, n)}, nil
	case dtype.F64:
		return vector{dt: b.Dtype, data: viewAs[float64](b.Data, n)}, nil
	case dtype.C64:
		return vector{dt: b.Dtype, data: viewAs[complex64](b.Data, n)}, nil
	case dtype.C128:
		return vector{dt: b.Dtype, data: viewAs[complex128](b.Data, n)}, nil
	case dtype.Str:
		return vector{dt: dtype.Str, raw: b.Data, itemSize: b.ItemSize}, nil
	default:
		panic("eval: binding with dtype " + b.Dtype.String())
	}
}

// outputVector wraps the caller's output block as a writable typed view.
func outputVector(out []byte, d dtype.Dtype, n int) vector {
	switch d {
	case dtype.Bool:
		return vector{dt: d, data: viewAs[bool](out, n)}
	case dtype.I8:
		return vector{dt: d, data: viewAs[int8](out, n)}
	case dtype.I16:
		return vector{dt: d, data: viewAs[int16](out, n)}
	case dtype.I32:
		return vector{dt: d, data: viewAs[int32](out, n)}
	case dtype.I64:
		return vector{dt: d, data: viewAs[int64](out, n)}
	case dtype.U8:
		return vector{dt: d, data: viewAs[uint8](out, n)}
	case dtype.U16:
		return vector{dt: d, data: viewAs[uint16](out, n)}
	case dtype.U32:
		return vector{dt: d, data: viewAs[uint32](out, n)}
	case dtype.U64:
		return vector{dt: d, data: viewAs[uint64](out, n)}
	case dtype.F32:
		return vector{dt: d, data: viewAs[float32](out, n)}
	case dtype.F64:
		return vector{dt: d, data: viewAs[float64](out, n)}
	case dtype.C64:
		return vector{dt: d, data: viewAs[complex64](out, n)}
	case dtype.C128:
		return vector{dt: d, data: viewAs[complex128](out, n)}
	default:
		panic("eval: output view of dtype " + d.String())
	}
}

// copyInto copies src into dst; both must share a dtype.
func copyInto(dst, src vector) {
	switch dst.dt {
	case dtype.Bool:
		copy(dst.bools(), src.bools())
	case dtype.I8:
		copy(dst.i8(), src.i8())
	case dtype.I16:
		copy(dst.i16(), src.i16())
	case dtype.I32:
		copy(dst.i32(), src.i32())
	case dtype.I64:
		copy(dst.i64(), src.i64())
	case dtype.U8:
		copy(dst.u8(), src.u8())
	case dtype.U16:
		copy(dst.u16(), src.u16())
	case dtype.U32:
		copy(dst.u32(), src.u32())
	case dtype.U64:
		copy(dst.u64(), src.u64())
	case dtype.F32:
		copy(dst.f32(), src.f32())
	case dtype.F64:
		copy(dst.f64(), src.f64())
	case dtype.C64:
		copy(dst.c64(), src.c64())
	case dtype.C128:
		copy(dst.c128(), src.c128())
	}
}

// fillScalar broadcasts a float64-carried scalar into every slot of v,
// narrowing to v's dtype. Used for Constant nodes and for broadcasting
// a reduction's scalar result.
func fillScalar(v vector, val float64) {
	switch v.dt {
	case dtype.Bool:
		fillBool(v.bools(), val != 0)
	case dtype.I8:
		fillNum(v.i8(), int8(val))
	case dtype.I16:
		fillNum(v.i16(), int16(val))
	case dtype.I32:
		fillNum(v.i32(), int32(val))
	case dtype.I64:
		fillNum(v.i64(), int64(val))
	case dtype.U8:
		fillNum(v.u8(), uint8(val))
	case dtype.U16:
		fillNum(v.u16(), uint16(val))
	case dtype.U32:
		fillNum(v.u32(), uint32(val))
	case dtype.U64:
		fillNum(v.u64(), uint64(val))
	case dtype.F32:
		fillNum(v.f32(), float32(val))
	case dtype.F64:
		fillNum(v.f64(), val)
	case dtype.C64:
		fillNum(v.c64(), complex64(complex(val, 0)))
	case dtype.C128:
		fillNum(v.c128(), complex(val, 0))
	}
}

// fillComplexScalar broadcasts a complex scalar; v must be C64 or C128.
func fillComplexScalar(v vector, val complex128) {
	switch v.dt {
	case dtype.C64:
		fillNum(v.c64(), complex64(val))
	case dtype.C128:
		fillNum(v.c128(), val)
	default:
		fillScalar(v, real(val))
	}
}

func fillNum[T any](out []T, val T) {
	for i := range out {
		out[i] = val
	}
}

func fillBool(out []bool, val bool) {
	for i := range out {
		out[i] = val
	}
}

// convertVector converts src to target, allocating a fresh vector. The
// full pairwise conversion table lives here: one generic assembler per
// target family, each switching on the source dtype.
func (ws *Workspace) convertVector(src vector, target dtype.Dtype, n int) (vector, error) {
	if src.dt == target {
		return src, nil
	}
	dst, err := ws.alloc(target, n)
	if err != nil {
		return vector{}, err
	}
	switch target {
	case dtype.Bool:
		convertToBool(dst.bools(), src)
	case dtype.I8:
		convertToNumber(dst.i8(), src)
	case dtype.I16:
		convertToNumber(dst.i16(), src)
	case dtype.I32:
		convertToNumber(dst.i32(), src)
	case dtype.I64:
		convertToNumber(dst.i64(), src)
	case dtype.U8:
		convertToNumber(dst.u8(), src)
	case dtype.U16:
		convertToNumber(dst.u16(), src)
	case dtype.U32:
		convertToNumber(dst.u32(), src)
	case dtype.U64:
		convertToNumber(dst.u64(), src)
	case dtype.F32:
		convertToNumber(dst.f32(), src)
	case dtype.F64:
		convertToNumber(dst.f64(), src)
	case dtype.C64:
		convertToComplex(dst.c64(), src)
	case dtype.C128:
		convertToComplex(dst.c128(), src)
	default:
		panic("eval: conversion to dtype " + target.String())
	}
	return dst, nil
}

func convertToNumber[D kernels.Number](out []D, src vector) {
	switch src.dt {
	case dtype.Bool:
		kernels.BoolToNumber(out, src.bools())
	case dtype.I8:
		kernels.ConvertNumber(out, src.i8())
	case dtype.I16:
		kernels.ConvertNumber(out, src.i16())
	case dtype.I32:
		kernels.ConvertNumber(out, src.i32())
	case dtype.I64:
		kernels.ConvertNumber(out, src.i64())
	case dtype.U8:
		kernels.ConvertNumber(out, src.u8())
	case dtype.U16:
		kernels.ConvertNumber(out, src.u16())
	case dtype.U32:
		kernels.ConvertNumber(out, src.u32())
	case dtype.U64:
		kernels.ConvertNumber(out, src.u64())
	case dtype.F32:
		kernels.ConvertNumber(out, src.f32())
	case dtype.F64:
		kernels.ConvertNumber(out, src.f64())
	case dtype.C64:
		// complex narrows through its real component
		in := src.c64()
		for i := range out {
			out[i] = D(real(in[i]))
		}
	case dtype.C128:
		in := src.c128()
		for i := range out {
			out[i] = D(real(in[i]))
		}
	default:
		panic("eval: conversion from dtype " + src.dt.String())
	}
}

func convertToComplex[D kernels.Complex](out []D, src vector) {
	switch src.dt {
	case dtype.Bool:
		kernels.BoolToComplex(out, src.bools())
	case dtype.I8:
		kernels.NumberToComplex(out, src.i8())
	case dtype.I16:
		kernels.NumberToComplex(out, src.i16())
	case dtype.I32:
		kernels.NumberToComplex(out, src.i32())
	case dtype.I64:
		kernels.NumberToComplex(out, src.i64())
	case dtype.U8:
		kernels.NumberToComplex(out, src.u8())
	case dtype.U16:
		kernels.NumberToComplex(out, src.u16())
	case dtype.U32:
		kernels.NumberToComplex(out, src.u32())
	case dtype.U64:
		kernels.NumberToComplex(out, src.u64())
	case dtype.F32:
		kernels.NumberToComplex(out, src.f32())
	case dtype.F64:
		kernels.NumberToComplex(out, src.f64())
	case dtype.C64:
		kernels.ComplexToComplex(out, src.c64())
	case dtype.C128:
		kernels.ComplexToComplex(out, src.c128())
	default:
		panic("eval: conversion from dtype " + src.dt.String())
	}
}

func convertToBool(out []bool, src vector) {
	switch src.dt {
	case dtype.Bool:
		copy(out, src.bools())
	case dtype.I8:
		kernels.NumberToBool(out, src.i8())
	case dtype.I16:
		kernels.NumberToBool(out, src.i16())
	case dtype.I32:
		kernels.NumberToBool(out, src.i32())
	case dtype.I64:
		kernels.NumberToBool(out, src.i64())
	case dtype.U8:
		kernels.NumberToBool(out, src.u8())
	case dtype.U16:
		kernels.NumberToBool(out, src.u16())
	case dtype.U32:
		kernels.NumberToBool(out, src.u32())
	case dtype.U64:
		kernels.NumberToBool(out, src.u64())
	case dtype.F32:
		kernels.NumberToBool(out, src.f32())
	case dtype.F64:
		kernels.NumberToBool(out, src.f64())
	case dtype.C64:
		in := src.c64()
		for i := range out {
			out[i] = kernels.ComplexTruthy(in[i])
		}
	case dtype.C128:
		in := src.c128()
		for i := range out {
			out[i] = kernels.ComplexTruthy(in[i])
		}
	default:
		panic("eval: conversion from dtype " + src.dt.String())
	}
}

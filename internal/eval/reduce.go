package eval

import (
	"math"

	"vexpr/dtype"
	"vexpr/internal/ast"
	"vexpr/internal/kernels"
)

// evalReduction computes the scalar result of a reduction node and
// broadcasts it into every slot of a count-element output vector.
// sum/prod accumulate in the reduction's widened dtype (the node's own
// dtype, computed at parse time); mean accumulates in F64/C128; min/max
// preserve the child's dtype; any/all test truthiness with
// short-circuiting.
func (ws *Workspace) evalReduction(n *ast.Node, count int) (vector, error) {
	child := n.Children[0]
	out, err := ws.alloc(n.Dtype, count)
	if err != nil {
		return vector{}, err
	}

	switch n.Op {
	case ast.OpSum, ast.OpProd:
		cv, err := ws.evalNodeAs(child, n.Dtype, count)
		if err != nil {
			return vector{}, err
		}
		sum := n.Op == ast.OpSum
		switch n.Dtype {
		case dtype.I64:
			if sum {
				fillNum(out.i64(), kernels.SumInt(cv.i64()))
			} else {
				fillNum(out.i64(), kernels.ProdInt(cv.i64()))
			}
		case dtype.U64:
			if sum {
				fillNum(out.u64(), kernels.SumInt(cv.u64()))
			} else {
				fillNum(out.u64(), kernels.ProdInt(cv.u64()))
			}
		case dtype.F32:
			if sum {
				fillNum(out.f32(), kernels.SumFloat(cv.f32()))
			} else {
				fillNum(out.f32(), kernels.ProdFloat(cv.f32()))
			}
		case dtype.F64:
			if sum {
				fillNum(out.f64(), kernels.SumFloat(cv.f64()))
			} else {
				fillNum(out.f64(), kernels.ProdFloat(cv.f64()))
			}
		case dtype.C64:
			if sum {
				fillNum(out.c64(), kernels.SumComplex(cv.c64()))
			} else {
				fillNum(out.c64(), kernels.ProdComplex(cv.c64()))
			}
		case dtype.C128:
			if sum {
				fillNum(out.c128(), kernels.SumComplex(cv.c128()))
			} else {
				fillNum(out.c128(), kernels.ProdComplex(cv.c128()))
			}
		default:
			panic("eval: sum/prod accumulator dtype " + n.Dtype.String())
		}

	case ast.OpMean:
		if n.Dtype == dtype.C128 {
			cv, err := ws.evalNodeAs(child, dtype.C128, count)
			if err != nil {
				return vector{}, err
			}
			fillNum(out.c128(), kernels.MeanComplex(cv.c128()))
		} else {
			cv, err := ws.evalNodeAs(child, dtype.F64, count)
			if err != nil {
				return vector{}, err
			}
			fillNum(out.f64(), kernels.MeanNumber(cv.f64()))
		}

	case ast.OpMin, ast.OpMax:
		return ws.evalMinMax(n, out, count)

	case ast.OpAny, ast.OpAll:
		cv, err := ws.evalNode(child, count)
		if err != nil {
			return vector{}, err
		}
		fillBool(out.bools(), anyAllScalar(n.Op, cv))

	default:
		panic("eval: reduction dispatch on non-reduction op")
	}
	return out, nil
}

func (ws *Workspace) evalMinMax(n *ast.Node, out vector, count int) (vector, error) {
	cv, err := ws.evalNode(n.Children[0], count)
	if err != nil {
		return vector{}, err
	}
	isMin := n.Op == ast.OpMin
	switch n.Dtype {
	case dtype.Bool:
		// min over Bool is all, max is any, with the documented empty
		// identities (type-max true / type-min false).
		b := cv.bools()
		if isMin {
			fillBool(out.bools(), kernels.AllBool(b))
		} else {
			fillBool(out.bools(), kernels.AnyBool(b))
		}
	case dtype.I8:
		if isMin {
			fillNum(out.i8(), kernels.MinInt(cv.i8(), math.MaxInt8))
		} else {
			fillNum(out.i8(), kernels.MaxInt(cv.i8(), math.MinInt8))
		}
	case dtype.I16:
		if isMin {
			fillNum(out.i16(), kernels.MinInt(cv.i16(), math.MaxInt16))
		} else {
			fillNum(out.i16(), kernels.MaxInt(cv.i16(), math.MinInt16))
		}
	case dtype.I32:
		if isMin {
			fillNum(out.i32(), kernels.MinInt(cv.i32(), math.MaxInt32))
		} else {
			fillNum(out.i32(), kernels.MaxInt(cv.i32(), math.MinInt32))
		}
	case dtype.I64:
		if isMin {
			fillNum(out.i64(), kernels.MinInt(cv.i64(), math.MaxInt64))
		} else {
			fillNum(out.i64(), kernels.MaxInt(cv.i64(), math.MinInt64))
		}
	case dtype.U8:
		if isMin {
			fillNum(out.u8(), kernels.MinInt(cv.u8(), uint8(math.MaxUint8)))
		} else {
			fillNum(out.u8(), kernels.MaxInt(cv.u8(), 0))
		}
	case dtype.U16:
		if isMin {
			fillNum(out.u16(), kernels.MinInt(cv.u16(), uint16(math.MaxUint16)))
		} else {
			fillNum(out.u16(), kernels.MaxInt(cv.u16(), 0))
		}
	case dtype.U32:
		if isMin {
			fillNum(out.u32(), kernels.MinInt(cv.u32(), uint32(math.MaxUint32)))
		} else {
			fillNum(out.u32(), kernels.MaxInt(cv.u32(), 0))
		}
	case dtype.U64:
		if isMin {
			fillNum(out.u64(), kernels.MinInt(cv.u64(), uint64(math.MaxUint64)))
		} else {
			fillNum(out.u64(), kernels.MaxInt(cv.u64(), 0))
		}
	case dtype.F32:
		if isMin {
			fillNum(out.f32(), kernels.MinFloat(cv.f32()))
		} else {
			fillNum(out.f32(), kernels.MaxFloat(cv.f32()))
		}
	case dtype.F64:
		if isMin {
			fillNum(out.f64(), kernels.MinFloat(cv.f64()))
		} else {
			fillNum(out.f64(), kernels.MaxFloat(cv.f64()))
		}
	default:
		panic("eval: min/max at dtype " + n.Dtype.String())
	}
	return out, nil
}

func anyAllScalar(op ast.OpKind, cv vector) bool {
	any := op == ast.OpAny
	switch cv.dt {
	case dtype.Bool:
		if any {
			return kernels.AnyBool(cv.bools())
		}
		return kernels.AllBool(cv.bools())
	case dtype.I8:
		if any {
			return kernels.AnyNumber(cv.i8())
		}
		return kernels.AllNumber(cv.i8())
	case dtype.I16:
		if any {
			return kernels.AnyNumber(cv.i16())
		}
		return kernels.AllNumber(cv.i16())
	case dtype.I32:
		if any {
			return kernels.AnyNumber(cv.i32())
		}
		return kernels.AllNumber(cv.i32())
	case dtype.I64:
		if any {
			return kernels.AnyNumber(cv.i64())
		}
		return kernels.AllNumber(cv.i64())
	case dtype.U8:
		if any {
			return kernels.AnyNumber(cv.u8())
		}
		return kernels.AllNumber(cv.u8())
	case dtype.U16:
		if any {
			return kernels.AnyNumber(cv.u16())
		}
		return kernels.AllNumber(cv.u16())
	case dtype.U32:
		if any {
			return kernels.AnyNumber(cv.u32())
		}
		return kernels.AllNumber(cv.u32())
	case dtype.U64:
		if any {
			return kernels.AnyNumber(cv.u64())
		}
		return kernels.AllNumber(cv.u64())
	case dtype.F32:
		if any {
			return kernels.AnyNumber(cv.f32())
		}
		return kernels.AllNumber(cv.f32())
	case dtype.F64:
		if any {
			return kernels.AnyNumber(cv.f64())
		}
		return kernels.AllNumber(cv.f64())
	case dtype.C64:
		if any {
			return kernels.AnyComplex(cv.c64())
		}
		return kernels.AllComplex(cv.c64())
	case dtype.C128:
		if any {
			return kernels.AnyComplex(cv.c128())
		}
		return kernels.AllComplex(cv.c128())
	default:
		panic("eval: any/all over dtype " + cv.dt.String())
	}
}

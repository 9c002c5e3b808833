// Package jitshape describes the native-code surface an external JIT
// would target: for each (OpKind, Dtype) pair it can emit the LLVM IR
// declaration of the kernel a code generator would have to provide.
// Nothing here compiles or executes anything; the evaluator never calls
// into this package.
package jitshape

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"vexpr/dtype"
	"vexpr/internal/ast"
)

// CompilationTier mirrors the tier ladder an external JIT would walk.
type CompilationTier int

const (
	TierInterpreted CompilationTier = iota
	TierQuickJIT
	TierOptimized
)

// Profiler counts evaluations per compiled expression so an external
// JIT can decide when a tree is hot enough to compile.
type Profiler struct {
	callCounts map[string]int
}

func NewProfiler() *Profiler {
	return &Profiler{callCounts: make(map[string]int)}
}

// RecordCall bumps the expression's call count and reports whether a
// tier promotion is due.
func (p *Profiler) RecordCall(compileID string) (bool, CompilationTier) {
	p.callCounts[compileID]++
	switch p.callCounts[compileID] {
	case 100:
		return true, TierQuickJIT
	case 1000:
		return true, TierOptimized
	}
	return false, TierInterpreted
}

// irType maps a dtype to the LLVM IR element type a kernel operates on.
// Complex dtypes are pairs of floats; Bool is i8 at the ABI boundary.
func irType(d dtype.Dtype) types.Type {
	switch d {
	case dtype.Bool, dtype.I8, dtype.U8:
		return types.I8
	case dtype.I16, dtype.U16:
		return types.I16
	case dtype.I32, dtype.U32:
		return types.I32
	case dtype.I64, dtype.U64:
		return types.I64
	case dtype.F32:
		return types.Float
	case dtype.F64:
		return types.Double
	case dtype.C64:
		return types.NewStruct(types.Float, types.Float)
	case dtype.C128:
		return types.NewStruct(types.Double, types.Double)
	default:
		return nil
	}
}

// KernelDecl returns the IR declaration an external code generator
// would have to satisfy for the (op, dtype, arity) kernel: pointers to
// the output and each operand block plus the element count.
func KernelDecl(m *ir.Module, op ast.OpKind, d dtype.Dtype, arity int) (*ir.Func, error) {
	elem := irType(d)
	if elem == nil {
		return nil, fmt.Errorf("jitshape: no IR type for dtype %s", d)
	}
	name := fmt.Sprintf("vexpr_kernel_op%d_%s", int(op), d)
	params := []*ir.Param{ir.NewParam("out", types.NewPointer(elem))}
	for i := 0; i < arity; i++ {
		params = append(params, ir.NewParam(fmt.Sprintf("a%d", i), types.NewPointer(elem)))
	}
	params = append(params, ir.NewParam("nitems", types.I64))
	return m.NewFunc(name, types.Void, params...), nil
}

// DescribeTree walks a compiled tree and declares every kernel a JIT
// would need for it, returning the module of declarations.
func DescribeTree(root *ast.Node) *ir.Module {
	m := ir.NewModule()
	declareNode(m, root)
	return m
}

func declareNode(m *ir.Module, n *ast.Node) {
	if n == nil {
		return
	}
	if (n.Kind == ast.KindFunction || n.Kind == ast.KindConvert) && n.Dtype != dtype.Str {
		// declaration failures only mean "not JIT-able", never an error
		// for the interpreter
		_, _ = KernelDecl(m, n.Op, n.Dtype, len(n.Children))
	}
	for _, c := range n.Children {
		declareNode(m, c)
	}
}

// construct.go implements type promotion, inference, and operand
// validation directly in the node constructors the parser calls, so
// every node is built already dtype-stamped and pre-validated.
package ast

import (
	"vexpr/dtype"
	verr "vexpr/internal/errors"
)

func NewConstant(val float64, d dtype.Dtype) *Node {
	return &Node{Kind: KindConstant, Dtype: d, InputDtype: d, ConstValue: val, Flags: FlagPure}
}

func NewStringConstant(runes []rune) *Node {
	return &Node{Kind: KindStringConstant, Dtype: dtype.Str, InputDtype: dtype.Str, StrValue: runes, Flags: FlagPure | FlagOwnsString}
}

func NewVariable(name string, d dtype.Dtype, itemSize int) *Node {
	return &Node{Kind: KindVariable, Dtype: d, InputDtype: d, VarName: name, VarItemSize: itemSize}
}

// NewConvert builds the "widen a child for use in a wider-typed
// expression" node. Conversions get their own node kind so the
// dispatcher never has to probe for a null operator identity.
func NewConvert(child *Node, target dtype.Dtype) *Node {
	return &Node{
		Kind:       KindConvert,
		Dtype:      target,
		InputDtype: child.Dtype,
		Op:         OpConvert,
		Children:   []*Node{child},
		Flags:      child.Flags & FlagPure,
	}
}

// UserFunc describes one caller-registered function the parser resolves
// identifiers against before the builtin table. Calls to it become
// Closure nodes carrying the function's index into the per-call
// callback table plus its opaque context.
type UserFunc struct {
	Name  string
	Arity int
	Index int
	Ctx   interface{}
}

// NewClosure builds the call node for a caller-registered function.
// Closures always compute in F64 and are never pure (the callback may
// observe its context), so they are exempt from constant folding.
func NewClosure(f UserFunc, args ...*Node) *Node {
	return &Node{
		Kind:       KindClosure,
		Dtype:      dtype.F64,
		InputDtype: dtype.F64,
		Children:   args,
		Closure:    &Closure{Index: f.Index, Ctx: f.Ctx},
	}
}

func childrenPure(children []*Node) bool {
	for _, c := range children {
		if !c.Flags.Has(FlagPure) {
			return false
		}
	}
	return true
}

func newFunctionNode(op OpKind, dt dtype.Dtype, pure bool, children ...*Node) *Node {
	n := &Node{Kind: KindFunction, Op: op, Dtype: dt, InputDtype: dt, Children: children}
	if pure && childrenPure(children) {
		n.Flags |= FlagPure
	}
	return n
}

// NewBinary builds a Function node for one of the binary operator
// tokens (arithmetic, bitwise, shift, comparison, logical), applying
// promotion and the string-operand validation rules at construction
// time.
func NewBinary(op OpKind, left, right *Node, pos int) (*Node, *verr.ParseError) {
	leftIsStr := left.Dtype == dtype.Str
	rightIsStr := right.Dtype == dtype.Str

	if leftIsStr || rightIsStr {
		if op != OpEq && op != OpNe {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidStringOp,
				"string operands may only appear as a direct operand of ==, !=, startswith, endswith, or contains")
		}
		if !leftIsStr || !rightIsStr {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidStringOp,
				"both sides of a string comparison must be string-typed")
		}
		n := newFunctionNode(op, dtype.Bool, true, left, right)
		n.InputDtype = dtype.Str
		return n, nil
	}

	switch {
	case op.IsComparison():
		// Dtype is always Bool, but children must be evaluated at their
		// common operand dtype, not at Bool — InputDtype carries that
		// working dtype separately from the result dtype.
		n := newFunctionNode(op, dtype.Bool, true, left, right)
		n.InputDtype = dtype.Common(left.Dtype, right.Dtype)
		return n, nil
	case op.IsLogical():
		return newFunctionNode(op, dtype.Bool, true, left, right), nil
	case op.IsShift():
		if !left.Dtype.IsInteger() {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidOperand,
				"shift requires an integer left operand")
		}
		return newFunctionNode(op, left.Dtype, true, left, right), nil
	default:
		common := dtype.Common(left.Dtype, right.Dtype)
		if op.IsBitwiseReStamped() && !common.IsInteger() && common != dtype.Bool {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidOperand,
				"bitwise operators require integer or boolean operands")
		}
		if op == OpMod && common.IsComplex() {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidOperand,
				"% is undefined for complex operands")
		}
		if op.IsBitwiseReStamped() && common == dtype.Bool {
			// Bool op Bool on &/| stays logical rather than numeric
			logical := map[OpKind]OpKind{OpBitAnd: OpLogAnd, OpBitOr: OpLogOr}
			if lop, ok := logical[op]; ok {
				return newFunctionNode(lop, dtype.Bool, true, left, right), nil
			}
		}
		return newFunctionNode(op, common, true, left, right), nil
	}
}

// NewUnary builds a unary Function node (-, +, ~, !/not).
func NewUnary(op OpKind, operand *Node) *Node {
	if op == OpLogNot {
		return newFunctionNode(op, dtype.Bool, true, operand)
	}
	return newFunctionNode(op, operand.Dtype, true, operand)
}

// NewStringRelation builds startswith/endswith/contains, which require
// both operands to be Str.
func NewStringRelation(op OpKind, a, b *Node, pos int) (*Node, *verr.ParseError) {
	if a.Dtype != dtype.Str || b.Dtype != dtype.Str {
		return nil, verr.NewParseError(pos, verr.ReasonInvalidStringOp,
			"startswith/endswith/contains require string-typed operands")
	}
	n := newFunctionNode(op, dtype.Bool, true, a, b)
	n.InputDtype = dtype.Str
	return n, nil
}

// NewWhere builds the ternary where(cond, x, y): cond is interpreted
// truthy, x/y are promoted to their common dtype.
func NewWhere(cond, x, y *Node) *Node {
	common := dtype.Common(x.Dtype, y.Dtype)
	return newFunctionNode(OpWhere, common, true, cond, x, y)
}

// NewFunc1 builds an arity-1 builtin call, honoring the explicit-dtype
// override from the builtin table and the real/imag/conj identity
// rules.
func NewFunc1(b Builtin, child *Node, pos int) (*Node, *verr.ParseError) {
	if b.ExplicitDtype != dtype.Invalid && !b.Op.IsReduction() {
		n := newFunctionNode(b.Op, b.ExplicitDtype, b.Pure, child)
		n.Flags |= FlagExplicitDtype
		return n, nil
	}

	switch b.Op {
	case OpImag:
		if !child.Dtype.IsComplex() {
			// imag() of a non-complex child yields the child's dtype and
			// a zero output.
			return newFunctionNode(b.Op, child.Dtype, b.Pure, child), nil
		}
		return newFunctionNode(b.Op, child.Dtype.RealDtype(), b.Pure, child), nil
	case OpReal:
		return newFunctionNode(b.Op, child.Dtype.RealDtype(), b.Pure, child), nil
	case OpConj:
		// identity on non-complex input, and on complex input (same width).
		return newFunctionNode(b.Op, child.Dtype, b.Pure, child), nil
	case OpMin, OpMax:
		if child.Dtype.IsComplex() {
			return nil, verr.NewParseError(pos, verr.ReasonComplexMinMax,
				"min/max over a complex-valued expression is rejected")
		}
		if child.HasString() {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidReduction,
				"reduction argument must not contain a string node")
		}
		return newFunctionNode(b.Op, child.Dtype, false, child), nil
	case OpSum, OpProd:
		if child.HasString() {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidReduction,
				"reduction argument must not contain a string node")
		}
		return newFunctionNode(b.Op, ReductionResultDtype(b.Op, child.Dtype), false, child), nil
	case OpMean:
		if child.HasString() {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidReduction,
				"reduction argument must not contain a string node")
		}
		return newFunctionNode(b.Op, ReductionResultDtype(b.Op, child.Dtype), false, child), nil
	case OpAny, OpAll:
		if child.HasString() {
			return nil, verr.NewParseError(pos, verr.ReasonInvalidReduction,
				"reduction argument must not contain a string node")
		}
		return newFunctionNode(b.Op, dtype.Bool, false, child), nil
	default:
		// scalar math wrappers: child's dtype flows up unless the child
		// is integer, in which case the scalar fallback path operates
		// in floating point. A complex child keeps its
		// complex width only for builtins with a complex-domain
		// implementation; fabs reduces to the modulus, everything else
		// operates on the real component.
		dt := child.Dtype
		if dt.IsInteger() || dt == dtype.Bool {
			dt = dtype.F64
		}
		if dt.IsComplex() && !b.Op.ComplexCapable() {
			dt = dt.RealDtype()
		}
		return newFunctionNode(b.Op, dt, b.Pure, child), nil
	}
}

// NewFuncN builds an arity->=2 builtin call (atan2, fmod, ncr, fma,
// logaddexp, ...), promoting numeric operands to their common dtype.
func NewFuncN(b Builtin, args []*Node, pos int) (*Node, *verr.ParseError) {
	if b.ExplicitDtype != dtype.Invalid {
		n := newFunctionNode(b.Op, b.ExplicitDtype, b.Pure, args...)
		n.Flags |= FlagExplicitDtype
		return n, nil
	}
	dt := args[0].Dtype
	for _, a := range args[1:] {
		dt = dtype.Common(dt, a.Dtype)
	}
	if dt.IsInteger() || dt == dtype.Bool {
		dt = dtype.F64
	}
	// no arity>=2 math builtin has a complex-domain definition; complex
	// operands contribute their real component.
	if dt.IsComplex() {
		dt = dt.RealDtype()
	}
	return newFunctionNode(b.Op, dt, b.Pure, args...), nil
}

// ReductionResultDtype maps a reduction and its child dtype to the
// widened result dtype.
func ReductionResultDtype(op OpKind, child dtype.Dtype) dtype.Dtype {
	switch op {
	case OpMean:
		if child.IsComplex() {
			return dtype.C128
		}
		return dtype.F64
	case OpSum, OpProd:
		switch {
		case child == dtype.Bool:
			return dtype.I64
		case child.IsInteger() && child.IsSigned():
			return dtype.I64
		case child.IsInteger():
			return dtype.U64
		default:
			return child // F32/F64/C64/C128 keep their width
		}
	case OpAny, OpAll:
		return dtype.Bool
	case OpMin, OpMax:
		return child
	default:
		return child
	}
}

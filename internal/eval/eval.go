package eval

import (
	"math"
	"math/cmplx"

	"github.com/pkg/errors"
	"golang.org/x/exp/constraints"

	"vexpr/dtype"
	"vexpr/internal/ast"
	verr "vexpr/internal/errors"
	"vexpr/internal/kernels"
)

// SubBlockSize is the fixed sub-block length large calls are chunked
// into for cache locality. Sub-blocking is disabled whenever the tree
// contains a reduction, which must observe the full element range.
const SubBlockSize = 1024

// Run evaluates root over one block of nitems elements, writing the
// result into out (which must hold nitems elements of root.Dtype).
func Run(root *ast.Node, ws *Workspace, out []byte, nitems int) error {
	if root.Dtype == dtype.Auto || root.Dtype == dtype.Invalid {
		panic("eval: expression reached evaluation with unresolved dtype")
	}
	if nitems <= SubBlockSize || containsReduction(root) {
		return runBlock(root, ws, out, nitems)
	}
	esz := root.Dtype.ItemSize()
	for off := 0; off < nitems; off += SubBlockSize {
		n := nitems - off
		if n > SubBlockSize {
			n = SubBlockSize
		}
		sub := ws.offset(off)
		if err := runBlock(root, sub, out[off*esz:], n); err != nil {
			return err
		}
		// carry the allocation count forward so MemLimit covers the
		// whole call, not each sub-block separately
		ws.allocated = sub.allocated
	}
	return nil
}

func runBlock(root *ast.Node, ws *Workspace, out []byte, nitems int) error {
	v, err := ws.evalNode(root, nitems)
	if err != nil {
		return err
	}
	copyInto(outputVector(out, root.Dtype, nitems), v)
	return nil
}

func containsReduction(n *ast.Node) bool {
	if n.Kind == ast.KindFunction && n.Op.IsReduction() {
		return true
	}
	for _, c := range n.Children {
		if containsReduction(c) {
			return true
		}
	}
	return false
}

// evalNode evaluates n into a vector of n.Dtype with count elements.
func (ws *Workspace) evalNode(n *ast.Node, count int) (vector, error) {
	switch n.Kind {
	case ast.KindConstant:
		v, err := ws.alloc(n.Dtype, count)
		if err != nil {
			return vector{}, err
		}
		fillScalar(v, n.ConstValue)
		return v, nil

	case ast.KindVariable:
		b, ok := ws.bindings[n.VarName]
		if !ok {
			return vector{}, errors.Wrap(verr.ErrVarMismatch, "no binding for variable "+n.VarName)
		}
		return ws.bindingVector(b, count)

	case ast.KindConvert:
		child, err := ws.evalNode(n.Children[0], count)
		if err != nil {
			return vector{}, err
		}
		return ws.convertVector(child, n.Dtype, count)

	case ast.KindClosure:
		return ws.evalClosure(n, count)

	case ast.KindFunction:
		return ws.evalFunction(n, count)

	default:
		panic("eval: node kind reached the dispatch evaluator directly: " + n.Dtype.String())
	}
}

// evalNodeAs evaluates n and converts the result to target.
func (ws *Workspace) evalNodeAs(n *ast.Node, target dtype.Dtype, count int) (vector, error) {
	v, err := ws.evalNode(n, count)
	if err != nil {
		return vector{}, err
	}
	return ws.convertVector(v, target, count)
}

func (ws *Workspace) evalFunction(n *ast.Node, count int) (vector, error) {
	op := n.Op
	switch {
	case op.IsReduction():
		return ws.evalReduction(n, count)
	case op == ast.OpComma:
		// left side evaluated for effect, right side is the value
		if _, err := ws.evalNode(n.Children[0], count); err != nil {
			return vector{}, err
		}
		return ws.evalNodeAs(n.Children[1], n.Dtype, count)
	case op.IsComparison():
		return ws.evalCompare(n, count)
	case op.IsStringRelation():
		return ws.evalStringRelation(n, count)
	case op == ast.OpWhere:
		return ws.evalWhere(n, count)
	case op == ast.OpReal || op == ast.OpImag || op == ast.OpConj:
		return ws.evalComplexSelector(n, count)
	case op == ast.OpFabs && n.Children[0].Dtype.IsComplex():
		return ws.evalComplexAbs(n, count)
	case op == ast.OpPi || op == ast.OpE:
		v, err := ws.alloc(n.Dtype, count)
		if err != nil {
			return vector{}, err
		}
		if op == ast.OpPi {
			fillScalar(v, math.Pi)
		} else {
			fillScalar(v, math.E)
		}
		return v, nil
	}
	return ws.evalElementwise(n, count)
}

// evalElementwise handles every remaining Function node: arithmetic,
// bitwise, logical, shifts, and the math-library wrappers, dispatched
// on the node's result dtype.
func (ws *Workspace) evalElementwise(n *ast.Node, count int) (vector, error) {
	T := n.Dtype

	// scalar right operand fast path
	if len(n.Children) == 2 && n.Children[1].Kind == ast.KindConstant && T != dtype.Bool {
		switch n.Op {
		case ast.OpAdd, ast.OpMul, ast.OpPow:
			return ws.evalScalarRHS(n, count)
		}
	}

	args := make([]vector, len(n.Children))
	for i, c := range n.Children {
		v, err := ws.evalNodeAs(c, T, count)
		if err != nil {
			return vector{}, err
		}
		args[i] = v
	}
	out, err := ws.alloc(T, count)
	if err != nil {
		return vector{}, err
	}

	var ok bool
	switch T {
	case dtype.Bool:
		ok = boolOp(n.Op, out.bools(), args)
	case dtype.I8:
		ok = intOp(n.Op, out.i8(), vecsI8(args))
	case dtype.I16:
		ok = intOp(n.Op, out.i16(), vecsI16(args))
	case dtype.I32:
		ok = intOp(n.Op, out.i32(), vecsI32(args))
	case dtype.I64:
		ok = intOp(n.Op, out.i64(), vecsI64(args))
	case dtype.U8:
		ok = intOp(n.Op, out.u8(), vecsU8(args))
	case dtype.U16:
		ok = intOp(n.Op, out.u16(), vecsU16(args))
	case dtype.U32:
		ok = intOp(n.Op, out.u32(), vecsU32(args))
	case dtype.U64:
		ok = intOp(n.Op, out.u64(), vecsU64(args))
	case dtype.F32:
		ok = floatOp(n.Op, out.f32(), vecsF32(args))
	case dtype.F64:
		ok = floatOp(n.Op, out.f64(), vecsF64(args))
	case dtype.C64:
		ok = complexOp(n.Op, out.c64(), vecsC64(args))
	case dtype.C128:
		ok = complexOp(n.Op, out.c128(), vecsC128(args))
	}
	if !ok {
		panic("eval: no kernel for op on dtype " + T.String())
	}
	return out, nil
}

func vecsI8(v []vector) [][]int8 {
	r := make([][]int8, len(v))
	for i := range v {
		r[i] = v[i].i8()
	}
	return r
}
func vecsI16(v []vector) [][]int16 {
	r := make([][]int16, len(v))
	for i := range v {
		r[i] = v[i].i16()
	}
	return r
}
func vecsI32(v []vector) [][]int32 {
	r := make([][]int32, len(v))
	for i := range v {
		r[i] = v[i].i32()
	}
	return r
}
func vecsI64(v []vector) [][]int64 {
	r := make([][]int64, len(v))
	for i := range v {
		r[i] = v[i].i64()
	}
	return r
}
func vecsU8(v []vector) [][]uint8 {
	r := make([][]uint8, len(v))
	for i := range v {
		r[i] = v[i].u8()
	}
	return r
}
func vecsU16(v []vector) [][]uint16 {
	r := make([][]uint16, len(v))
	for i := range v {
		r[i] = v[i].u16()
	}
	return r
}
func vecsU32(v []vector) [][]uint32 {
	r := make([][]uint32, len(v))
	for i := range v {
		r[i] = v[i].u32()
	}
	return r
}
func vecsU64(v []vector) [][]uint64 {
	r := make([][]uint64, len(v))
	for i := range v {
		r[i] = v[i].u64()
	}
	return r
}
func vecsF32(v []vector) [][]float32 {
	r := make([][]float32, len(v))
	for i := range v {
		r[i] = v[i].f32()
	}
	return r
}
func vecsF64(v []vector) [][]float64 {
	r := make([][]float64, len(v))
	for i := range v {
		r[i] = v[i].f64()
	}
	return r
}
func vecsC64(v []vector) [][]complex64 {
	r := make([][]complex64, len(v))
	for i := range v {
		r[i] = v[i].c64()
	}
	return r
}
func vecsC128(v []vector) [][]complex128 {
	r := make([][]complex128, len(v))
	for i := range v {
		r[i] = v[i].c128()
	}
	return r
}

// intOp dispatches one elementwise op at an integer dtype.
func intOp[T constraints.Integer](op ast.OpKind, out []T, a [][]T) bool {
	switch op {
	case ast.OpAdd:
		kernels.Add(out, a[0], a[1])
	case ast.OpSub:
		kernels.Sub(out, a[0], a[1])
	case ast.OpMul:
		kernels.Mul(out, a[0], a[1])
	case ast.OpDiv:
		kernels.DivInt(out, a[0], a[1])
	case ast.OpMod:
		kernels.ModInt(out, a[0], a[1])
	case ast.OpPow:
		kernels.Pow(out, a[0], a[1])
	case ast.OpBitAnd:
		kernels.BitAnd(out, a[0], a[1])
	case ast.OpBitOr:
		kernels.BitOr(out, a[0], a[1])
	case ast.OpBitXor:
		kernels.BitXor(out, a[0], a[1])
	case ast.OpShl:
		kernels.Shl(out, a[0], a[1])
	case ast.OpShr:
		kernels.Shr(out, a[0], a[1])
	case ast.OpUnaryMinus:
		kernels.Neg(out, a[0])
	case ast.OpUnaryPlus:
		kernels.Pos(out, a[0])
	case ast.OpBitNot:
		kernels.BitNot(out, a[0])
	default:
		return false
	}
	return true
}

// floatOp dispatches one elementwise op at a float dtype, including
// every math-library wrapper.
func floatOp[T constraints.Float](op ast.OpKind, out []T, a [][]T) bool {
	switch op {
	case ast.OpAdd:
		kernels.Add(out, a[0], a[1])
	case ast.OpSub:
		kernels.Sub(out, a[0], a[1])
	case ast.OpMul:
		kernels.Mul(out, a[0], a[1])
	case ast.OpDiv:
		kernels.DivFloat(out, a[0], a[1])
	case ast.OpMod:
		kernels.Float2(out, a[0], a[1], math.Mod)
	case ast.OpPow:
		kernels.Pow(out, a[0], a[1])
	case ast.OpUnaryMinus:
		kernels.Neg(out, a[0])
	case ast.OpUnaryPlus:
		kernels.Pos(out, a[0])
	case ast.OpFma:
		kernels.Float3(out, a[0], a[1], a[2], math.FMA)
	default:
		if fn, found := float1Fns[op]; found {
			kernels.Float1(out, a[0], fn)
			return true
		}
		if fn, found := float2Fns[op]; found {
			kernels.Float2(out, a[0], a[1], fn)
			return true
		}
		return false
	}
	return true
}

// complexOp dispatches one elementwise op at a complex dtype.
func complexOp[T kernels.Complex](op ast.OpKind, out []T, a [][]T) bool {
	switch op {
	case ast.OpAdd:
		kernels.CAdd(out, a[0], a[1])
	case ast.OpSub:
		kernels.CSub(out, a[0], a[1])
	case ast.OpMul:
		kernels.CMul(out, a[0], a[1])
	case ast.OpDiv:
		kernels.CDiv(out, a[0], a[1])
	case ast.OpPow:
		kernels.CPow(out, a[0], a[1])
	case ast.OpUnaryMinus:
		kernels.CNeg(out, a[0])
	case ast.OpUnaryPlus:
		copy(out, a[0])
	default:
		if fn, found := cmplx1Fns[op]; found {
			kernels.C1(out, a[0], fn)
			return true
		}
		return false
	}
	return true
}

// boolOp dispatches logical connectives. Unary +/- on Bool preserve
// truthiness (two's complement negation of 0/1 is still falsy/truthy).
func boolOp(op ast.OpKind, out []bool, args []vector) bool {
	switch op {
	case ast.OpLogAnd:
		kernels.LogAnd(out, args[0].bools(), args[1].bools())
	case ast.OpLogOr:
		kernels.LogOr(out, args[0].bools(), args[1].bools())
	case ast.OpLogNot, ast.OpBitNot:
		kernels.LogNot(out, args[0].bools())
	case ast.OpBitXor:
		kernels.Ne(out, args[0].bools(), args[1].bools())
	case ast.OpUnaryMinus, ast.OpUnaryPlus:
		copy(out, args[0].bools())
	default:
		return false
	}
	return true
}

// evalScalarRHS is the add/mul/pow-with-a-scalar-right-operand fast
// path: the constant is cast on the spot instead of being broadcast
// into a temporary.
func (ws *Workspace) evalScalarRHS(n *ast.Node, count int) (vector, error) {
	T := n.Dtype
	lhs, err := ws.evalNodeAs(n.Children[0], T, count)
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(T, count)
	if err != nil {
		return vector{}, err
	}
	s := n.Children[1].ConstValue
	switch T {
	case dtype.I8:
		scalarRHS(n.Op, out.i8(), lhs.i8(), int8(s))
	case dtype.I16:
		scalarRHS(n.Op, out.i16(), lhs.i16(), int16(s))
	case dtype.I32:
		scalarRHS(n.Op, out.i32(), lhs.i32(), int32(s))
	case dtype.I64:
		scalarRHS(n.Op, out.i64(), lhs.i64(), int64(s))
	case dtype.U8:
		scalarRHS(n.Op, out.u8(), lhs.u8(), uint8(s))
	case dtype.U16:
		scalarRHS(n.Op, out.u16(), lhs.u16(), uint16(s))
	case dtype.U32:
		scalarRHS(n.Op, out.u32(), lhs.u32(), uint32(s))
	case dtype.U64:
		scalarRHS(n.Op, out.u64(), lhs.u64(), uint64(s))
	case dtype.F32:
		scalarRHS(n.Op, out.f32(), lhs.f32(), float32(s))
	case dtype.F64:
		scalarRHS(n.Op, out.f64(), lhs.f64(), s)
	case dtype.C64:
		scalarRHSComplex(n.Op, out.c64(), lhs.c64(), complex64(complex(s, 0)))
	case dtype.C128:
		scalarRHSComplex(n.Op, out.c128(), lhs.c128(), complex(s, 0))
	default:
		panic("eval: scalar fast path at dtype " + T.String())
	}
	return out, nil
}

func scalarRHS[T kernels.Number](op ast.OpKind, out, a []T, s T) {
	switch op {
	case ast.OpAdd:
		kernels.AddScalar(out, a, s)
	case ast.OpMul:
		kernels.MulScalar(out, a, s)
	case ast.OpPow:
		kernels.PowScalar(out, a, s)
	}
}

func scalarRHSComplex[T kernels.Complex](op ast.OpKind, out, a []T, s T) {
	switch op {
	case ast.OpAdd:
		for i := range out {
			out[i] = a[i] + s
		}
	case ast.OpMul:
		for i := range out {
			out[i] = a[i] * s
		}
	case ast.OpPow:
		for i := range out {
			out[i] = T(cmplx.Pow(complex128(a[i]), complex128(s)))
		}
	}
}

// evalCompare handles the six comparisons. Operands are evaluated at
// the comparison's working dtype (InputDtype, the promoted common type
// of the two sides); the result is always a bool vector.
func (ws *Workspace) evalCompare(n *ast.Node, count int) (vector, error) {
	d := n.InputDtype
	if d == dtype.Str {
		return ws.evalStringCompare(n, count)
	}
	// ordering on Bool goes through U8; ordering on complex compares
	// the real components.
	if d == dtype.Bool && n.Op != ast.OpEq && n.Op != ast.OpNe {
		d = dtype.U8
	}
	if d.IsComplex() && n.Op != ast.OpEq && n.Op != ast.OpNe {
		d = d.RealDtype()
	}

	a, err := ws.evalNodeAs(n.Children[0], d, count)
	if err != nil {
		return vector{}, err
	}
	b, err := ws.evalNodeAs(n.Children[1], d, count)
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(dtype.Bool, count)
	if err != nil {
		return vector{}, err
	}
	res := out.bools()

	switch d {
	case dtype.Bool:
		switch n.Op {
		case ast.OpEq:
			kernels.Eq(res, a.bools(), b.bools())
		case ast.OpNe:
			kernels.Ne(res, a.bools(), b.bools())
		}
	case dtype.I8:
		cmpOp(n.Op, res, a.i8(), b.i8())
	case dtype.I16:
		cmpOp(n.Op, res, a.i16(), b.i16())
	case dtype.I32:
		cmpOp(n.Op, res, a.i32(), b.i32())
	case dtype.I64:
		cmpOp(n.Op, res, a.i64(), b.i64())
	case dtype.U8:
		cmpOp(n.Op, res, a.u8(), b.u8())
	case dtype.U16:
		cmpOp(n.Op, res, a.u16(), b.u16())
	case dtype.U32:
		cmpOp(n.Op, res, a.u32(), b.u32())
	case dtype.U64:
		cmpOp(n.Op, res, a.u64(), b.u64())
	case dtype.F32:
		cmpOp(n.Op, res, a.f32(), b.f32())
	case dtype.F64:
		cmpOp(n.Op, res, a.f64(), b.f64())
	case dtype.C64:
		switch n.Op {
		case ast.OpEq:
			kernels.CEq(res, a.c64(), b.c64())
		case ast.OpNe:
			kernels.CNe(res, a.c64(), b.c64())
		}
	case dtype.C128:
		switch n.Op {
		case ast.OpEq:
			kernels.CEq(res, a.c128(), b.c128())
		case ast.OpNe:
			kernels.CNe(res, a.c128(), b.c128())
		}
	}
	return out, nil
}

func cmpOp[T constraints.Ordered](op ast.OpKind, out []bool, a, b []T) {
	switch op {
	case ast.OpEq:
		kernels.Eq(out, a, b)
	case ast.OpNe:
		kernels.Ne(out, a, b)
	case ast.OpLt:
		kernels.Lt(out, a, b)
	case ast.OpGt:
		kernels.Gt(out, a, b)
	case ast.OpLe:
		kernels.Le(out, a, b)
	case ast.OpGe:
		kernels.Ge(out, a, b)
	}
}

// stringGetter builds a per-element accessor for a string operand,
// which post-parse validation guarantees is either a string literal or
// a Str variable.
func (ws *Workspace) stringGetter(n *ast.Node) (func(i int) []rune, error) {
	switch n.Kind {
	case ast.KindStringConstant:
		s := kernels.TrimNull(n.StrValue)
		return func(int) []rune { return s }, nil
	case ast.KindVariable:
		b, ok := ws.bindings[n.VarName]
		if !ok {
			return nil, errors.Wrap(verr.ErrVarMismatch, "no binding for variable "+n.VarName)
		}
		return func(i int) []rune { return kernels.StringAt(b.Data, b.ItemSize, i) }, nil
	default:
		panic("eval: string operand is neither a literal nor a variable")
	}
}

func (ws *Workspace) evalStringCompare(n *ast.Node, count int) (vector, error) {
	a, err := ws.stringGetter(n.Children[0])
	if err != nil {
		return vector{}, err
	}
	b, err := ws.stringGetter(n.Children[1])
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(dtype.Bool, count)
	if err != nil {
		return vector{}, err
	}
	res := out.bools()
	neg := n.Op == ast.OpNe
	for i := 0; i < count; i++ {
		res[i] = kernels.RunesEqual(a(i), b(i)) != neg
	}
	return out, nil
}

func (ws *Workspace) evalStringRelation(n *ast.Node, count int) (vector, error) {
	a, err := ws.stringGetter(n.Children[0])
	if err != nil {
		return vector{}, err
	}
	b, err := ws.stringGetter(n.Children[1])
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(dtype.Bool, count)
	if err != nil {
		return vector{}, err
	}
	res := out.bools()
	for i := 0; i < count; i++ {
		switch n.Op {
		case ast.OpStartsWith:
			res[i] = kernels.HasPrefix(a(i), b(i))
		case ast.OpEndsWith:
			res[i] = kernels.HasSuffix(a(i), b(i))
		case ast.OpContains:
			res[i] = kernels.Contains(a(i), b(i))
		}
	}
	return out, nil
}

func (ws *Workspace) evalWhere(n *ast.Node, count int) (vector, error) {
	cond, err := ws.evalNodeAs(n.Children[0], dtype.Bool, count)
	if err != nil {
		return vector{}, err
	}
	T := n.Dtype
	x, err := ws.evalNodeAs(n.Children[1], T, count)
	if err != nil {
		return vector{}, err
	}
	y, err := ws.evalNodeAs(n.Children[2], T, count)
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(T, count)
	if err != nil {
		return vector{}, err
	}
	c := cond.bools()
	switch T {
	case dtype.Bool:
		kernels.Where(out.bools(), c, x.bools(), y.bools())
	case dtype.I8:
		kernels.Where(out.i8(), c, x.i8(), y.i8())
	case dtype.I16:
		kernels.Where(out.i16(), c, x.i16(), y.i16())
	case dtype.I32:
		kernels.Where(out.i32(), c, x.i32(), y.i32())
	case dtype.I64:
		kernels.Where(out.i64(), c, x.i64(), y.i64())
	case dtype.U8:
		kernels.Where(out.u8(), c, x.u8(), y.u8())
	case dtype.U16:
		kernels.Where(out.u16(), c, x.u16(), y.u16())
	case dtype.U32:
		kernels.Where(out.u32(), c, x.u32(), y.u32())
	case dtype.U64:
		kernels.Where(out.u64(), c, x.u64(), y.u64())
	case dtype.F32:
		kernels.Where(out.f32(), c, x.f32(), y.f32())
	case dtype.F64:
		kernels.Where(out.f64(), c, x.f64(), y.f64())
	case dtype.C64:
		kernels.Where(out.c64(), c, x.c64(), y.c64())
	case dtype.C128:
		kernels.Where(out.c128(), c, x.c128(), y.c128())
	}
	return out, nil
}

// evalComplexSelector handles real/imag/conj. A complex child is
// evaluated at its native complex width and then extracted; a
// non-complex child passes through (real, conj) or zero-fills (imag).
func (ws *Workspace) evalComplexSelector(n *ast.Node, count int) (vector, error) {
	child := n.Children[0]
	if !child.Dtype.IsComplex() {
		if n.Op == ast.OpImag {
			return ws.alloc(n.Dtype, count) // zeroed
		}
		return ws.evalNodeAs(child, n.Dtype, count)
	}

	cv, err := ws.evalNode(child, count)
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(n.Dtype, count)
	if err != nil {
		return vector{}, err
	}
	switch child.Dtype {
	case dtype.C64:
		switch n.Op {
		case ast.OpReal:
			kernels.Real32(out.f32(), cv.c64())
		case ast.OpImag:
			kernels.Imag32(out.f32(), cv.c64())
		case ast.OpConj:
			kernels.Conj64(out.c64(), cv.c64())
		}
	case dtype.C128:
		switch n.Op {
		case ast.OpReal:
			kernels.Real64(out.f64(), cv.c128())
		case ast.OpImag:
			kernels.Imag64(out.f64(), cv.c128())
		case ast.OpConj:
			kernels.Conj128(out.c128(), cv.c128())
		}
	}
	return out, nil
}

// evalComplexAbs computes the modulus of a complex child into the
// matching float width.
func (ws *Workspace) evalComplexAbs(n *ast.Node, count int) (vector, error) {
	cv, err := ws.evalNode(n.Children[0], count)
	if err != nil {
		return vector{}, err
	}
	out, err := ws.alloc(n.Dtype, count)
	if err != nil {
		return vector{}, err
	}
	switch cv.dt {
	case dtype.C64:
		kernels.Abs32(out.f32(), cv.c64())
	case dtype.C128:
		kernels.Abs64(out.f64(), cv.c128())
	}
	return out, nil
}

// evalClosure calls the caller-registered callback at the node's index,
// with every argument converted to float64.
func (ws *Workspace) evalClosure(n *ast.Node, count int) (vector, error) {
	if n.Closure == nil || n.Closure.Index < 0 || n.Closure.Index >= len(ws.closures) {
		return vector{}, errors.Wrap(verr.ErrInvalidArg, "closure index out of range for this call")
	}
	args := make([][]float64, len(n.Children))
	for i, c := range n.Children {
		v, err := ws.evalNodeAs(c, dtype.F64, count)
		if err != nil {
			return vector{}, err
		}
		args[i] = v.f64()
	}
	out, err := ws.alloc(dtype.F64, count)
	if err != nil {
		return vector{}, err
	}
	if err := ws.closures[n.Closure.Index](n.Closure.Ctx, out.f64(), args); err != nil {
		return vector{}, err
	}
	return out, nil
}

// float1Fns maps every arity-1 math builtin to its float64 wrapper, the
// table form of the scalar math-library surface.
var float1Fns = map[ast.OpKind]func(float64) float64{
	ast.OpSin:    math.Sin,
	ast.OpCos:    math.Cos,
	ast.OpTan:    math.Tan,
	ast.OpAsin:   math.Asin,
	ast.OpAcos:   math.Acos,
	ast.OpAtan:   math.Atan,
	ast.OpSinh:   math.Sinh,
	ast.OpCosh:   math.Cosh,
	ast.OpTanh:   math.Tanh,
	ast.OpAsinh:  math.Asinh,
	ast.OpAcosh:  math.Acosh,
	ast.OpAtanh:  math.Atanh,
	ast.OpExp:    math.Exp,
	ast.OpExpm1:  math.Expm1,
	ast.OpExp2:   math.Exp2,
	ast.OpExp10:  kernels.Exp10,
	ast.OpLog:    math.Log,
	ast.OpLn:     math.Log,
	ast.OpLog10:  math.Log10,
	ast.OpLog1p:  math.Log1p,
	ast.OpLog2:   math.Log2,
	ast.OpSqrt:   math.Sqrt,
	ast.OpCbrt:   math.Cbrt,
	ast.OpCeil:   math.Ceil,
	ast.OpFloor:  math.Floor,
	ast.OpTrunc:  math.Trunc,
	ast.OpRound:  math.Round,
	ast.OpRint:   math.RoundToEven,
	ast.OpErf:    math.Erf,
	ast.OpErfc:   math.Erfc,
	ast.OpTgamma: math.Gamma,
	ast.OpLgamma: kernels.Lgamma,
	ast.OpSinpi:  kernels.Sinpi,
	ast.OpCospi:  kernels.Cospi,
	ast.OpFabs:   math.Abs,
	ast.OpFac:    kernels.Factorial,
}

var float2Fns = map[ast.OpKind]func(float64, float64) float64{
	ast.OpAtan2:     math.Atan2,
	ast.OpCopysign:  math.Copysign,
	ast.OpFdim:      math.Dim,
	ast.OpFmax:      math.Max,
	ast.OpFmin:      math.Min,
	ast.OpFmod:      math.Mod,
	ast.OpHypot:     math.Hypot,
	ast.OpNextafter: math.Nextafter,
	ast.OpRemainder: math.Remainder,
	ast.OpLogAddExp: kernels.LogAddExp,
	ast.OpNcr:       kernels.NChooseR,
	ast.OpNpr:       kernels.NPermuteR,
	ast.OpLdexp:     func(a, b float64) float64 { return math.Ldexp(a, int(b)) },
}

var ln2 = math.Log(2)

// cmplx1Fns covers the complex-capable arity-1 builtins. The few the
// host library lacks are derived from exp/log identities.
var cmplx1Fns = map[ast.OpKind]func(complex128) complex128{
	ast.OpSin:   cmplx.Sin,
	ast.OpCos:   cmplx.Cos,
	ast.OpTan:   cmplx.Tan,
	ast.OpAsin:  cmplx.Asin,
	ast.OpAcos:  cmplx.Acos,
	ast.OpAtan:  cmplx.Atan,
	ast.OpSinh:  cmplx.Sinh,
	ast.OpCosh:  cmplx.Cosh,
	ast.OpTanh:  cmplx.Tanh,
	ast.OpAsinh: cmplx.Asinh,
	ast.OpAcosh: cmplx.Acosh,
	ast.OpAtanh: cmplx.Atanh,
	ast.OpExp:   cmplx.Exp,
	ast.OpExpm1: func(z complex128) complex128 { return cmplx.Exp(z) - 1 },
	ast.OpExp2:  func(z complex128) complex128 { return cmplx.Exp(z * complex(ln2, 0)) },
	ast.OpExp10: func(z complex128) complex128 { return cmplx.Exp(z * complex(math.Ln10, 0)) },
	ast.OpLog:   cmplx.Log,
	ast.OpLn:    cmplx.Log,
	ast.OpLog10: cmplx.Log10,
	ast.OpLog1p: func(z complex128) complex128 { return cmplx.Log(1 + z) },
	ast.OpLog2:  func(z complex128) complex128 { return cmplx.Log(z) / complex(ln2, 0) },
	ast.OpSqrt:  cmplx.Sqrt,
}

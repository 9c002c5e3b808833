// Package fold implements bottom-up constant folding plus two algebraic
// rewrites: pow(x,2) -> x*x and pow(x,3) -> (x*x)*x. A pure node whose
// every child is a Constant is evaluated once and replaced by a single
// Constant. Scalar evaluation calls the same float64 math-library
// functions as the evaluator's wrappers, so folded results match
// run-time results exactly.
package fold

import (
	"math"

	"vexpr/dtype"
	"vexpr/internal/ast"
	"vexpr/internal/kernels"
)

// Fold returns a new tree equivalent to root with every constant-valued
// pure subexpression collapsed to a single ast.KindConstant node, and
// the pow(x,2)/pow(x,3) rewrites applied.
func Fold(root *ast.Node) *ast.Node {
	if root == nil {
		return nil
	}

	switch root.Kind {
	case ast.KindConstant, ast.KindStringConstant, ast.KindVariable:
		return root
	}

	folded := root.Clone()
	for i, c := range folded.Children {
		folded.Children[i] = Fold(c)
	}
	folded.InvalidateHasString()

	if const1, ok := tryStringRelation(folded); ok {
		return const1
	}

	if allConstant(folded.Children) && folded.Flags.Has(ast.FlagPure) && folded.Kind != ast.KindStringConstant {
		if v, ok := evalScalar(folded); ok {
			return ast.NewConstant(v, folded.Dtype)
		}
	}

	if rewritten := tryPowRewrite(folded); rewritten != nil {
		return rewritten
	}

	return folded
}

func allConstant(children []*ast.Node) bool {
	for _, c := range children {
		if c.Kind != ast.KindConstant {
			return false
		}
	}
	return true
}

// tryPowRewrite rewrites pow(x,2) -> x*x and pow(x,3) -> (x*x)*x. Only
// fires when the exponent is a Constant 2 or 3 and the base itself did
// not already fold to a Constant (the generic constant-folding branch
// above already handles an all-constant pow node).
func tryPowRewrite(n *ast.Node) *ast.Node {
	if n.Kind != ast.KindFunction || n.Op != ast.OpPow || len(n.Children) != 2 {
		return nil
	}
	base, exp := n.Children[0], n.Children[1]
	if exp.Kind != ast.KindConstant || base.Kind == ast.KindConstant {
		return nil
	}
	switch exp.ConstValue {
	case 2:
		sq := mulNode(base, base.Clone())
		return sq
	case 3:
		sq := mulNode(base, base.Clone())
		return mulNode(sq, base.Clone())
	default:
		return nil
	}
}

func mulNode(a, b *ast.Node) *ast.Node {
	n, err := ast.NewBinary(ast.OpMul, a, b, 0)
	if err != nil {
		// a*a/a*a*a can never fail promotion validation: both operands
		// share a's own already-validated numeric dtype.
		panic(err)
	}
	return n
}

// tryStringRelation folds ==, !=, startswith, endswith, and contains
// over two StringConstant operands, since string values have no
// scalar-float representation for the generic evalScalar path below.
func tryStringRelation(n *ast.Node) (*ast.Node, bool) {
	if n.Kind != ast.KindFunction || len(n.Children) != 2 {
		return nil, false
	}
	a, b := n.Children[0], n.Children[1]
	if a.Kind != ast.KindStringConstant || b.Kind != ast.KindStringConstant {
		return nil, false
	}
	sa, sb := kernels.TrimNull(a.StrValue), kernels.TrimNull(b.StrValue)
	var result bool
	switch n.Op {
	case ast.OpEq:
		result = kernels.RunesEqual(sa, sb)
	case ast.OpNe:
		result = !kernels.RunesEqual(sa, sb)
	case ast.OpStartsWith:
		result = kernels.HasPrefix(sa, sb)
	case ast.OpEndsWith:
		result = kernels.HasSuffix(sa, sb)
	case ast.OpContains:
		result = kernels.Contains(sa, sb)
	default:
		return nil, false
	}
	return ast.NewConstant(boolFloat(result), dtype.Bool), true
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func truthy(v float64) bool { return v != 0 }

// evalScalar evaluates a pure, all-constant Function/Convert node once,
// mirroring the evaluator's scalar fallback path so folded results
// match run-time results exactly.
func evalScalar(n *ast.Node) (float64, bool) {
	if n.Kind == ast.KindConvert {
		return n.Children[0].ConstValue, true
	}
	args := make([]float64, len(n.Children))
	for i, c := range n.Children {
		args[i] = c.ConstValue
	}

	switch n.Op {
	case ast.OpPi:
		return math.Pi, true
	case ast.OpE:
		return math.E, true

	case ast.OpAdd:
		return args[0] + args[1], true
	case ast.OpSub:
		return args[0] - args[1], true
	case ast.OpMul:
		return args[0] * args[1], true
	case ast.OpDiv:
		// integer-dtype folds must match the runtime kernels: zero
		// divisor yields zero, otherwise truncating division
		if n.Dtype.IsInteger() || n.Dtype == dtype.Bool {
			if args[1] == 0 {
				return 0, true
			}
			return math.Trunc(args[0] / args[1]), true
		}
		return args[0] / args[1], true
	case ast.OpMod:
		if n.Dtype.IsInteger() || n.Dtype == dtype.Bool {
			if args[1] == 0 {
				return 0, true
			}
		}
		return math.Mod(args[0], args[1]), true
	case ast.OpPow:
		return math.Pow(args[0], args[1]), true

	case ast.OpBitAnd:
		return float64(int64(args[0]) & int64(args[1])), true
	case ast.OpBitOr:
		return float64(int64(args[0]) | int64(args[1])), true
	case ast.OpBitXor:
		return float64(int64(args[0]) ^ int64(args[1])), true
	case ast.OpShl:
		return float64(int64(args[0]) << uint64(int64(args[1]))), true
	case ast.OpShr:
		return float64(int64(args[0]) >> uint64(int64(args[1]))), true

	case ast.OpLogAnd:
		return boolFloat(truthy(args[0]) && truthy(args[1])), true
	case ast.OpLogOr:
		return boolFloat(truthy(args[0]) || truthy(args[1])), true
	case ast.OpLogNot:
		return boolFloat(!truthy(args[0])), true

	case ast.OpEq:
		return boolFloat(args[0] == args[1]), true
	case ast.OpNe:
		return boolFloat(args[0] != args[1]), true
	case ast.OpLt:
		return boolFloat(args[0] < args[1]), true
	case ast.OpGt:
		return boolFloat(args[0] > args[1]), true
	case ast.OpLe:
		return boolFloat(args[0] <= args[1]), true
	case ast.OpGe:
		return boolFloat(args[0] >= args[1]), true

	case ast.OpUnaryMinus:
		return -args[0], true
	case ast.OpUnaryPlus:
		return args[0], true
	case ast.OpBitNot:
		return float64(^int64(args[0])), true

	case ast.OpSin:
		return math.Sin(args[0]), true
	case ast.OpCos:
		return math.Cos(args[0]), true
	case ast.OpTan:
		return math.Tan(args[0]), true
	case ast.OpAsin:
		return math.Asin(args[0]), true
	case ast.OpAcos:
		return math.Acos(args[0]), true
	case ast.OpAtan:
		return math.Atan(args[0]), true
	case ast.OpAtan2:
		return math.Atan2(args[0], args[1]), true
	case ast.OpSinh:
		return math.Sinh(args[0]), true
	case ast.OpCosh:
		return math.Cosh(args[0]), true
	case ast.OpTanh:
		return math.Tanh(args[0]), true
	case ast.OpAsinh:
		return math.Asinh(args[0]), true
	case ast.OpAcosh:
		return math.Acosh(args[0]), true
	case ast.OpAtanh:
		return math.Atanh(args[0]), true
	case ast.OpExp:
		return math.Exp(args[0]), true
	case ast.OpExpm1:
		return math.Expm1(args[0]), true
	case ast.OpExp2:
		return math.Exp2(args[0]), true
	case ast.OpExp10:
		return math.Pow(10, args[0]), true
	case ast.OpLog, ast.OpLn:
		return math.Log(args[0]), true
	case ast.OpLog10:
		return math.Log10(args[0]), true
	case ast.OpLog1p:
		return math.Log1p(args[0]), true
	case ast.OpLog2:
		return math.Log2(args[0]), true
	case ast.OpSqrt:
		return math.Sqrt(args[0]), true
	case ast.OpCbrt:
		return math.Cbrt(args[0]), true
	case ast.OpCeil:
		return math.Ceil(args[0]), true
	case ast.OpFloor:
		return math.Floor(args[0]), true
	case ast.OpTrunc:
		return math.Trunc(args[0]), true
	case ast.OpRound:
		return math.Round(args[0]), true
	case ast.OpRint:
		return math.RoundToEven(args[0]), true
	case ast.OpErf:
		return math.Erf(args[0]), true
	case ast.OpErfc:
		return math.Erfc(args[0]), true
	case ast.OpTgamma:
		return math.Gamma(args[0]), true
	case ast.OpLgamma:
		v, _ := math.Lgamma(args[0])
		return v, true
	case ast.OpSinpi:
		return math.Sin(math.Pi * args[0]), true
	case ast.OpCospi:
		return math.Cos(math.Pi * args[0]), true
	case ast.OpFabs:
		return math.Abs(args[0]), true

	case ast.OpCopysign:
		return math.Copysign(args[0], args[1]), true
	case ast.OpFdim:
		return math.Dim(args[0], args[1]), true
	case ast.OpFmax:
		return math.Max(args[0], args[1]), true
	case ast.OpFmin:
		return math.Min(args[0], args[1]), true
	case ast.OpFmod:
		return math.Mod(args[0], args[1]), true
	case ast.OpHypot:
		return math.Hypot(args[0], args[1]), true
	case ast.OpLdexp:
		return math.Ldexp(args[0], int(args[1])), true
	case ast.OpNextafter:
		return math.Nextafter(args[0], args[1]), true
	case ast.OpRemainder:
		return math.Remainder(args[0], args[1]), true
	case ast.OpLogAddExp:
		return logAddExp(args[0], args[1]), true

	case ast.OpFma:
		return math.FMA(args[0], args[1], args[2]), true
	case ast.OpWhere:
		if truthy(args[0]) {
			return args[1], true
		}
		return args[2], true

	case ast.OpFac:
		return factorial(args[0]), true
	case ast.OpNcr:
		return nChooseR(args[0], args[1]), true
	case ast.OpNpr:
		return nPermuteR(args[0], args[1]), true

	case ast.OpReal, ast.OpConj:
		return args[0], true
	case ast.OpImag:
		return 0, true

	default:
		return 0, false
	}
}

func logAddExp(a, b float64) float64 {
	hi, lo := a, b
	if lo > hi {
		hi, lo = lo, hi
	}
	if math.IsInf(hi, -1) {
		return hi
	}
	return hi + math.Log1p(math.Exp(lo-hi))
}

func factorial(n float64) float64 {
	return math.Gamma(n + 1)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

func nChooseR(n, r float64) float64 {
	return math.Round(math.Exp(lgamma(n+1) - lgamma(r+1) - lgamma(n-r+1)))
}

func nPermuteR(n, r float64) float64 {
	return math.Round(math.Exp(lgamma(n+1) - lgamma(n-r+1)))
}

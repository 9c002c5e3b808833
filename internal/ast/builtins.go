package ast

import (
	"sort"

	"vexpr/dtype"
)

// Builtin describes one entry of the builtin symbol table: the
// operation's identity, its fixed arity, whether it is pure (eligible
// for constant folding), and — for the handful of builtins whose result
// dtype does not simply flow from the promoted dtype of its children —
// the dtype inference pins.
type Builtin struct {
	Name          string
	Op            OpKind
	Arity         int
	Pure          bool
	ExplicitDtype dtype.Dtype // dtype.Invalid means "infer from children"
}

// builtins is kept lexically sorted by Name so Lookup can binary-search
// it.
var builtins = []Builtin{
	{"acos", OpAcos, 1, true, dtype.Invalid},
	{"acosh", OpAcosh, 1, true, dtype.Invalid},
	{"all", OpAll, 1, false, dtype.Bool},
	{"any", OpAny, 1, false, dtype.Bool},
	{"asin", OpAsin, 1, true, dtype.Invalid},
	{"asinh", OpAsinh, 1, true, dtype.Invalid},
	{"atan", OpAtan, 1, true, dtype.Invalid},
	{"atan2", OpAtan2, 2, true, dtype.Invalid},
	{"atanh", OpAtanh, 1, true, dtype.Invalid},
	{"cbrt", OpCbrt, 1, true, dtype.Invalid},
	{"ceil", OpCeil, 1, true, dtype.Invalid},
	{"conj", OpConj, 1, true, dtype.Invalid},
	{"contains", OpContains, 2, true, dtype.Bool},
	{"copysign", OpCopysign, 2, true, dtype.Invalid},
	{"cos", OpCos, 1, true, dtype.Invalid},
	{"cosh", OpCosh, 1, true, dtype.Invalid},
	{"cospi", OpCospi, 1, true, dtype.Invalid},
	{"e", OpE, 0, true, dtype.F64},
	{"endswith", OpEndsWith, 2, true, dtype.Bool},
	{"erf", OpErf, 1, true, dtype.Invalid},
	{"erfc", OpErfc, 1, true, dtype.Invalid},
	{"exp", OpExp, 1, true, dtype.Invalid},
	{"exp10", OpExp10, 1, true, dtype.Invalid},
	{"exp2", OpExp2, 1, true, dtype.Invalid},
	{"expm1", OpExpm1, 1, true, dtype.Invalid},
	{"fabs", OpFabs, 1, true, dtype.Invalid},
	{"fac", OpFac, 1, true, dtype.Invalid},
	{"fdim", OpFdim, 2, true, dtype.Invalid},
	{"floor", OpFloor, 1, true, dtype.Invalid},
	{"fma", OpFma, 3, true, dtype.Invalid},
	{"fmax", OpFmax, 2, true, dtype.Invalid},
	{"fmin", OpFmin, 2, true, dtype.Invalid},
	{"fmod", OpFmod, 2, true, dtype.Invalid},
	{"hypot", OpHypot, 2, true, dtype.Invalid},
	{"imag", OpImag, 1, true, dtype.Invalid},
	{"ldexp", OpLdexp, 2, true, dtype.Invalid},
	{"lgamma", OpLgamma, 1, true, dtype.Invalid},
	{"ln", OpLn, 1, true, dtype.Invalid},
	{"log", OpLog, 1, true, dtype.Invalid},
	{"log10", OpLog10, 1, true, dtype.Invalid},
	{"log1p", OpLog1p, 1, true, dtype.Invalid},
	{"log2", OpLog2, 1, true, dtype.Invalid},
	{"logaddexp", OpLogAddExp, 2, true, dtype.Invalid},
	{"max", OpMax, 1, false, dtype.Invalid},
	{"mean", OpMean, 1, false, dtype.Invalid},
	{"min", OpMin, 1, false, dtype.Invalid},
	{"ncr", OpNcr, 2, true, dtype.Invalid},
	{"nextafter", OpNextafter, 2, true, dtype.Invalid},
	{"npr", OpNpr, 2, true, dtype.Invalid},
	{"pi", OpPi, 0, true, dtype.F64},
	{"prod", OpProd, 1, false, dtype.Invalid},
	{"real", OpReal, 1, true, dtype.Invalid},
	{"remainder", OpRemainder, 2, true, dtype.Invalid},
	{"rint", OpRint, 1, true, dtype.Invalid},
	{"round", OpRound, 1, true, dtype.Invalid},
	{"sin", OpSin, 1, true, dtype.Invalid},
	{"sinh", OpSinh, 1, true, dtype.Invalid},
	{"sinpi", OpSinpi, 1, true, dtype.Invalid},
	{"sqrt", OpSqrt, 1, true, dtype.Invalid},
	{"startswith", OpStartsWith, 2, true, dtype.Bool},
	{"sum", OpSum, 1, false, dtype.Invalid},
	{"tan", OpTan, 1, true, dtype.Invalid},
	{"tanh", OpTanh, 1, true, dtype.Invalid},
	{"tgamma", OpTgamma, 1, true, dtype.Invalid},
	{"trunc", OpTrunc, 1, true, dtype.Invalid},
	{"where", OpWhere, 3, true, dtype.Invalid},
}

func init() {
	if !sort.SliceIsSorted(builtins, func(i, j int) bool { return builtins[i].Name < builtins[j].Name }) {
		panic("ast: builtins table is not lexically sorted")
	}
}

// Lookup binary-searches the builtin table. Names are case-sensitive.
func Lookup(name string) (Builtin, bool) {
	i := sort.Search(len(builtins), func(i int) bool { return builtins[i].Name >= name })
	if i < len(builtins) && builtins[i].Name == name {
		return builtins[i], true
	}
	return Builtin{}, false
}

// IsBuiltinFunctionName reports whether name is in the builtin table.
func IsBuiltinFunctionName(name string) bool {
	_, ok := Lookup(name)
	return ok
}

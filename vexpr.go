// Package vexpr is a block-oriented numeric expression engine: it
// compiles a textual arithmetic expression referencing named array
// variables into a typed expression tree, infers the result element
// type through a deterministic promotion lattice, and evaluates the
// tree over contiguous blocks into a contiguous typed output block.
//
// A compiled *Expr is immutable and safe for concurrent Evaluate calls
// with disjoint variable and output blocks; every call owns a private
// workspace for its transient state.
package vexpr

import (
	"github.com/google/uuid"

	"vexpr/dtype"
	"vexpr/internal/ast"
	verr "vexpr/internal/errors"
	"vexpr/internal/eval"
	"vexpr/internal/fold"
	"vexpr/internal/lexer"
	"vexpr/internal/parser"
)

// MaxVars is the maximum number of distinct variables one compiled
// expression may reference.
const MaxVars = dtype.MAX_VARS

// Symbol declares one variable available to the expression: its name,
// element dtype, and — for Str variables — the slot width in bytes (a
// multiple of 4). Bound is an optional opaque identity the caller may
// carry through compilation; the engine itself keys variables by Name.
type Symbol = ast.Symbol

// ParseError is returned by Compile on malformed input, with the byte
// position and one of the documented failure reasons.
type ParseError = verr.ParseError

// OpKind identifies the semantics of an operator node, exposed for
// downstream passes through ComparisonKind and ReductionKind.
type OpKind = ast.OpKind

// Reduction and comparison identities, re-exported for callers of the
// diagnostic helpers.
const (
	OpSum  = ast.OpSum
	OpMean = ast.OpMean
	OpProd = ast.OpProd
	OpMin  = ast.OpMin
	OpMax  = ast.OpMax
	OpAny  = ast.OpAny
	OpAll  = ast.OpAll

	OpEq = ast.OpEq
	OpNe = ast.OpNe
	OpLt = ast.OpLt
	OpGt = ast.OpGt
	OpLe = ast.OpLe
	OpGe = ast.OpGe
)

// ClosureFunc is a caller-registered function body. It receives its
// opaque context, a result slice to fill (one float64 per element), and
// every argument evaluated to float64.
type ClosureFunc = eval.ClosureFunc

// UserFunction registers a named function callable from expression
// source. Calls to it are never constant-folded.
type UserFunction struct {
	Name  string
	Arity int
	Fn    ClosureFunc
	Ctx   interface{}
}

// Expr is one compiled expression: the optimized tree, its inferred
// output dtype, and the distinct variable names in first-occurrence
// order. VarNames fixes the order Evaluate expects its vars slice in.
type Expr struct {
	// CompileID tags this compilation for diagnostics and log
	// correlation; it has no semantic effect.
	CompileID uuid.UUID

	VarNames []string

	root     *ast.Node
	dtype    dtype.Dtype
	symbols  map[string]Symbol
	closures []ClosureFunc
}

// Compile tokenizes, parses, type-checks, and optimizes source.
// targetDtype biases numeric-literal classification and, when not
// dtype.Auto, forces the expression's output dtype through a final
// conversion.
func Compile(source string, symbols []Symbol, targetDtype dtype.Dtype) (*Expr, *ParseError) {
	return CompileWithFunctions(source, symbols, nil, targetDtype)
}

// CompileWithFunctions is Compile plus a table of caller-registered
// functions resolvable from the expression source.
func CompileWithFunctions(source string, symbols []Symbol, funcs []UserFunction, targetDtype dtype.Dtype) (*Expr, *ParseError) {
	if targetDtype == dtype.Str {
		return nil, verr.NewParseError(0, verr.ReasonStrOutput, "target dtype must not be Str")
	}

	scanner := lexer.NewScanner(source, targetDtype)
	tokens, perr := scanner.ScanTokens()
	if perr != nil {
		return nil, perr
	}

	userFuncs := make([]ast.UserFunc, len(funcs))
	closures := make([]ClosureFunc, len(funcs))
	for i, f := range funcs {
		userFuncs[i] = ast.UserFunc{Name: f.Name, Arity: f.Arity, Index: i, Ctx: f.Ctx}
		closures[i] = f.Fn
	}

	p := parser.NewParser(tokens, symbols, userFuncs, targetDtype)
	root, varNames, perr := p.Parse()
	if perr != nil {
		return nil, perr
	}

	root = fold.Fold(root)

	if targetDtype != dtype.Auto && root.Dtype != targetDtype {
		root = ast.NewConvert(root, targetDtype)
	}

	symMap := make(map[string]Symbol, len(symbols))
	for _, s := range symbols {
		symMap[s.Name] = s
	}

	return &Expr{
		CompileID: uuid.New(),
		VarNames:  varNames,
		root:      root,
		dtype:     root.Dtype,
		symbols:   symMap,
		closures:  closures,
	}, nil
}

// Dtype returns the expression's inferred output element dtype.
func (e *Expr) Dtype() dtype.Dtype { return e.dtype }

// ResultDtype returns the inferred top-level dtype of a compiled
// expression, or dtype.Invalid for nil.
func ResultDtype(e *Expr) dtype.Dtype {
	if e == nil {
		return dtype.Invalid
	}
	return e.dtype
}

// IsBuiltinFunctionName reports whether name is in the builtin table.
func IsBuiltinFunctionName(name string) bool {
	return ast.IsBuiltinFunctionName(name)
}

// ComparisonKind exposes the identity of a top-level comparison node
// for downstream passes; ok is false when the root is not a comparison.
func ComparisonKind(e *Expr) (OpKind, bool) {
	if e == nil || e.root == nil || e.root.Kind != ast.KindFunction || !e.root.Op.IsComparison() {
		return 0, false
	}
	return e.root.Op, true
}

// ReductionKind exposes the identity of a top-level reduction node; ok
// is false when the root is not a reduction.
func ReductionKind(e *Expr) (OpKind, bool) {
	if e == nil || e.root == nil || e.root.Kind != ast.KindFunction || !e.root.Op.IsReduction() {
		return 0, false
	}
	return e.root.Op, true
}

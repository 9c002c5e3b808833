package parser

import (
	"testing"

	"vexpr/dtype"
	"vexpr/internal/ast"
	verr "vexpr/internal/errors"
	"vexpr/internal/lexer"
)

func parse(t *testing.T, src string, symbols []ast.Symbol, target dtype.Dtype) (*ast.Node, []string, *verr.ParseError) {
	t.Helper()
	s := lexer.NewScanner(src, target)
	toks, err := s.ScanTokens()
	if err != nil {
		return nil, nil, err
	}
	return NewParser(toks, symbols, nil, target).Parse()
}

func mustParse(t *testing.T, src string, symbols []ast.Symbol) *ast.Node {
	t.Helper()
	root, _, err := parse(t, src, symbols, dtype.Auto)
	if err != nil {
		t.Fatalf("parse(%q) failed: %v", src, err)
	}
	return root
}

var numSymbols = []ast.Symbol{
	{Name: "b8", Dtype: dtype.Bool},
	{Name: "i8", Dtype: dtype.I8},
	{Name: "i32", Dtype: dtype.I32},
	{Name: "i64", Dtype: dtype.I64},
	{Name: "u32", Dtype: dtype.U32},
	{Name: "f32", Dtype: dtype.F32},
	{Name: "f64", Dtype: dtype.F64},
	{Name: "c64", Dtype: dtype.C64},
	{Name: "s", Dtype: dtype.Str, ItemSize: 16},
	{Name: "t", Dtype: dtype.Str, ItemSize: 16},
}

func TestResultDtypeInference(t *testing.T) {
	tests := []struct {
		src  string
		want dtype.Dtype
	}{
		{"i32 + i32", dtype.I32},
		{"i32 + u32", dtype.I64},
		{"i32 * f32", dtype.F32},
		{"f32 + f64", dtype.F64},
		{"f64 + c64", dtype.C64},
		{"i8 + b8", dtype.I8},
		{"i32 < f64", dtype.Bool},
		{"f32 == f32", dtype.Bool},
		{"b8 and b8", dtype.Bool},
		{"not b8", dtype.Bool},
		{"i32 << i64", dtype.I32},
		{"i64 >> i32", dtype.I64},
		{"sqrt f64", dtype.F64},
		{"sqrt i32", dtype.F64},
		{"sqrt(c64)", dtype.C64},
		{"ceil(c64)", dtype.F32},
		{"fabs(c64)", dtype.F32},
		{"real(c64)", dtype.F32},
		{"imag(c64)", dtype.F32},
		{"imag(f32)", dtype.F32},
		{"conj(c64)", dtype.C64},
		{"sum(i8)", dtype.I64},
		{"sum(u32)", dtype.U64},
		{"sum(b8)", dtype.I64},
		{"sum(f32)", dtype.F32},
		{"prod(c64)", dtype.C64},
		{"mean(i32)", dtype.F64},
		{"mean(c64)", dtype.C128},
		{"min(i8)", dtype.I8},
		{"max(f32)", dtype.F32},
		{"any(f64)", dtype.Bool},
		{"all(i32)", dtype.Bool},
		{"where(b8, i32, f32)", dtype.F32},
		{"pi", dtype.F64},
		{"s == t", dtype.Bool},
		{"startswith(s, t)", dtype.Bool},
		{"i32 & i64", dtype.I64},
		{"b8 & b8", dtype.Bool},
		{"atan2(i32, i32)", dtype.F64},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			root := mustParse(t, tt.src, numSymbols)
			if root.Dtype != tt.want {
				t.Errorf("dtype of %q = %s, want %s", tt.src, root.Dtype, tt.want)
			}
		})
	}
}

func TestPrecedence(t *testing.T) {
	// a + b*c parses as a + (b*c)
	root := mustParse(t, "f64 + f64 * f64", numSymbols)
	if root.Op != ast.OpAdd {
		t.Fatalf("root op = %v, want OpAdd", root.Op)
	}
	if root.Children[1].Op != ast.OpMul {
		t.Errorf("right child op = %v, want OpMul", root.Children[1].Op)
	}

	// comparison binds looser than arithmetic
	root = mustParse(t, "i32 + i32 < i32 * i32", numSymbols)
	if root.Op != ast.OpLt {
		t.Fatalf("root op = %v, want OpLt", root.Op)
	}

	// logical binds loosest
	root = mustParse(t, "i32 < i32 and i32 > i32", numSymbols)
	if root.Op != ast.OpLogAnd {
		t.Fatalf("root op = %v, want OpLogAnd", root.Op)
	}

	// unary minus binds tighter than **'s left operand chain
	root = mustParse(t, "f64 ** -f64", numSymbols)
	if root.Op != ast.OpPow {
		t.Fatalf("root op = %v, want OpPow", root.Op)
	}
	if root.Children[1].Op != ast.OpUnaryMinus {
		t.Errorf("exponent op = %v, want OpUnaryMinus", root.Children[1].Op)
	}
}

func TestVariableOrder(t *testing.T) {
	_, names, err := parse(t, "f64 + i32 * f64 - u32", numSymbols, dtype.Auto)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	want := []string{"f64", "i32", "u32"}
	if len(names) != len(want) {
		t.Fatalf("var names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("var %d = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		reason verr.ParseReason
	}{
		{"unknown identifier", "nosuchvar + 1", verr.ReasonUnknownIdentifier},
		{"wrong arity low", "atan2(f64)", verr.ReasonWrongArity},
		{"wrong arity high", "atan2(f64, f64, f64)", verr.ReasonWrongArity},
		{"where arity", "where(b8, i32)", verr.ReasonWrongArity},
		{"unbalanced paren", "(f64 + f64", verr.ReasonMismatchedParen},
		{"string plus number", "s + 1", verr.ReasonInvalidStringOp},
		{"string ordering", "s < t", verr.ReasonInvalidStringOp},
		{"string vs number equality", "s == 1", verr.ReasonInvalidStringOp},
		{"startswith non-string", "startswith(f64, t)", verr.ReasonInvalidStringOp},
		{"string reduction", "sum(s == t)", verr.ReasonInvalidReduction},
		{"bare string output", `"abc"`, verr.ReasonStrOutput},
		{"complex min", "min(c64)", verr.ReasonComplexMinMax},
		{"complex max", "max(c64)", verr.ReasonComplexMinMax},
		{"shift on float", "f64 << i32", verr.ReasonInvalidOperand},
		{"bitwise on float", "f64 & f64", verr.ReasonInvalidOperand},
		{"mod on complex", "c64 % c64", verr.ReasonInvalidOperand},
		{"invert float", "~f64", verr.ReasonInvalidOperand},
		{"trailing junk", "f64 )", verr.ReasonExpectedExpr},
		{"empty input", "", verr.ReasonExpectedExpr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := parse(t, tt.src, numSymbols, dtype.Auto)
			if err == nil {
				t.Fatalf("parse(%q) succeeded, want %q error", tt.src, tt.reason)
			}
			if err.Reason != tt.reason {
				t.Errorf("parse(%q) reason = %q, want %q", tt.src, err.Reason, tt.reason)
			}
		})
	}
}

func TestNullaryCallForms(t *testing.T) {
	for _, src := range []string{"pi", "pi()", "e", "e()"} {
		root := mustParse(t, src, nil)
		if root.Dtype != dtype.F64 {
			t.Errorf("dtype of %q = %s, want F64", src, root.Dtype)
		}
	}
}

func TestArityOneNoParens(t *testing.T) {
	// arity-1 builtins take the next power expression without parens
	root := mustParse(t, "sqrt f64 + f64", numSymbols)
	if root.Op != ast.OpAdd {
		t.Fatalf("root op = %v, want OpAdd (sqrt binds only the first operand)", root.Op)
	}
	if root.Children[0].Op != ast.OpSqrt {
		t.Errorf("left child op = %v, want OpSqrt", root.Children[0].Op)
	}
}

func TestCommaList(t *testing.T) {
	root := mustParse(t, "(f64, i32)", numSymbols)
	if root.Op != ast.OpComma {
		t.Fatalf("root op = %v, want OpComma", root.Op)
	}
	if root.Dtype != dtype.I32 {
		t.Errorf("list dtype = %s, want I32 (the last element's)", root.Dtype)
	}
}

func TestUserFunctions(t *testing.T) {
	funcs := []ast.UserFunc{{Name: "scale2", Arity: 2, Index: 0}}
	s := lexer.NewScanner("scale2(f64, f64) + 1.0", dtype.Auto)
	toks, err := s.ScanTokens()
	if err != nil {
		t.Fatalf("scan failed: %v", err)
	}
	root, _, perr := NewParser(toks, numSymbols, funcs, dtype.Auto).Parse()
	if perr != nil {
		t.Fatalf("parse failed: %v", perr)
	}
	if root.Children[0].Kind != ast.KindClosure {
		t.Errorf("left child kind = %v, want KindClosure", root.Children[0].Kind)
	}
	if root.Children[0].Flags.Has(ast.FlagPure) {
		t.Error("closure node is flagged pure; closures must never fold")
	}
}

func TestHasStringFlag(t *testing.T) {
	root := mustParse(t, "s == t", numSymbols)
	if !root.HasString() {
		t.Error("HasString() = false for a string comparison")
	}
	root = mustParse(t, "f64 * i32", numSymbols)
	if root.HasString() {
		t.Error("HasString() = true for a numeric expression")
	}
}

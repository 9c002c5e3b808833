package fold

import (
	"math"
	"testing"

	"vexpr/dtype"
	"vexpr/internal/ast"
	"vexpr/internal/lexer"
	"vexpr/internal/parser"
)

func compileTree(t *testing.T, src string, symbols []ast.Symbol) *ast.Node {
	t.Helper()
	s := lexer.NewScanner(src, dtype.Auto)
	toks, err := s.ScanTokens()
	if err != nil {
		t.Fatalf("scan(%q) failed: %v", src, err)
	}
	root, _, perr := parser.NewParser(toks, symbols, nil, dtype.Auto).Parse()
	if perr != nil {
		t.Fatalf("parse(%q) failed: %v", src, perr)
	}
	return Fold(root)
}

var xf64 = []ast.Symbol{{Name: "x", Dtype: dtype.F64}}

func TestConstantFolding(t *testing.T) {
	tests := []struct {
		src   string
		want  float64
		dtype dtype.Dtype
	}{
		{"1 + 2", 3, dtype.I32},
		{"2 * 3 + 4", 10, dtype.I32},
		{"1.5 * 2.0", 3, dtype.F64},
		{"2 ** 10", 1024, dtype.I32},
		{"sqrt 16.0", 4, dtype.F64},
		{"pi * 2.0", 2 * math.Pi, dtype.F64},
		{"1 < 2", 1, dtype.Bool},
		{"7 / 2", 3, dtype.I32},
		{"7 / 0", 0, dtype.I32},
		{"7 % 0", 0, dtype.I32},
		{"7.0 / 2.0", 3.5, dtype.F64},
		{"-5", -5, dtype.I32},
		{"not 0", 1, dtype.Bool},
		{"1 and 1", 1, dtype.Bool},
		{`"abc" == "abc"`, 1, dtype.Bool},
		{`"abc" != "abd"`, 1, dtype.Bool},
		{`startswith("foobar", "foo")`, 1, dtype.Bool},
		{`endswith("foobar", "bar")`, 1, dtype.Bool},
		{`contains("foobar", "oba")`, 1, dtype.Bool},
		{`contains("foobar", "")`, 1, dtype.Bool},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			root := compileTree(t, tt.src, nil)
			if root.Kind != ast.KindConstant {
				t.Fatalf("fold(%q) kind = %v, want KindConstant", tt.src, root.Kind)
			}
			if root.ConstValue != tt.want {
				t.Errorf("fold(%q) = %v, want %v", tt.src, root.ConstValue, tt.want)
			}
			if root.Dtype != tt.dtype {
				t.Errorf("fold(%q) dtype = %s, want %s", tt.src, root.Dtype, tt.dtype)
			}
		})
	}
}

func countOps(n *ast.Node, op ast.OpKind) int {
	count := 0
	if n.Kind == ast.KindFunction && n.Op == op {
		count++
	}
	for _, c := range n.Children {
		count += countOps(c, op)
	}
	return count
}

func TestPowRewrites(t *testing.T) {
	// x**2 becomes x*x with no pow node left
	root := compileTree(t, "x ** 2", xf64)
	if got := countOps(root, ast.OpPow); got != 0 {
		t.Errorf("x**2 kept %d pow nodes, want 0", got)
	}
	if got := countOps(root, ast.OpMul); got != 1 {
		t.Errorf("x**2 has %d mul nodes, want 1", got)
	}

	// x**3 becomes (x*x)*x
	root = compileTree(t, "x ** 3", xf64)
	if got := countOps(root, ast.OpPow); got != 0 {
		t.Errorf("x**3 kept %d pow nodes, want 0", got)
	}
	if got := countOps(root, ast.OpMul); got != 2 {
		t.Errorf("x**3 has %d mul nodes, want 2", got)
	}

	// other exponents keep pow
	root = compileTree(t, "x ** 4", xf64)
	if got := countOps(root, ast.OpPow); got != 1 {
		t.Errorf("x**4 has %d pow nodes, want 1", got)
	}
}

func TestNonConstantNotFolded(t *testing.T) {
	root := compileTree(t, "x + 1", xf64)
	if root.Kind == ast.KindConstant {
		t.Fatal("x + 1 folded to a constant")
	}
}

func TestReductionsNeverFolded(t *testing.T) {
	// sum's argument is constant but the reduction is not pure
	root := compileTree(t, "sum 3", xf64)
	if root.Kind == ast.KindConstant {
		t.Fatal("sum over a constant folded; reductions must not fold")
	}
	if root.Op != ast.OpSum {
		t.Fatalf("root op = %v, want OpSum", root.Op)
	}
}

func TestFoldPreservesVariables(t *testing.T) {
	// the constant half folds, the variable half survives
	root := compileTree(t, "x * (2 + 3)", xf64)
	if root.Op != ast.OpMul {
		t.Fatalf("root op = %v, want OpMul", root.Op)
	}
	rhs := root.Children[1]
	if rhs.Kind != ast.KindConstant || rhs.ConstValue != 5 {
		t.Errorf("rhs = kind %v value %v, want folded constant 5", rhs.Kind, rhs.ConstValue)
	}
}

package vexpr

import (
	"context"
	"sync"
	"testing"

	"vexpr/dtype"
)

// One compiled expression, many goroutines, disjoint blocks: results
// must match the single-threaded evaluation bit for bit.
func TestConcurrentEvaluateSameExpr(t *testing.T) {
	const (
		nBlocks   = 16
		blockSize = 512
	)
	symbols := []Symbol{
		{Name: "a", Dtype: dtype.F64},
		{Name: "b", Dtype: dtype.F64},
	}
	e := mustCompile(t, "sqrt(a*a + b*b)", symbols, dtype.Auto)

	a := make([][]float64, nBlocks)
	b := make([][]float64, nBlocks)
	want := make([][]float64, nBlocks)
	blocks := make([]Block, nBlocks)
	got := make([][]float64, nBlocks)
	for i := range blocks {
		a[i] = make([]float64, blockSize)
		b[i] = make([]float64, blockSize)
		for j := range a[i] {
			a[i][j] = float64(i*blockSize+j) * 0.5
			b[i][j] = float64(j) * 0.25
		}
		// reference result, computed single-threaded up front
		want[i] = make([]float64, blockSize)
		wantBytes := asBytes(want[i])
		if err := e.Evaluate([][]byte{asBytes(a[i]), asBytes(b[i])}, wantBytes, blockSize, EvalParams{}); err != nil {
			t.Fatalf("reference Evaluate failed: %v", err)
		}

		got[i] = make([]float64, blockSize)
		blocks[i] = Block{
			Vars:   [][]byte{asBytes(a[i]), asBytes(b[i])},
			Output: asBytes(got[i]),
			Nitems: blockSize,
		}
	}

	if err := e.ConcurrentEvaluate(context.Background(), blocks, EvalParams{}, 8); err != nil {
		t.Fatalf("ConcurrentEvaluate failed: %v", err)
	}
	for i := range got {
		for j := range got[i] {
			if got[i][j] != want[i][j] {
				t.Fatalf("block %d element %d: concurrent %v != sequential %v", i, j, got[i][j], want[i][j])
			}
		}
	}
}

// Raw goroutines against one Expr, no helper: the documented contract.
func TestEvaluateConcurrencyRaw(t *testing.T) {
	symbols := []Symbol{{Name: "x", Dtype: dtype.I64}}
	e := mustCompile(t, "x*x + 1", symbols, dtype.Auto)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			x := make([]int64, 256)
			for i := range x {
				x[i] = seed + int64(i)
			}
			out := make([]int64, 256)
			if err := e.Evaluate([][]byte{asBytes(x)}, asBytes(out), 256, EvalParams{}); err != nil {
				t.Errorf("goroutine %d: Evaluate failed: %v", seed, err)
				return
			}
			for i := range out {
				if want := x[i]*x[i] + 1; out[i] != want {
					t.Errorf("goroutine %d: out[%d] = %d, want %d", seed, i, out[i], want)
					return
				}
			}
		}(int64(g * 1000))
	}
	wg.Wait()
}

// Deterministic outputs: repeated evaluation of one expression over the
// same inputs is bit-identical.
func TestEvaluateDeterministic(t *testing.T) {
	symbols := []Symbol{{Name: "x", Dtype: dtype.F32}}
	e := mustCompile(t, "sum(x * x)", symbols, dtype.Auto)
	x := make([]float32, 2000)
	for i := range x {
		x[i] = float32(i%17) * 0.125
	}
	first := make([]float32, 2000)
	if err := e.Evaluate([][]byte{asBytes(x)}, asBytes(first), 2000, EvalParams{}); err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	for round := 0; round < 3; round++ {
		again := make([]float32, 2000)
		if err := e.Evaluate([][]byte{asBytes(x)}, asBytes(again), 2000, EvalParams{}); err != nil {
			t.Fatalf("Evaluate failed: %v", err)
		}
		for i := range again {
			if again[i] != first[i] {
				t.Fatalf("round %d: out[%d] = %v, differs from first run %v", round, i, again[i], first[i])
			}
		}
	}
}

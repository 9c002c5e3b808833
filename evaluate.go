package vexpr

import (
	"github.com/pkg/errors"

	"vexpr/dtype"
	verr "vexpr/internal/errors"
	"vexpr/internal/eval"
)

// Evaluation error sentinels, compared with errors.Is. Evaluate wraps
// them with context at the failure site.
const (
	ErrNullExpr    = verr.ErrNullExpr
	ErrInvalidArg  = verr.ErrInvalidArg
	ErrVarMismatch = verr.ErrVarMismatch
	ErrTooManyVars = verr.ErrTooManyVars
	ErrOom         = verr.ErrOom
)

// EvalParams tunes one Evaluate call.
type EvalParams struct {
	// MemLimit caps the bytes of transient buffers one call may
	// allocate; 0 means unlimited. Exceeding it returns ErrOom.
	MemLimit int64
}

// Evaluate runs the compiled expression over one block of blockNitems
// elements. vars must line up with VarNames: vars[i] holds at least
// blockNitems elements of VarNames[i]'s declared dtype (itemSize bytes
// each for Str). output must hold blockNitems elements of Dtype().
// Buffers must be naturally aligned for their element type.
//
// Evaluate is safe to call concurrently on one Expr with disjoint
// variable and output blocks.
func (e *Expr) Evaluate(vars [][]byte, output []byte, blockNitems int32, params EvalParams) error {
	if e == nil || e.root == nil {
		return ErrNullExpr
	}
	if e.dtype == dtype.Str {
		return errors.Wrap(ErrInvalidArg, "expression output dtype is Str")
	}
	if output == nil || blockNitems < 0 {
		return errors.Wrap(ErrInvalidArg, "output block is nil or negative element count")
	}
	if len(e.VarNames) > MaxVars {
		return errors.Wrapf(ErrTooManyVars, "expression references %d variables, limit %d", len(e.VarNames), MaxVars)
	}
	if len(vars) != len(e.VarNames) {
		return errors.Wrapf(ErrVarMismatch, "got %d variable blocks, expression needs %d", len(vars), len(e.VarNames))
	}

	n := int(blockNitems)
	bindings := make([]eval.Binding, len(vars))
	for i, name := range e.VarNames {
		if vars[i] == nil && n > 0 {
			return errors.Wrap(ErrInvalidArg, "nil block for variable "+name)
		}
		sym := e.symbols[name]
		itemSize := sym.Dtype.ItemSize()
		if sym.Dtype == dtype.Str {
			itemSize = sym.ItemSize
		}
		if len(vars[i]) < n*itemSize {
			return errors.Wrapf(ErrInvalidArg, "block for variable %s holds %d bytes, need %d", name, len(vars[i]), n*itemSize)
		}
		bindings[i] = eval.Binding{Name: name, Dtype: sym.Dtype, ItemSize: itemSize, Data: vars[i]}
	}
	if len(output) < n*e.dtype.ItemSize() {
		return errors.Wrapf(ErrInvalidArg, "output block holds %d bytes, need %d", len(output), n*e.dtype.ItemSize())
	}
	if n == 0 {
		return nil
	}

	ws := eval.NewWorkspace(bindings, e.closures, params.MemLimit)
	return eval.Run(e.root, ws, output, n)
}

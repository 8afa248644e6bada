package nnls

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// ReferenceBackend is the host-CPU NNLS implementation: straight linear
// algebra via gonum's mat.Dense, tolerant of any (m,n,r) and deterministic.
type ReferenceBackend struct{}

// Solve implements Backend.
func (ReferenceBackend) Solve(ctx context.Context, v, w *mat.Dense, iters int, step float64) (*mat.Dense, error) {
	_, n, r, err := checkShapes(v, w)
	if err != nil {
		return nil, err
	}
	if r == 0 {
		return mat.NewDense(0, n, nil), nil
	}
	if n == 0 {
		return mat.NewDense(r, 0, nil), nil
	}

	h := mat.NewDense(r, n, nil) // H0 = 0, automatically feasible
	wt := w.T()

	var a mat.Dense // A = W*H - V, shape (m,n)
	var g mat.Dense // G = W^T * A, shape (r,n)

	for it := 0; it < iters; it++ {
		if ctx != nil && ctx.Err() != nil {
			return h, ctx.Err()
		}
		a.Mul(w, h)
		a.Sub(&a, v)
		g.Mul(wt, &a)
		g.Scale(step, &g)
		h.Sub(h, &g)
		clampNonNegative(h)
	}
	return h, nil
}

// Package nnls implements the non-negative least-squares solver (C5): given
// V (m,n) and W (m,r), find H (r,n), H >= 0, minimizing (1/2)||WH-V||_F^2 by
// projected gradient descent. The distributive update rule and its
// three-kernel factoring are ported from the original implementation's
// algebra.rs (cpu_pgd_nnls / pgd_nnls) — see ReferenceBackend and
// AcceleratedBackend.
package nnls

import (
	"context"
	"errors"
	"fmt"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"gonum.org/v1/gonum/mat"
)

// ErrShapeMismatch is returned when V's row count disagrees with W's row
// count; a programmer error per spec.md §7, fatal to the solve.
var ErrShapeMismatch = errors.New("nnls: shape mismatch between data and basis")

// ErrAccelerator wraps a failure in the simulated accelerated backend. The
// only failure AcceleratedBackend.Solve reports is a cancelled or expired
// context, checked before each iteration. Per spec.md §7 the solve never
// falls back to the reference backend on this error; it aborts and
// propagates it.
var ErrAccelerator = errors.New("nnls: accelerated backend failure")

// Backend is the uniform solve operation both NNLS implementations satisfy.
// Dispatch between them is explicit at the call site, not polymorphic
// inheritance (spec.md §9).
type Backend interface {
	Solve(ctx context.Context, v, w *mat.Dense, iters int, step float64) (*mat.Dense, error)
}

func checkShapes(v, w *mat.Dense) (m, n, r int, err error) {
	m, n = v.Dims()
	m2, r := w.Dims()
	if m != m2 {
		return 0, 0, 0, fmt.Errorf("%w: data has %d rows, basis has %d", ErrShapeMismatch, m, m2)
	}
	return m, n, r, nil
}

// clampNonNegative projects h onto the non-negative orthant in place,
// flushing denormals the way the teacher's tight per-sample filters do
// (algo-dsp/dsp/core.FlushDenormals in piano/resonance.go).
func clampNonNegative(h *mat.Dense) {
	r, c := h.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := h.At(i, j)
			if v < 0 {
				v = 0
			}
			h.Set(i, j, dspcore.FlushDenormals(v))
		}
	}
}

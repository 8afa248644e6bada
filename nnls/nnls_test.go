package nnls_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/caeklol/sample-palette/nnls"
)

// solveAll runs every backend under test against the same (v, w) pair and
// fails the test if any backend returns an error.
func solveAll(t *testing.T, v, w *mat.Dense, iters int, step float64) map[string]*mat.Dense {
	t.Helper()
	backends := map[string]nnls.Backend{
		"reference":   nnls.ReferenceBackend{},
		"accelerated": nnls.AcceleratedBackend{Workers: 2},
	}
	out := make(map[string]*mat.Dense, len(backends))
	for name, b := range backends {
		h, err := b.Solve(context.Background(), v, w, iters, step)
		if err != nil {
			t.Fatalf("%s backend: %v", name, err)
		}
		out[name] = h
	}
	return out
}

func TestSolveShapeMismatch(t *testing.T) {
	v := mat.NewDense(3, 2, nil)
	w := mat.NewDense(4, 2, nil)
	_, err := nnls.ReferenceBackend{}.Solve(context.Background(), v, w, 10, 1e-3)
	if !errors.Is(err, nnls.ErrShapeMismatch) {
		t.Fatalf("err = %v, want ErrShapeMismatch", err)
	}
}

func TestSolveZeroBasisColumns(t *testing.T) {
	v := mat.NewDense(3, 2, nil)
	w := mat.NewDense(3, 0, nil)
	h, err := nnls.ReferenceBackend{}.Solve(context.Background(), v, w, 10, 1e-3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, n := h.Dims()
	if r != 0 || n != 2 {
		t.Fatalf("dims = (%d,%d), want (0,2)", r, n)
	}
}

func TestSolveExactRecoveryOfIdentityBasis(t *testing.T) {
	// W is the 3x3 identity; any non-negative V is already a feasible exact
	// solution with H = V, so PGD should converge close to it.
	w := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, 1,
	})
	v := mat.NewDense(3, 1, []float64{0.5, 0.25, 0.75})

	for name, h := range solveAll(t, v, w, 2000, 0.4) {
		for i := 0; i < 3; i++ {
			got := h.At(i, 0)
			want := v.At(i, 0)
			if math.Abs(got-want) > 1e-2 {
				t.Fatalf("%s: H[%d] = %v, want ~%v", name, i, got, want)
			}
		}
	}
}

func TestSolveNonNegativeOutput(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, -1, -1, 1})
	v := mat.NewDense(2, 1, []float64{1, -1})
	for name, h := range solveAll(t, v, w, 500, 0.1) {
		r, c := h.Dims()
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if h.At(i, j) < 0 {
					t.Fatalf("%s: H[%d][%d] = %v, want >= 0", name, i, j, h.At(i, j))
				}
			}
		}
	}
}

func TestBackendsAgreeWithinTolerance(t *testing.T) {
	w := mat.NewDense(4, 2, []float64{
		1, 0,
		0, 1,
		0.5, 0.5,
		0.25, 0.75,
	})
	v := mat.NewDense(4, 3, []float64{
		1, 0, 0.5,
		0, 1, 0.5,
		0.5, 0.5, 0.5,
		0.5, 0.5, 0.5,
	})
	out := solveAll(t, v, w, 500, 0.05)
	ref := out["reference"]
	acc := out["accelerated"]
	r, c := ref.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			d := math.Abs(ref.At(i, j) - acc.At(i, j))
			if d > 1e-7 {
				t.Fatalf("backend disagreement at [%d][%d]: reference=%v accelerated=%v", i, j, ref.At(i, j), acc.At(i, j))
			}
		}
	}
}

func TestSolveRespectsCancellation(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	v := mat.NewDense(2, 1, []float64{1, 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := nnls.ReferenceBackend{}.Solve(ctx, v, w, 100, 0.1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestAcceleratedRespectsCancellation(t *testing.T) {
	w := mat.NewDense(2, 2, []float64{1, 0, 0, 1})
	v := mat.NewDense(2, 1, []float64{1, 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := nnls.AcceleratedBackend{}.Solve(ctx, v, w, 100, 0.1)
	if !errors.Is(err, nnls.ErrAccelerator) {
		t.Fatalf("err = %v, want ErrAccelerator", err)
	}
}

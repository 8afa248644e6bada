package nnls

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	dspcore "github.com/cwbudde/algo-dsp/dsp/core"
	"gonum.org/v1/gonum/mat"
)

// AcceleratedBackend simulates the offload-device backend spec.md §4.5
// requires: three kernels (k_gemm_WH_minus_V, k_gemm_WtA, k_update_H) with a
// device barrier between them, one iteration in flight at a time, and
// buffers allocated once per solve. No example in the retrieval pack
// imports a real GPU/OpenCL/WebGPU binding, so the "device" here is a fixed
// worker-goroutine pool partitioning each kernel's output rows, synchronized
// with sync.WaitGroup between kernels — grounded on the same worker-pool
// idiom the teacher uses for its optimization rounds
// (cmd/piano-fit-fast/optimize.go). See DESIGN.md for the tradeoff.
type AcceleratedBackend struct {
	// Workers bounds the kernel-dispatch goroutine pool. 0 uses
	// runtime.GOMAXPROCS(0).
	Workers int
}

func (b AcceleratedBackend) workers() int {
	if b.Workers > 0 {
		return b.Workers
	}
	w := runtime.GOMAXPROCS(0)
	if w < 1 {
		w = 1
	}
	return w
}

// Solve implements Backend.
func (b AcceleratedBackend) Solve(ctx context.Context, v, w *mat.Dense, iters int, step float64) (*mat.Dense, error) {
	m, n, r, err := checkShapes(v, w)
	if err != nil {
		return nil, err
	}
	if r == 0 {
		return mat.NewDense(0, n, nil), nil
	}
	if n == 0 {
		return mat.NewDense(r, 0, nil), nil
	}

	// Buffers allocated once per solve: W (read-only), W^T (read-only,
	// precomputed on host), V (read-only), H, A, G.
	h := mat.NewDense(r, n, nil)
	a := mat.NewDense(m, n, nil)
	g := mat.NewDense(r, n, nil)
	wt := mat.DenseCopyOf(w.T())

	for it := 0; it < iters; it++ {
		if ctx != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrAccelerator, ctx.Err())
		}

		if err := b.kernelGemmWHMinusV(m, n, r, w, h, v, a); err != nil {
			return nil, err
		}
		// device barrier: every worker's A rows are visible before G starts.
		if err := b.kernelGemmWtA(r, n, m, wt, a, g); err != nil {
			return nil, err
		}
		// device barrier: every worker's G rows are visible before the
		// update kernel reads them.
		if err := b.kernelUpdateH(r, n, h, g, step); err != nil {
			return nil, err
		}
		// device barrier: H must be fully updated before next iteration's
		// k_gemm_WH_minus_V reads it. Only one iteration is in flight.
	}
	return h, nil
}

// kernelGemmWHMinusV computes A = W*H - V, partitioned by output row.
func (b AcceleratedBackend) kernelGemmWHMinusV(m, n, r int, w, h, v, a *mat.Dense) error {
	return b.parallelRows(m, func(i int) {
		wRow := w.RawRowView(i)
		vRow := v.RawRowView(i)
		aRow := a.RawRowView(i)
		for k := 0; k < n; k++ {
			var sum float64
			for j := 0; j < r; j++ {
				sum += wRow[j] * h.At(j, k)
			}
			aRow[k] = sum - vRow[k]
		}
	})
}

// kernelGemmWtA computes G = W^T * A, partitioned by output row.
func (b AcceleratedBackend) kernelGemmWtA(r, n, m int, wt, a, g *mat.Dense) error {
	return b.parallelRows(r, func(j int) {
		wtRow := wt.RawRowView(j) // row j of W^T == column j of W, length m
		gRow := g.RawRowView(j)
		for k := 0; k < n; k++ {
			var sum float64
			for i := 0; i < m; i++ {
				sum += wtRow[i] * a.At(i, k)
			}
			gRow[k] = sum
		}
	})
}

// kernelUpdateH computes H <- max(0, H - step*G), partitioned by row.
func (b AcceleratedBackend) kernelUpdateH(r, n int, h, g *mat.Dense, step float64) error {
	return b.parallelRows(r, func(j int) {
		hRow := h.RawRowView(j)
		gRow := g.RawRowView(j)
		for k := 0; k < n; k++ {
			v := hRow[k] - step*gRow[k]
			if v < 0 {
				v = 0
			}
			hRow[k] = dspcore.FlushDenormals(v)
		}
	})
}

// parallelRows runs fn(i) for i in [0,rows) across the worker pool and
// waits for every worker to finish: the explicit device barrier.
func (b AcceleratedBackend) parallelRows(rows int, fn func(i int)) error {
	workers := b.workers()
	if workers > rows {
		workers = rows
	}
	if workers < 1 {
		return nil
	}

	chunk := (rows + workers - 1) / workers
	var wg sync.WaitGroup
	for wkr := 0; wkr < workers; wkr++ {
		start := wkr * chunk
		end := start + chunk
		if start >= rows {
			break
		}
		if end > rows {
			end = rows
		}
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				fn(i)
			}
		}(start, end)
	}
	wg.Wait()
	return nil
}

// Package matrix implements the row-major 2-D array helpers (C4): building
// a matrix from equal-length rows, global/[-1,1] normalization, epsilon
// thresholding, decimal rounding, and gamma (dynamic-range) reshaping. It
// has no transpose helper of its own; callers use mat.Dense's T view. Matrices are represented with gonum's mat.Dense, the same
// library the retrieval pack uses elsewhere for real-valued dense linear
// algebra (austinkregel-vscode-music-player, haivivi-giztoy both pull
// gonum.org/v1/gonum).
package matrix

import (
	"errors"
	"math"

	"github.com/cwbudde/algo-approx"
	"gonum.org/v1/gonum/mat"
)

// ErrRaggedRows is returned by FromRows when input rows have differing
// lengths.
var ErrRaggedRows = errors.New("matrix: ragged rows")

// FromRows materializes a row-major matrix from equal-length rows. An empty
// input returns a (0,0) matrix.
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 {
		return &mat.Dense{}, nil
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for _, r := range rows {
		if len(r) != cols {
			return nil, ErrRaggedRows
		}
		flat = append(flat, r...)
	}
	return mat.NewDense(len(rows), cols, flat), nil
}

// NormalizeToGlobal divides every element of a by max(a), in place. A no-op
// when max(a) <= 0.
func NormalizeToGlobal(a *mat.Dense) {
	r, c := a.Dims()
	max := math.Inf(-1)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := a.At(i, j); v > max {
				max = v
			}
		}
	}
	if max <= 0 {
		return
	}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.Set(i, j, a.At(i, j)/max)
		}
	}
}

// NormalizePMOne rescales a to [-1, 1] in place using its observed min/max.
// When the range is zero (or inverted), every entry is set to 0.
func NormalizePMOne(a *mat.Dense) {
	r, c := a.Dims()
	min, max := math.Inf(1), math.Inf(-1)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if v < min {
				min = v
			}
			if v > max {
				max = v
			}
		}
	}
	rng := max - min
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if rng > 0 {
				a.Set(i, j, 2*(a.At(i, j)-min)/rng-1)
			} else {
				a.Set(i, j, 0)
			}
		}
	}
}

// ApplyEpsilon zeroes every entry of a strictly below eps, in place.
func ApplyEpsilon(a *mat.Dense, eps float64) {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if a.At(i, j) < eps {
				a.Set(i, j, 0)
			}
		}
	}
}

// RoundTo rounds every entry of a to d decimal digits, in place. Used only
// in tests, per spec.md §4.4.
func RoundTo(a *mat.Dense, d int) {
	scale := math.Pow(10, float64(d))
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.Set(i, j, math.Round(a.At(i, j)*scale)/scale)
		}
	}
}

// DynamicRange raises every non-negative entry of a to the gamma power, in
// place, computed as exp(gamma*ln(x)) via algo-approx's fast exponential —
// the same exp-of-scaled-log idiom the teacher uses for its amplitude decay
// curves (piano/voice.go). Entries <= 0 map to 0. Ported from the original
// implementation's algebra.rs dynamic_range, which spec.md's distillation
// dropped.
func DynamicRange(a *mat.Dense, gamma float64) {
	r, c := a.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := a.At(i, j)
			if v <= 0 {
				a.Set(i, j, 0)
				continue
			}
			lnv := math.Log(v)
			a.Set(i, j, float64(approx.FastExp(float32(gamma*lnv))))
		}
	}
}

package matrix_test

import (
	"errors"
	"math"
	"testing"

	"github.com/caeklol/sample-palette/matrix"
)

func TestFromRowsRagged(t *testing.T) {
	_, err := matrix.FromRows([][]float64{{1, 2}, {1}})
	if !errors.Is(err, matrix.ErrRaggedRows) {
		t.Fatalf("err = %v, want ErrRaggedRows", err)
	}
}

func TestFromRowsEmpty(t *testing.T) {
	a, err := matrix.FromRows(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r, c := a.Dims()
	if r != 0 || c != 0 {
		t.Fatalf("dims = (%d,%d), want (0,0)", r, c)
	}
}

func TestNormalizeToGlobal(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{1, 2}, {3, 4}})
	matrix.NormalizeToGlobal(a)
	if a.At(1, 1) != 1.0 {
		t.Fatalf("max element = %v, want 1.0", a.At(1, 1))
	}
	if a.At(0, 0) != 0.25 {
		t.Fatalf("a[0][0] = %v, want 0.25", a.At(0, 0))
	}
}

func TestNormalizeToGlobalNonPositiveIsNoop(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{-1, -2}, {0, -3}})
	matrix.NormalizeToGlobal(a)
	if a.At(0, 0) != -1 || a.At(1, 1) != -3 {
		t.Fatalf("expected no-op on non-positive max, got %v %v", a.At(0, 0), a.At(1, 1))
	}
}

func TestNormalizePMOne(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{0, 5}, {10, 2.5}})
	matrix.NormalizePMOne(a)
	if a.At(0, 0) != -1 {
		t.Fatalf("min entry = %v, want -1", a.At(0, 0))
	}
	if a.At(1, 0) != 1 {
		t.Fatalf("max entry = %v, want 1", a.At(1, 0))
	}
}

func TestApplyEpsilon(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{1e-7, 1}})
	matrix.ApplyEpsilon(a, 1e-5)
	if a.At(0, 0) != 0 {
		t.Fatalf("below-epsilon entry = %v, want 0", a.At(0, 0))
	}
	if a.At(0, 1) != 1 {
		t.Fatalf("above-epsilon entry changed: %v", a.At(0, 1))
	}
}

func TestRoundTo(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{0.123456}})
	matrix.RoundTo(a, 2)
	if a.At(0, 0) != 0.12 {
		t.Fatalf("rounded = %v, want 0.12", a.At(0, 0))
	}
}

func TestDynamicRangeZeroAndNegativeMapToZero(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{0, -1, 4}})
	matrix.DynamicRange(a, 0.5)
	if a.At(0, 0) != 0 || a.At(0, 1) != 0 {
		t.Fatalf("non-positive entries should map to 0, got %v %v", a.At(0, 0), a.At(0, 1))
	}
	if math.Abs(a.At(0, 2)-2) > 0.05 {
		t.Fatalf("4^0.5 ~= %v, want ~2 (within fast-exp tolerance)", a.At(0, 2))
	}
}

func TestDynamicRangeUnityGammaIsApproximatelyIdentity(t *testing.T) {
	a, _ := matrix.FromRows([][]float64{{3.5}})
	matrix.DynamicRange(a, 1.0)
	if math.Abs(a.At(0, 0)-3.5) > 0.05 {
		t.Fatalf("gamma=1 should be ~identity, got %v", a.At(0, 0))
	}
}

package testutil

import (
	"math"
	"testing"
)

// RequireBounded fails t if any element is non-finite or its magnitude
// exceeds limit.
func RequireBounded(t *testing.T, data []float32, limit float64) {
	t.Helper()
	for i, v := range data {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > limit {
			t.Fatalf("index %d: value %v outside [-%v, %v]", i, v, limit, limit)
		}
	}
}

// RequireFloat32Equal fails t unless got and want are bit-for-bit equal.
func RequireFloat32Equal(t *testing.T, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if math.Float32bits(got[i]) != math.Float32bits(want[i]) {
			t.Fatalf("index %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

// RequireSliceNearlyEqual fails t at the first element pair that differs
// by more than eps.
func RequireSliceNearlyEqual(t *testing.T, got, want []float64, eps float64) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	for i := range got {
		if d := math.Abs(got[i] - want[i]); d > eps || math.IsNaN(d) {
			t.Fatalf("index %d: got %v, want %v (diff %v > %v)", i, got[i], want[i], d, eps)
		}
	}
}

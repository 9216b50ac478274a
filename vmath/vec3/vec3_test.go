package vec3

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestArithmetic(t *testing.T) {
	a := T{1, 2, 3}
	b := T{4, 5, 6}

	if got, want := AddVV(a, b), (T{5, 7, 9}); got != want {
		t.Errorf("AddVV: got %v, want %v", got, want)
	}
	if got, want := SubVV(b, a), (T{3, 3, 3}); got != want {
		t.Errorf("SubVV: got %v, want %v", got, want)
	}
	if got, want := MulVS(a, 2), (T{2, 4, 6}); got != want {
		t.Errorf("MulVS: got %v, want %v", got, want)
	}
	if got, want := DivVS(b, 2), (T{2, 2.5, 3}); got != want {
		t.Errorf("DivVS: got %v, want %v", got, want)
	}
	if got, want := IProd(a, b), 32.0; got != want {
		t.Errorf("IProd: got %v, want %v", got, want)
	}
}

func TestCProdIsRightHanded(t *testing.T) {
	if got, want := CProd(T{1, 0, 0}, T{0, 1, 0}), (T{0, 0, 1}); got != want {
		t.Errorf("x cross y: got %v, want %v", got, want)
	}
	if got, want := CProd(T{0, 1, 0}, T{0, 0, 1}), (T{1, 0, 0}); got != want {
		t.Errorf("y cross z: got %v, want %v", got, want)
	}
	if got, want := CProd(T{0, 1, 0}, T{1, 0, 0}), (T{0, 0, -1}); got != want {
		t.Errorf("y cross x: got %v, want %v", got, want)
	}
}

func TestNormalize(t *testing.T) {
	got := Normalize(T{3, 0, 4})
	if diff := cmp.Diff(got, T{0.6, 0, 0.8}, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("Bad normalization; diff (-got +want)\n%s", diff)
	}
	if n := got.Norm(); math.Abs(n-1) > 1e-12 {
		t.Errorf("Normalized norm is %v, want 1", n)
	}
}

func TestNormalizeZeroVector(t *testing.T) {
	got := Normalize(T{})
	for i := 0; i < 3; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("Normalize(0)[%d] = %v, want NaN", i, got[i])
		}
	}

	if _, err := NormalizeChecked(T{}); !errors.Is(err, ErrZeroVector) {
		t.Errorf("NormalizeChecked(0) error = %v, want ErrZeroVector", err)
	}

	v, err := NormalizeChecked(T{0, -2, 0})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v != (T{0, -1, 0}) {
		t.Errorf("NormalizeChecked: got %v, want %v", v, T{0, -1, 0})
	}
}

func TestReject(t *testing.T) {
	got := Reject(T{1, 0, 0}, T{3, 4, 5})
	if want := (T{0, 4, 5}); got != want {
		t.Errorf("Reject: got %v, want %v", got, want)
	}
	if d := Distance(T{0, -2, 0}, T{2, 0, 0}); math.Abs(d-2*math.Sqrt2) > 1e-12 {
		t.Errorf("Distance: got %v, want %v", d, 2*math.Sqrt2)
	}
}

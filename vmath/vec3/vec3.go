// Package vec3 holds three-component vectors.
//
// The same type is used for absolute positions and for free directions;
// callers track which is which.
package vec3

import (
	"errors"
	"math"
)

// ErrZeroVector is returned by NormalizeChecked when asked to normalize a
// vector of zero length.
var ErrZeroVector = errors.New("cannot normalize zero-length vector")

type T [3]float64

func (v T) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

// Normalize scales v to unit length.
//
// A zero vector normalizes to NaN in every component.  Use NormalizeChecked
// when the input comes from configuration rather than geometry.
func Normalize(v T) T {
	return DivVS(v, v.Norm())
}

// NormalizeChecked is Normalize, but fails on a zero or non-finite norm.
func NormalizeChecked(v T) (T, error) {
	l := v.Norm()
	if l == 0 || math.IsNaN(l) || math.IsInf(l, 0) {
		return T{}, ErrZeroVector
	}
	return DivVS(v, l), nil
}

func AddVV(a, b T) T {
	return T{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func SubVV(a, b T) T {
	return T{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func MulVS(a T, b float64) T {
	return T{a[0] * b, a[1] * b, a[2] * b}
}

func DivVS(a T, b float64) T {
	return T{a[0] / b, a[1] / b, a[2] / b}
}

// IProd is the scalar (inner) product.
func IProd(a, b T) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

// CProd is the right-handed vector (cross) product.
func CProd(a, b T) T {
	return T{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Reject returns the component of b orthogonal to the unit vector n.
func Reject(n, b T) T {
	return SubVV(b, MulVS(n, IProd(n, b)))
}

// Distance is the Euclidean distance between two points.
func Distance(a, b T) float64 {
	return SubVV(a, b).Norm()
}

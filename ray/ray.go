package ray

import (
	"fmt"

	"raycaster/vmath/vec3"
)

// Ray is a half-line.  Slope always has unit length.
type Ray struct {
	Point vec3.T
	Slope vec3.T
}

// New builds a ray from an origin and a (not necessarily unit) direction.
//
// A zero direction produces NaN slope components; see vec3.Normalize.
func New(point, direction vec3.T) Ray {
	return Ray{
		Point: point,
		Slope: vec3.Normalize(direction),
	}
}

// FromPoints builds the ray starting at from and passing through to.
func FromPoints(from, to vec3.T) Ray {
	return New(from, vec3.SubVV(to, from))
}

// FromPointsChecked is FromPoints, but fails if from and to coincide.
func FromPointsChecked(from, to vec3.T) (Ray, error) {
	slope, err := vec3.NormalizeChecked(vec3.SubVV(to, from))
	if err != nil {
		return Ray{}, fmt.Errorf("while building ray from %v to %v: %w", from, to, err)
	}
	return Ray{Point: from, Slope: slope}, nil
}

func (r *Ray) Eval(t float64) vec3.T {
	return vec3.T{
		r.Point[0] + t*r.Slope[0],
		r.Point[1] + t*r.Slope[1],
		r.Point[2] + t*r.Slope[2],
	}
}

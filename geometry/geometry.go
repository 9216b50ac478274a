package geometry

import (
	"errors"
	"fmt"
	"math"

	"raycaster/contact"
	"raycaster/material"
	"raycaster/ray"
	"raycaster/vmath/vec3"
)

var ErrBadRadius = errors.New("sphere radius must be positive")

// Geometry is anything a ray can hit.
type Geometry interface {
	// ClosestIntersection returns the nearest contact of r with the object,
	// and false if there is none.
	ClosestIntersection(r ray.Ray) (contact.Contact, bool)
}

type Sphere struct {
	Center   vec3.T
	Radius   float64
	Material material.Phong
}

// NewSphere validates its arguments and builds a Sphere.
func NewSphere(center vec3.T, radius float64, m material.Phong) (*Sphere, error) {
	if !(radius > 0) || math.IsInf(radius, 1) {
		return nil, fmt.Errorf("%w: got %v", ErrBadRadius, radius)
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("while validating sphere material: %w", err)
	}
	return &Sphere{
		Center:   center,
		Radius:   radius,
		Material: m,
	}, nil
}

// ClosestIntersection finds the entry point of r into the sphere.
//
// A sphere whose center projects behind the ray origin is always a miss,
// even when the origin lies inside the sphere.  Tangent rays are misses, as
// are rays with NaN slopes.
func (s *Sphere) ClosestIntersection(r ray.Ray) (contact.Contact, bool) {
	d := vec3.SubVV(s.Center, r.Point)

	b := vec3.IProd(d, r.Slope)
	if !(b > 0) {
		return contact.Contact{}, false
	}

	c := vec3.IProd(d, d) - s.Radius*s.Radius
	disc := b*b - c
	if !(disc > 0) {
		return contact.Contact{}, false
	}

	t := b - math.Sqrt(disc)
	p := r.Eval(t)

	return contact.Contact{
		T:        vec3.Distance(r.Point, p),
		P:        p,
		N:        vec3.Normalize(vec3.DivVS(vec3.SubVV(p, s.Center), 2)),
		Outer:    true,
		Material: &s.Material,
	}, true
}

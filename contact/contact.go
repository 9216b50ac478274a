package contact

import (
	"raycaster/material"
	"raycaster/vmath/vec3"
)

// Contact is the point where a ray meets a surface.
//
// Material is borrowed from the object that produced the contact.  It must
// not be retained past the shading of a single pixel.
type Contact struct {
	// Distance from the ray's origin to P.
	T float64

	P vec3.T

	// Outward unit normal at P.
	N vec3.T

	// Outer is true when the ray enters the surface from outside.
	Outer bool

	Material *material.Phong
}

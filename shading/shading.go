// Package shading evaluates a local Phong model with hard shadows.
//
// There are no secondary bounces: each light contributes diffuse and
// specular terms unless some object lies between it and the point.
package shading

import (
	"math"

	"raycaster/contact"
	"raycaster/ray"
	"raycaster/rgb"
	"raycaster/scene"
	"raycaster/vmath/vec3"
)

// Ambient is the floor added to every lit surface point.
var Ambient = rgb.Gray(15)

// ShadowEpsilon is the distance below which a shadow-ray hit counts as the
// shaded point itself.
const ShadowEpsilon = 1e-12

// Trace returns the colour seen along r, black on a miss.  The result is not
// clamped.
func Trace(s *scene.Scene, r ray.Ray, eye vec3.T) rgb.T {
	c, idx := s.ClosestIntersection(r)
	if idx == -1 {
		return rgb.T{}
	}
	return Shade(s, c, eye)
}

// Shade evaluates the colour at contact c as seen from eye.
func Shade(s *scene.Scene, c contact.Contact, eye vec3.T) rgb.T {
	result := Ambient
	mtl := c.Material

	for _, l := range s.Lights {
		if shadowed(s, l.Position, c.P) {
			continue
		}

		n := c.N
		toLight := vec3.Normalize(vec3.SubVV(l.Position, c.P))
		reflected := vec3.Normalize(vec3.SubVV(vec3.MulVS(n, 2*vec3.IProd(n, toLight)), toLight))
		toEye := vec3.Normalize(vec3.SubVV(eye, c.P))

		ln := math.Max(vec3.IProd(toLight, n), 0)
		rv := math.Max(vec3.IProd(reflected, toEye), 0)
		spec := math.Pow(rv, mtl.Exponent)

		result = rgb.AddCC(result, rgb.MulCS(rgb.MulCC(l.Intensity, mtl.Diffuse), ln))
		result = rgb.AddCC(result, rgb.MulCS(rgb.MulCC(l.Intensity, mtl.Specular), spec))
	}

	return result
}

// shadowed reports whether some surface lies strictly between the light and
// p along the ray from the light.
func shadowed(s *scene.Scene, lightPos, p vec3.T) bool {
	shadowRay := ray.FromPoints(lightPos, p)
	blocker, idx := s.ClosestIntersection(shadowRay)
	if idx == -1 {
		return false
	}

	lightDist := vec3.Distance(lightPos, p)
	return blocker.T < lightDist && math.Abs(blocker.T-lightDist) > ShadowEpsilon
}

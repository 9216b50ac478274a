// Package material describes surface reflectance for the Phong model.
package material

import (
	"errors"
	"fmt"

	"raycaster/rgb"
)

var ErrBadCoefficient = errors.New("material coefficient out of range")

// Phong holds per-channel reflectance weights.
type Phong struct {
	// Diffuse reflectance (kd) for red, green, blue.  Each in [0, 1].
	Diffuse rgb.T

	// Specular reflectance (kr) for red, green, blue.  Each in [0, 1].
	Specular rgb.T

	// Specular exponent (krn).  Positive.
	Exponent float64
}

// Uniform returns a material with every coefficient, including the
// exponent, set to k.
func Uniform(k float64) Phong {
	return Phong{
		Diffuse:  rgb.Gray(k),
		Specular: rgb.Gray(k),
		Exponent: k,
	}
}

func (p *Phong) Validate() error {
	names := [3]string{"red", "green", "blue"}
	for i := 0; i < 3; i++ {
		if !(p.Diffuse[i] >= 0 && p.Diffuse[i] <= 1) {
			return fmt.Errorf("%w: diffuse %s = %v, want [0, 1]", ErrBadCoefficient, names[i], p.Diffuse[i])
		}
		if !(p.Specular[i] >= 0 && p.Specular[i] <= 1) {
			return fmt.Errorf("%w: specular %s = %v, want [0, 1]", ErrBadCoefficient, names[i], p.Specular[i])
		}
	}
	if !(p.Exponent > 0) {
		return fmt.Errorf("%w: exponent = %v, want > 0", ErrBadCoefficient, p.Exponent)
	}
	return nil
}

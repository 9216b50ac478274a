// Package rgb holds unclamped floating-point colour triples.
package rgb

import "math"

// T is a red, green, blue triple on the 0-255 scale.  Components may exceed
// 255 until they are quantized.
type T [3]float64

func AddCC(a, b T) T {
	return T{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

// MulCC multiplies componentwise.
func MulCC(a, b T) T {
	return T{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func MulCS(a T, s float64) T {
	return T{a[0] * s, a[1] * s, a[2] * s}
}

// Gray returns a triple with every channel set to v.
func Gray(v float64) T {
	return T{v, v, v}
}

// Quantize clamps v into [0, 255] and truncates it toward zero.  NaN
// quantizes to 0.
func Quantize(v float64) uint8 {
	switch {
	case math.IsNaN(v) || v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(v)
}

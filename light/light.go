package light

import (
	"errors"
	"fmt"

	"raycaster/rgb"
	"raycaster/vmath/vec3"
)

var ErrNegativeIntensity = errors.New("light intensity must be non-negative")

// Point is a point light source.  Intensity is on the same 0-255 scale as
// pixel values and may exceed it.
type Point struct {
	Position  vec3.T
	Intensity rgb.T
}

func (p *Point) Validate() error {
	for i := 0; i < 3; i++ {
		if !(p.Intensity[i] >= 0) {
			return fmt.Errorf("%w: channel %d = %v", ErrNegativeIntensity, i, p.Intensity[i])
		}
	}
	return nil
}

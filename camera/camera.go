package camera

import (
	"errors"
	"fmt"
	"math"

	"raycaster/ray"
	"raycaster/vmath/vec3"
)

// ErrDegenerateGeometry marks camera parameters that cannot define a view.
var ErrDegenerateGeometry = errors.New("degenerate camera geometry")

// Params describes a view.  Horizontal and Vertical are the extents of the
// view plane in world units; Width and Height are the pixel grid.
type Params struct {
	Eye    vec3.T
	View   vec3.T
	ViewUp vec3.T

	Horizontal float64
	Vertical   float64

	Width  int
	Height int
}

// Camera maps pixel coordinates to primary rays.  It is immutable and safe
// for concurrent use.
type Camera struct {
	params Params

	xAxis        vec3.T
	yAxis        vec3.T
	screenCorner vec3.T
}

// New derives the view-plane basis from p.  All validation happens here, so
// a render never discovers a bad configuration halfway through.
func New(p Params) (*Camera, error) {
	if p.Width < 2 || p.Height < 2 {
		return nil, fmt.Errorf("%w: image must be at least 2x2 pixels, got %dx%d", ErrDegenerateGeometry, p.Width, p.Height)
	}
	if !isPositive(p.Horizontal) || !isPositive(p.Vertical) {
		return nil, fmt.Errorf("%w: view extents must be positive, got %v x %v", ErrDegenerateGeometry, p.Horizontal, p.Vertical)
	}

	forward, err := vec3.NormalizeChecked(vec3.SubVV(p.View, p.Eye))
	if err != nil {
		return nil, fmt.Errorf("%w: eye and view coincide: %w", ErrDegenerateGeometry, err)
	}

	// A nearly parallel up vector rejects down to rounding noise, which would
	// normalize to an arbitrary axis.
	up := vec3.Reject(forward, p.ViewUp)
	if !(up.Norm() > 1e-12*p.ViewUp.Norm()) {
		return nil, fmt.Errorf("%w: view-up %v is parallel to the view direction", ErrDegenerateGeometry, p.ViewUp)
	}
	yAxis := vec3.Normalize(up)

	xAxis := vec3.Normalize(vec3.CProd(forward, yAxis))

	screenCorner := vec3.AddVV(
		vec3.SubVV(p.View, vec3.MulVS(xAxis, p.Horizontal/2)),
		vec3.MulVS(yAxis, p.Vertical/2),
	)

	return &Camera{
		params:       p,
		xAxis:        xAxis,
		yAxis:        yAxis,
		screenCorner: screenCorner,
	}, nil
}

func isPositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

func (c *Camera) Params() Params {
	return c.params
}

func (c *Camera) Width() int {
	return c.params.Width
}

func (c *Camera) Height() int {
	return c.params.Height
}

func (c *Camera) Eye() vec3.T {
	return c.params.Eye
}

// XAxis points right across the view plane.
func (c *Camera) XAxis() vec3.T {
	return c.xAxis
}

// YAxis points up across the view plane.
func (c *Camera) YAxis() vec3.T {
	return c.yAxis
}

// ScreenCorner is the top-left corner of the view plane.
func (c *Camera) ScreenCorner() vec3.T {
	return c.screenCorner
}

// ScreenPoint returns the view-plane point for pixel (x, y).  Row 0 is the
// top of the image.
func (c *Camera) ScreenPoint(x, y int) vec3.T {
	p := c.params
	return vec3.SubVV(
		vec3.AddVV(c.screenCorner, vec3.MulVS(c.xAxis, float64(x)*p.Horizontal/float64(p.Width-1))),
		vec3.MulVS(c.yAxis, float64(y)*p.Vertical/float64(p.Height-1)),
	)
}

// PrimaryRay returns the ray from the eye through pixel (x, y).
func (c *Camera) PrimaryRay(x, y int) ray.Ray {
	return ray.FromPoints(c.params.Eye, c.ScreenPoint(x, y))
}

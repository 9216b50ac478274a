package camera

import (
	"errors"
	"math"
	"testing"

	"raycaster/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

var approx = cmpopts.EquateApprox(0, 1e-12)

func defaultParams() Params {
	return Params{
		Eye:        vec3.T{10, 0, 0},
		View:       vec3.T{0, 0, 0},
		ViewUp:     vec3.T{0, 0, 10},
		Horizontal: 20,
		Vertical:   20,
		Width:      5,
		Height:     5,
	}
}

func TestBasis(t *testing.T) {
	c, err := New(defaultParams())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if diff := cmp.Diff(c.YAxis(), vec3.T{0, 0, 1}, approx); diff != "" {
		t.Errorf("Bad y axis; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.XAxis(), vec3.T{0, 1, 0}, approx); diff != "" {
		t.Errorf("Bad x axis; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.ScreenCorner(), vec3.T{0, -10, 10}, approx); diff != "" {
		t.Errorf("Bad screen corner; diff (-got +want)\n%s", diff)
	}
}

func TestScreenPoints(t *testing.T) {
	c, err := New(defaultParams())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	cases := []struct {
		x, y int
		want vec3.T
	}{
		{0, 0, vec3.T{0, -10, 10}},
		{4, 0, vec3.T{0, 10, 10}},
		{0, 4, vec3.T{0, -10, -10}},
		{4, 4, vec3.T{0, 10, -10}},
		{2, 2, vec3.T{0, 0, 0}},
	}
	for _, tc := range cases {
		if diff := cmp.Diff(c.ScreenPoint(tc.x, tc.y), tc.want, approx); diff != "" {
			t.Errorf("Pixel (%d, %d): bad screen point; diff (-got +want)\n%s", tc.x, tc.y, diff)
		}
	}

	r := c.PrimaryRay(2, 2)
	if diff := cmp.Diff(r.Point, vec3.T{10, 0, 0}); diff != "" {
		t.Errorf("Bad ray origin; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(r.Slope, vec3.T{-1, 0, 0}, approx); diff != "" {
		t.Errorf("Bad ray slope; diff (-got +want)\n%s", diff)
	}
}

func TestUpVectorIsOrthogonalized(t *testing.T) {
	p := defaultParams()
	p.ViewUp = vec3.T{3, 0, 10}

	c, err := New(p)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if diff := cmp.Diff(c.YAxis(), vec3.T{0, 0, 1}, approx); diff != "" {
		t.Errorf("Bad y axis; diff (-got +want)\n%s", diff)
	}
	for _, v := range []vec3.T{c.XAxis(), c.YAxis()} {
		if n := v.Norm(); math.Abs(n-1) > 1e-12 {
			t.Errorf("Axis %v has norm %v, want 1", v, n)
		}
	}
	if d := vec3.IProd(c.XAxis(), c.YAxis()); math.Abs(d) > 1e-12 {
		t.Errorf("Axes are not orthogonal: dot = %v", d)
	}
}

func TestDegenerateParams(t *testing.T) {
	cases := map[string]func(p *Params){
		"width 1":            func(p *Params) { p.Width = 1 },
		"height 0":           func(p *Params) { p.Height = 0 },
		"zero horizontal":    func(p *Params) { p.Horizontal = 0 },
		"negative vertical":  func(p *Params) { p.Vertical = -1 },
		"NaN horizontal":     func(p *Params) { p.Horizontal = math.NaN() },
		"eye equals view":    func(p *Params) { p.View = p.Eye },
		"up parallel":        func(p *Params) { p.ViewUp = vec3.T{-5, 0, 0} },
		"up antiparallel":    func(p *Params) { p.ViewUp = vec3.T{5, 0, 0} },
		"up zero":            func(p *Params) { p.ViewUp = vec3.T{} },
		"up nearly parallel": func(p *Params) { p.ViewUp = vec3.T{1, 0, 1e-15} },
		"NaN up":             func(p *Params) { p.ViewUp = vec3.T{0, 0, math.NaN()} },
		"NaN eye":            func(p *Params) { p.Eye = vec3.T{math.NaN(), 0, 0} },
	}

	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			p := defaultParams()
			mutate(&p)
			if _, err := New(p); !errors.Is(err, ErrDegenerateGeometry) {
				t.Errorf("Got error %v, want ErrDegenerateGeometry", err)
			}
		})
	}
}

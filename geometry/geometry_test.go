package geometry

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"testing"

	"raycaster/material"
	"raycaster/ray"
	"raycaster/vmath/vec3"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func mustSphere(t *testing.T, center vec3.T, radius float64) *Sphere {
	t.Helper()
	s, err := NewSphere(center, radius, material.Uniform(1))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	return s
}

var approx = cmpopts.EquateApprox(0, 1e-7)

func TestIntersectionFromBelow(t *testing.T) {
	s := mustSphere(t, vec3.T{3, 0, 0}, 1)
	r := ray.New(vec3.T{0, -2, 0}, vec3.T{1, 1, 0})

	c, ok := s.ClosestIntersection(r)
	if !ok {
		t.Fatalf("Ray missed sphere, want hit")
	}

	if math.Abs(c.T-2*math.Sqrt2) > 1e-5 {
		t.Errorf("Distance: got %v, want %v", c.T, 2*math.Sqrt2)
	}
	if diff := cmp.Diff(c.P, vec3.T{2, 0, 0}, approx); diff != "" {
		t.Errorf("Bad point; diff (-got +want)\n%s", diff)
	}
	if diff := cmp.Diff(c.N, vec3.T{-1, 0, 0}, cmpopts.EquateApprox(0, 1e-6)); diff != "" {
		t.Errorf("Bad normal; diff (-got +want)\n%s", diff)
	}
	if !c.Outer {
		t.Errorf("Contact is not marked outer")
	}
	if c.Material != &s.Material {
		t.Errorf("Contact material does not refer to the sphere's material")
	}
}

func TestIntersectionFromOrigin(t *testing.T) {
	s := mustSphere(t, vec3.T{-3, 2, 0}, 1)
	r := ray.New(vec3.T{0, 0, 0}, vec3.T{-2, 2, 0})

	c, ok := s.ClosestIntersection(r)
	if !ok {
		t.Fatalf("Ray missed sphere, want hit")
	}
	if math.Abs(c.T-2*math.Sqrt2) > 1e-4 {
		t.Errorf("Distance: got %v, want %v", c.T, 2*math.Sqrt2)
	}
	if diff := cmp.Diff(c.P, vec3.T{-2, 2, 0}, approx); diff != "" {
		t.Errorf("Bad point; diff (-got +want)\n%s", diff)
	}
}

func TestMisses(t *testing.T) {
	s := mustSphere(t, vec3.T{-3, 2, 0}, 1)

	for _, dir := range []vec3.T{{2, 2, 0}, {2, -2, 0}} {
		dir := dir
		t.Run(fmt.Sprintf("%v", dir), func(t *testing.T) {
			if c, ok := s.ClosestIntersection(ray.New(vec3.T{}, dir)); ok {
				t.Errorf("Got hit %+v, want miss", c)
			}
		})
	}
}

func TestTangentRayMisses(t *testing.T) {
	s := mustSphere(t, vec3.T{0, 0, 5}, 1)
	r := ray.New(vec3.T{1, 0, 0}, vec3.T{0, 0, 1})

	if c, ok := s.ClosestIntersection(r); ok {
		t.Errorf("Grazing ray hit at %+v, want miss", c)
	}
}

func TestOriginInsideSphereMissesWhenCenterIsBehind(t *testing.T) {
	s := mustSphere(t, vec3.T{0, 0, 0}, 2)
	r := ray.New(vec3.T{0, 0, 1}, vec3.T{0, 0, 1})

	if c, ok := s.ClosestIntersection(r); ok {
		t.Errorf("Got hit %+v, want miss", c)
	}
}

func TestRandomRaysRespectSurface(t *testing.T) {
	rng := rand.New(rand.NewSource(12345))

	hits := 0
	for i := 0; i < 2000; i++ {
		center := vec3.T{rng.Float64()*10 - 5, rng.Float64()*10 - 5, rng.Float64()*10 - 5}
		radius := 0.1 + rng.Float64()*3
		s := mustSphere(t, center, radius)

		start := vec3.T{rng.Float64()*20 - 10, rng.Float64()*20 - 10, rng.Float64()*20 - 10}
		// Aim near the center so that a good fraction of rays hit.
		jitter := vec3.T{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}
		r := ray.FromPoints(start, vec3.AddVV(center, vec3.MulVS(jitter, radius)))
		if rng.Intn(4) == 0 {
			r.Slope = vec3.MulVS(r.Slope, -1)
		}

		c, ok := s.ClosestIntersection(r)

		b := vec3.IProd(vec3.SubVV(center, r.Point), r.Slope)
		if b <= 0 && ok {
			t.Fatalf("Case %d: hit a sphere behind the ray origin", i)
		}
		if !ok {
			continue
		}
		hits++

		if got := vec3.Distance(c.P, center); math.Abs(got-radius) > 1e-6*(1+radius) {
			t.Errorf("Case %d: point is %v from center, want radius %v", i, got, radius)
		}
		if n := c.N.Norm(); math.Abs(n-1) > 1e-9 {
			t.Errorf("Case %d: normal has norm %v, want 1", i, n)
		}
		outward := vec3.Normalize(vec3.SubVV(c.P, center))
		if cos := vec3.IProd(outward, c.N); math.Abs(cos-1) > 1e-9 {
			t.Errorf("Case %d: normal not parallel to radius vector (cos = %v)", i, cos)
		}
		if c.T < 0 {
			t.Errorf("Case %d: negative distance %v", i, c.T)
		}
	}

	if hits == 0 {
		t.Fatalf("No random ray hit its sphere")
	}
}

func TestNewSphereValidates(t *testing.T) {
	if _, err := NewSphere(vec3.T{}, 0, material.Uniform(1)); !errors.Is(err, ErrBadRadius) {
		t.Errorf("Zero radius: got error %v, want ErrBadRadius", err)
	}
	if _, err := NewSphere(vec3.T{}, -1, material.Uniform(1)); !errors.Is(err, ErrBadRadius) {
		t.Errorf("Negative radius: got error %v, want ErrBadRadius", err)
	}
	if _, err := NewSphere(vec3.T{}, 1, material.Uniform(2)); !errors.Is(err, material.ErrBadCoefficient) {
		t.Errorf("Bad material: got error %v, want ErrBadCoefficient", err)
	}
}

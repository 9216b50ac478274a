// Package scene collects the objects and lights of a render.
//
// A Scene is built up front and then shared read-only between every render
// task.  Nothing in this package synchronizes access.
package scene

import (
	"fmt"

	"raycaster/contact"
	"raycaster/geometry"
	"raycaster/light"
	"raycaster/ray"
)

type Scene struct {
	Objects []geometry.Geometry
	Lights  []light.Point
}

// AddObject registers an object and returns its index.
func (s *Scene) AddObject(g geometry.Geometry) int {
	s.Objects = append(s.Objects, g)
	return len(s.Objects) - 1
}

// AddLight registers a light and returns its index.
func (s *Scene) AddLight(l light.Point) (int, error) {
	if err := l.Validate(); err != nil {
		return -1, fmt.Errorf("while adding light: %w", err)
	}
	s.Lights = append(s.Lights, l)
	return len(s.Lights) - 1, nil
}

// ClosestIntersection tests r against every object and returns the nearest
// contact along with the index of the object that produced it.  The index is
// -1 if nothing was hit.
//
// Ties keep the earlier object.
func (s *Scene) ClosestIntersection(r ray.Ray) (contact.Contact, int) {
	minContact := contact.Contact{}
	minIndex := -1

	for i, obj := range s.Objects {
		c, ok := obj.ClosestIntersection(r)
		if !ok {
			continue
		}
		if minIndex == -1 || c.T < minContact.T {
			minContact = c
			minIndex = i
		}
	}

	return minContact, minIndex
}

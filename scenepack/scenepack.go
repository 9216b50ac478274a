// Package scenepack loads and saves scenes as protobuf Struct messages.
package scenepack

import (
	"fmt"
	"os"

	"raycaster/geometry"
	"raycaster/light"
	"raycaster/material"
	"raycaster/rgb"
	"raycaster/scene"
	"raycaster/vmath/vec3"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Marshal encodes s.  Only spheres are supported.
func Marshal(s *scene.Scene) ([]byte, error) {
	spheres := []interface{}{}
	for i, g := range s.Objects {
		sph, ok := g.(*geometry.Sphere)
		if !ok {
			return nil, fmt.Errorf("object %d has unsupported type %T", i, g)
		}
		spheres = append(spheres, map[string]interface{}{
			"center":   triple(sph.Center),
			"radius":   sph.Radius,
			"diffuse":  triple(sph.Material.Diffuse),
			"specular": triple(sph.Material.Specular),
			"exponent": sph.Material.Exponent,
		})
	}

	lights := []interface{}{}
	for _, l := range s.Lights {
		lights = append(lights, map[string]interface{}{
			"position":  triple(l.Position),
			"intensity": triple(l.Intensity),
		})
	}

	pb, err := structpb.NewStruct(map[string]interface{}{
		"spheres": spheres,
		"lights":  lights,
	})
	if err != nil {
		return nil, fmt.Errorf("while building scene message: %w", err)
	}

	// Deterministic so that identical scenes hash identically.
	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(pb)
	if err != nil {
		return nil, fmt.Errorf("while marshaling scene message: %w", err)
	}
	return data, nil
}

func triple(v [3]float64) []interface{} {
	return []interface{}{v[0], v[1], v[2]}
}

// Unmarshal decodes a scene written by Marshal, validating every object and
// light.
func Unmarshal(data []byte) (*scene.Scene, error) {
	pb := &structpb.Struct{}
	if err := proto.Unmarshal(data, pb); err != nil {
		return nil, fmt.Errorf("while unmarshaling scene message: %w", err)
	}

	s := &scene.Scene{}

	for i, v := range pb.GetFields()["spheres"].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()

		center, err := convertTriple(fields["center"])
		if err != nil {
			return nil, fmt.Errorf("while reading sphere %d center: %w", i, err)
		}
		diffuse, err := convertTriple(fields["diffuse"])
		if err != nil {
			return nil, fmt.Errorf("while reading sphere %d diffuse: %w", i, err)
		}
		specular, err := convertTriple(fields["specular"])
		if err != nil {
			return nil, fmt.Errorf("while reading sphere %d specular: %w", i, err)
		}

		sph, err := geometry.NewSphere(vec3.T(center), fields["radius"].GetNumberValue(), material.Phong{
			Diffuse:  rgb.T(diffuse),
			Specular: rgb.T(specular),
			Exponent: fields["exponent"].GetNumberValue(),
		})
		if err != nil {
			return nil, fmt.Errorf("while building sphere %d: %w", i, err)
		}
		s.AddObject(sph)
	}

	for i, v := range pb.GetFields()["lights"].GetListValue().GetValues() {
		fields := v.GetStructValue().GetFields()

		position, err := convertTriple(fields["position"])
		if err != nil {
			return nil, fmt.Errorf("while reading light %d position: %w", i, err)
		}
		intensity, err := convertTriple(fields["intensity"])
		if err != nil {
			return nil, fmt.Errorf("while reading light %d intensity: %w", i, err)
		}

		if _, err := s.AddLight(light.Point{Position: vec3.T(position), Intensity: rgb.T(intensity)}); err != nil {
			return nil, fmt.Errorf("while building light %d: %w", i, err)
		}
	}

	return s, nil
}

func convertTriple(v *structpb.Value) ([3]float64, error) {
	vals := v.GetListValue().GetValues()
	if len(vals) != 3 {
		return [3]float64{}, fmt.Errorf("want 3 components, got %d", len(vals))
	}
	var out [3]float64
	for i, e := range vals {
		n, ok := e.GetKind().(*structpb.Value_NumberValue)
		if !ok {
			return [3]float64{}, fmt.Errorf("component %d is not a number", i)
		}
		out[i] = n.NumberValue
	}
	return out, nil
}

func LoadScene(fileName string) (*scene.Scene, error) {
	fileBytes, err := os.ReadFile(fileName)
	if err != nil {
		return nil, fmt.Errorf("while opening scenepack: %w", err)
	}
	return Unmarshal(fileBytes)
}

func SaveScene(fileName string, s *scene.Scene) error {
	data, err := Marshal(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(fileName, data, 0644); err != nil {
		return fmt.Errorf("while writing scenepack: %w", err)
	}
	return nil
}

// Predefined builds the default demo scene: two spheres lit by two lights,
// framed by the default camera looking at the origin from +x.
func Predefined() *scene.Scene {
	s := &scene.Scene{}

	s.AddObject(&geometry.Sphere{
		Center: vec3.T{0, 0, 0},
		Radius: 2,
		Material: material.Phong{
			Diffuse:  rgb.T{1, 1, 0},
			Specular: rgb.T{0.5, 0.5, 0},
			Exponent: 10,
		},
	})
	s.AddObject(&geometry.Sphere{
		Center: vec3.T{0, 5, 0},
		Radius: 2,
		Material: material.Phong{
			Diffuse:  rgb.T{0, 0, 1},
			Specular: rgb.T{0.5, 0.5, 0.5},
			Exponent: 50,
		},
	})

	// Intensities are known-good; skip validation.
	s.Lights = append(s.Lights,
		light.Point{Position: vec3.T{10, 5, 5}, Intensity: rgb.T{100, 100, 100}},
		light.Point{Position: vec3.T{-10, -5, 5}, Intensity: rgb.T{80, 80, 200}},
	)

	return s
}

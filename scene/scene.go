// Package scene describes the static layout of a warehouse floor in world
// space: the floor, the obstacles standing on it and the markers used by the
// planner.
package scene

import (
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/warehousesim/gridexport/raster"
	"gopkg.in/yaml.v3"
)

const (
	ErrTypeInvalidScene  = "invalid-scene"
	ErrTypeInvalidBounds = "invalid-bounds"

	// DefaultFraction is the grid density used when a scene does not set one.
	DefaultFraction = 1.0 / 3

	// MinFraction is the lowest density accepted by Validate.
	MinFraction = 0.05
)

// Vector3 is a world-space position. Y is the up axis and is ignored by the
// rasterizer.
type Vector3 struct {
	X float64 `yaml:"x" json:"x"`
	Y float64 `yaml:"y" json:"y"`
	Z float64 `yaml:"z" json:"z"`
}

// XZ projects v on the floor plane.
func (v Vector3) XZ() raster.Vec2 {
	return raster.Vec2{X: v.X, Z: v.Z}
}

// Object is a named scene node with its measured geometry.
type Object struct {
	Name      string  `yaml:"name"`
	Position  Vector3 `yaml:"position"`
	Renderers []Box   `yaml:"renderers"`
	Colliders []Box   `yaml:"colliders"`
}

// WorldBounds returns the union of the renderer bounds of o. When o has no
// renderer the collider bounds are used instead. ok is false when o has
// neither.
func (o Object) WorldBounds() (raster.Bounds, bool) {
	boxes := o.Renderers
	if len(boxes) == 0 {
		boxes = o.Colliders
	}
	if len(boxes) == 0 {
		return raster.Bounds{}, false
	}

	bounds := boxes[0].Bounds
	for _, b := range boxes[1:] {
		bounds.Encapsulate(b.Bounds)
	}
	return bounds, true
}

// Scene is a warehouse floor and everything placed on it.
type Scene struct {
	// Fraction is the grid density. Zero means DefaultFraction.
	Fraction float64 `yaml:"fraction"`

	Floor    Object   `yaml:"floor"`
	Shelves  []Object `yaml:"shelves"`
	Machines []Object `yaml:"machines"`

	// Pallets holds the pickup markers and Deliveries the drop markers.
	// They are paired by index.
	Pallets    []Object `yaml:"pallets"`
	Deliveries []Object `yaml:"deliveries"`

	Agents []Object `yaml:"agents"`
}

// Parse decodes and validates a scene document. JSON documents are accepted
// too since they are valid YAML.
func Parse(data []byte) (*Scene, error) {
	var s Scene
	if err := yaml.Unmarshal(data, &s); err != nil {
		errType := errors.Type(err)
		if errType == "" {
			errType = ErrTypeInvalidScene
		}
		return nil, errors.New("decoding scene failed").
			WithType(errType).
			Wrap(err)
	}

	if s.Fraction == 0 {
		s.Fraction = DefaultFraction
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// Load reads and parses the scene file at path.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("reading scene file failed").
			WithTag("path", path).
			Wrap(err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, errors.New("loading scene failed").
			WithTag("path", path).
			WithType(errors.Type(err)).
			Wrap(err)
	}
	return s, nil
}

// Validate checks that the scene can be rasterized.
func (s *Scene) Validate() error {
	if s.Fraction < MinFraction || s.Fraction > 1 {
		return errors.New("fraction out of range").
			WithTag("fraction", s.Fraction).
			WithTag("min", MinFraction).
			WithTag("max", 1).
			WithType(ErrTypeInvalidScene)
	}

	if _, err := s.FloorBounds(); err != nil {
		return err
	}
	return nil
}

// FloorBounds returns the measured bounds of the floor. The floor must have
// geometry with a positive extent on both axes.
func (s *Scene) FloorBounds() (raster.Bounds, error) {
	bounds, ok := s.Floor.WorldBounds()
	if !ok {
		return raster.Bounds{}, errors.New("floor has no renderer or collider").
			WithTag("name", s.Floor.Name).
			WithType(ErrTypeInvalidScene)
	}

	size := bounds.Size()
	if size.X <= 0 || size.Z <= 0 {
		return raster.Bounds{}, errors.New("floor has no measurable extent").
			WithTag("name", s.Floor.Name).
			WithTag("width", size.X).
			WithTag("height", size.Z).
			WithType(ErrTypeInvalidScene)
	}
	return bounds, nil
}

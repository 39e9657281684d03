package scene

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/warehousesim/gridexport/raster"
	"gopkg.in/yaml.v3"
)

// Box is a world-space axis-aligned box projected on the floor plane.
//
// It is written either with corners:
//
//	{min: {x: 0, y: 0, z: 0}, max: {x: 2, y: 1, z: 2}}
//
// or with a center and a full size:
//
//	{center: {x: 1, y: 0.5, z: 1}, size: {x: 2, y: 1, z: 2}}
type Box struct {
	raster.Bounds
}

type boxDocument struct {
	Min    *Vector3 `yaml:"min,omitempty"`
	Max    *Vector3 `yaml:"max,omitempty"`
	Center *Vector3 `yaml:"center,omitempty"`
	Size   *Vector3 `yaml:"size,omitempty"`
}

func (b *Box) UnmarshalYAML(value *yaml.Node) error {
	var doc boxDocument
	if err := value.Decode(&doc); err != nil {
		return err
	}

	switch {
	case doc.Min != nil && doc.Max != nil:
		b.Bounds = raster.NewBoundsFromCorners(doc.Min.XZ(), doc.Max.XZ())

	case doc.Center != nil && doc.Size != nil:
		size := doc.Size.XZ()
		if size.X < 0 || size.Z < 0 {
			return errors.New("negative box size").
				WithTag("line", value.Line).
				WithType(ErrTypeInvalidBounds)
		}
		b.Bounds = raster.NewBounds(doc.Center.XZ(), size)

	default:
		return errors.New("box needs either min and max or center and size").
			WithTag("line", value.Line).
			WithType(ErrTypeInvalidBounds)
	}
	return nil
}

// MarshalYAML always writes the corner form.
func (b Box) MarshalYAML() (interface{}, error) {
	return boxDocument{
		Min: &Vector3{X: b.Min.X, Z: b.Min.Z},
		Max: &Vector3{X: b.Max.X, Z: b.Max.Z},
	}, nil
}

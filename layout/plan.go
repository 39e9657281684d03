package layout

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
)

const (
	ErrTypeInvalidPlan = "invalid-plan"
)

// Point is an [x, y] grid coordinate produced by the planner.
type Point []int

func (p Point) X() int {
	return p[0]
}

func (p Point) Y() int {
	return p[1]
}

// Plan is the planner answer for a layout: the occupied cells it used and
// the paths an agent follows to fetch a box and deliver it.
type Plan struct {
	Shelves        []Point `json:"shelves"`
	Machinery      []Point `json:"machinery"`
	DeliveryPoint  Point   `json:"delivery_point,omitempty"`
	Boxes          []Point `json:"boxes"`
	PathToBox      []Point `json:"path_to_box"`
	PathToDelivery []Point `json:"path_to_delivery"`
}

// ParsePlan decodes and validates a planner answer.
func ParsePlan(data []byte) (*Plan, error) {
	var p Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, errors.New("decoding plan failed").
			WithType(ErrTypeInvalidPlan).
			Wrap(err)
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every coordinate is a pair of non-negative integers.
func (p *Plan) Validate() error {
	groups := []struct {
		name   string
		points []Point
	}{
		{name: "shelves", points: p.Shelves},
		{name: "machinery", points: p.Machinery},
		{name: "boxes", points: p.Boxes},
		{name: "path_to_box", points: p.PathToBox},
		{name: "path_to_delivery", points: p.PathToDelivery},
	}

	for _, g := range groups {
		for i, pt := range g.points {
			if err := validatePoint(pt); err != nil {
				return errors.New("invalid plan point").
					WithTag("field", g.name).
					WithTag("index", i).
					WithType(ErrTypeInvalidPlan).
					Wrap(err)
			}
		}
	}

	if p.DeliveryPoint != nil {
		if err := validatePoint(p.DeliveryPoint); err != nil {
			return errors.New("invalid plan point").
				WithTag("field", "delivery_point").
				WithType(ErrTypeInvalidPlan).
				Wrap(err)
		}
	}
	return nil
}

func validatePoint(p Point) error {
	if len(p) != 2 {
		return errors.New("point is not an [x, y] pair").
			WithTag("length", len(p))
	}
	if p[0] < 0 || p[1] < 0 {
		return errors.New("negative coordinate").
			WithTag("x", p[0]).
			WithTag("y", p[1])
	}
	return nil
}

// Extent returns the highest x and y coordinates among the delivery point,
// the shelves, the machinery and the boxes. Paths are not considered.
func (p *Plan) Extent() (maxX, maxY int) {
	visit := func(pt Point) {
		maxX = max(maxX, pt.X())
		maxY = max(maxY, pt.Y())
	}

	if p.DeliveryPoint != nil {
		visit(p.DeliveryPoint)
	}
	for _, group := range [][]Point{p.Shelves, p.Machinery, p.Boxes} {
		for _, pt := range group {
			visit(pt)
		}
	}
	return maxX, maxY
}

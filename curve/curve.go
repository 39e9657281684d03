// Package curve evaluates parametric curves used to animate objects along a
// path. Every evaluator maps t in [0, 1] to a world position and keeps no
// state between calls.
package curve

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Curve is a position as a function of t in [0, 1].
type Curve interface {
	Position(t float64) r3.Vec
}

func clamp01(t float64) float64 {
	return math.Max(0, math.Min(1, t))
}

// Hermite is a piecewise cubic Hermite spline through its points. Inner
// tangents are Catmull-Rom tangents; the first and last segments use their
// own chord as both tangents. Segments share t uniformly.
type Hermite struct {
	Points []r3.Vec
}

func (h Hermite) Position(t float64) r3.Vec {
	switch len(h.Points) {
	case 0:
		return r3.Vec{}
	case 1:
		return h.Points[0]
	}

	t = clamp01(t)
	segments := len(h.Points) - 1
	segment := min(int(math.Floor(t*float64(segments))), segments-1)
	local := t*float64(segments) - float64(segment)

	p0 := h.Points[segment]
	p1 := h.Points[segment+1]
	m0 := h.tangent(segment, p0, p1, true)
	m1 := h.tangent(segment, p0, p1, false)

	t2 := local * local
	t3 := t2 * local
	h00 := 2*t3 - 3*t2 + 1
	h10 := t3 - 2*t2 + local
	h01 := -2*t3 + 3*t2
	h11 := t3 - t2

	return r3.Add(
		r3.Add(r3.Scale(h00, p0), r3.Scale(h10, m0)),
		r3.Add(r3.Scale(h01, p1), r3.Scale(h11, m1)),
	)
}

func (h Hermite) tangent(segment int, p0, p1 r3.Vec, start bool) r3.Vec {
	last := len(h.Points) - 2
	if start && segment > 0 {
		return r3.Scale(0.5, r3.Sub(h.Points[segment+1], h.Points[segment-1]))
	}
	if !start && segment < last {
		return r3.Scale(0.5, r3.Sub(h.Points[segment+2], h.Points[segment]))
	}
	return r3.Sub(p1, p0)
}

// Parametric is an independent cubic polynomial per axis:
// a*t^3 + b*t^2 + c*t + d.
type Parametric struct {
	A, B, C, D r3.Vec
}

func (p Parametric) Position(t float64) r3.Vec {
	t2 := t * t
	t3 := t2 * t
	return r3.Add(
		r3.Add(r3.Scale(t3, p.A), r3.Scale(t2, p.B)),
		r3.Add(r3.Scale(t, p.C), p.D),
	)
}

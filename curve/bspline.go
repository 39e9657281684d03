package curve

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// DefaultDegree is the degree of B-spline and NURBS curves.
const DefaultDegree = 3

// BSpline is a clamped uniform B-spline: it starts on the first control
// point and ends on the last.
type BSpline struct {
	Points []r3.Vec

	// Degree defaults to DefaultDegree and is lowered for short inputs.
	Degree int
}

func (b BSpline) Position(t float64) r3.Vec {
	n := len(b.Points)
	switch n {
	case 0:
		return r3.Vec{}
	case 1:
		return b.Points[0]
	}

	t = clamp01(t)
	if t == 1 {
		return b.Points[n-1]
	}

	basis := newBasis(n, b.Degree)
	var p r3.Vec
	for i, cp := range b.Points {
		p = r3.Add(p, r3.Scale(basis.eval(i, basis.degree, t), cp))
	}
	return p
}

// NURBS is a clamped uniform rational B-spline.
type NURBS struct {
	Points []r3.Vec

	// Weights defaults to 1 for every point when its length does not match
	// Points.
	Weights []float64

	Degree int
}

func (c NURBS) Position(t float64) r3.Vec {
	n := len(c.Points)
	switch n {
	case 0:
		return r3.Vec{}
	case 1:
		return c.Points[0]
	}

	t = clamp01(t)
	if t == 1 {
		return c.Points[n-1]
	}

	weights := c.Weights
	if len(weights) != n {
		weights = make([]float64, n)
		for i := range weights {
			weights[i] = 1
		}
	}

	basis := newBasis(n, c.Degree)
	var (
		numerator   r3.Vec
		denominator float64
	)
	for i, cp := range c.Points {
		w := basis.eval(i, basis.degree, t) * weights[i]
		numerator = r3.Add(numerator, r3.Scale(w, cp))
		denominator += w
	}

	if denominator == 0 {
		return numerator
	}
	return r3.Scale(1/denominator, numerator)
}

type basis struct {
	degree int
	knots  []float64
}

// newBasis returns the clamped uniform knot vector of n control points.
func newBasis(n, degree int) basis {
	if degree <= 0 {
		degree = DefaultDegree
	}
	degree = min(degree, n-1)

	count := n + degree + 1
	knots := make([]float64, count)
	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = 0
		case i >= count-degree-1:
			knots[i] = 1
		default:
			knots[i] = float64(i-degree) / float64(n-degree)
		}
	}
	return basis{degree: degree, knots: knots}
}

// eval is the Cox-de Boor recursion. Terms with an empty knot span are zero.
func (b basis) eval(i, p int, t float64) float64 {
	k := b.knots
	if p == 0 {
		if t >= k[i] && t < k[i+1] {
			return 1
		}
		return 0
	}

	var left, right float64
	if d := k[i+p] - k[i]; d != 0 {
		left = (t - k[i]) / d * b.eval(i, p-1, t)
	}
	if d := k[i+p+1] - k[i+1]; d != 0 {
		right = (k[i+p+1] - t) / d * b.eval(i+1, p-1, t)
	}
	return left + right
}

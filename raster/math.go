package raster

import (
	"math"
)

// Epsilon is subtracted from the max edge of a footprint so that a bound
// landing exactly on a grid line does not claim the next cell.
const Epsilon = 1e-4

// DegenerateExtent is the extent under which a bounds axis is considered
// empty.
const DegenerateExtent = 1e-5

// EqualWithEpsilon reports whether a and b differ by at most epsilon.
func EqualWithEpsilon(a float64, b float64, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// Vec2 is a point on the world XZ (floor) plane.
type Vec2 struct {
	X float64
	Z float64
}

// EqualWithEpsilon reports whether both axes of v1 and v2 are within epsilon.
func (v1 Vec2) EqualWithEpsilon(v2 Vec2, epsilon float64) bool {
	return EqualWithEpsilon(v1.X, v2.X, epsilon) &&
		EqualWithEpsilon(v1.Z, v2.Z, epsilon)
}

// Add returns a+b.
func Add(a Vec2, b Vec2) Vec2 {
	return Vec2{a.X + b.X, a.Z + b.Z}
}

// Sub returns a-b.
func Sub(a Vec2, b Vec2) Vec2 {
	return Vec2{a.X - b.X, a.Z - b.Z}
}

// Mul returns a scaled by s.
func Mul(a Vec2, s float64) Vec2 {
	return Vec2{a.X * s, a.Z * s}
}

// Min returns the per-axis minimum of a and b.
func Min(a Vec2, b Vec2) Vec2 {
	return Vec2{math.Min(a.X, b.X), math.Min(a.Z, b.Z)}
}

// Max returns the per-axis maximum of a and b.
func Max(a Vec2, b Vec2) Vec2 {
	return Vec2{math.Max(a.X, b.X), math.Max(a.Z, b.Z)}
}

// Bounds is an axis-aligned rectangle on the XZ plane.
type Bounds struct {
	Min Vec2
	Max Vec2
}

// NewBounds returns the bounds of the given center and full size.
func NewBounds(center Vec2, size Vec2) Bounds {
	extents := Mul(size, 0.5)
	return Bounds{
		Min: Sub(center, extents),
		Max: Add(center, extents),
	}
}

// NewBoundsFromCorners returns bounds that contain both corners, whatever
// their order.
func NewBoundsFromCorners(a Vec2, b Vec2) Bounds {
	return Bounds{
		Min: Min(a, b),
		Max: Max(a, b),
	}
}

// Center returns the midpoint of b.
func (b Bounds) Center() Vec2 {
	return Mul(Add(b.Min, b.Max), 0.5)
}

// Size returns the extent of b along each axis.
func (b Bounds) Size() Vec2 {
	return Sub(b.Max, b.Min)
}

// Encapsulate grows b so that it contains o.
func (b *Bounds) Encapsulate(o Bounds) {
	b.Min = Min(b.Min, o.Min)
	b.Max = Max(b.Max, o.Max)
}

// IsDegenerate reports whether b has no measurable extent on either axis.
func (b Bounds) IsDegenerate() bool {
	size := b.Size()
	return size.X <= DegenerateExtent && size.Z <= DegenerateExtent
}

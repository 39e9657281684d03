package raster

import (
	"math"
)

// Regular Floor Grid
//
// A uniformly sub-divided grid laid over the floor extent. The particularities
// are:
//   - cells are square. The cell size is fit to the denser axis so that
//     fraction*extent cells fit along it.
//   - rows and cols are floored, so the far edge of the sparser axis can be
//     left with rounding slack that no cell covers.
//   - rows run along world Z and cols along world X, starting at the floor
//     min corner.

// Floor is the world-space rectangle being rasterized.
type Floor struct {
	Origin Vec2
	Width  float64
	Height float64
}

// FloorFromBounds returns the floor covering b.
func FloorFromBounds(b Bounds) Floor {
	size := b.Size()
	return Floor{
		Origin: b.Min,
		Width:  size.X,
		Height: size.Z,
	}
}

// Spec is the grid geometry derived from a floor and a fraction.
type Spec struct {
	CellSize float64
	Rows     int
	Cols     int
}

// ComputeGrid derives the square cell size and the row and column counts
// for a floor of the given extent.
func ComputeGrid(floorWidth, floorHeight, fraction float64) Spec {
	targetCols := max(1, roundToInt(floorWidth*fraction))
	targetRows := max(1, roundToInt(floorHeight*fraction))

	cellX := floorWidth / float64(targetCols)
	cellZ := floorHeight / float64(targetRows)
	cellSize := math.Min(cellX, cellZ)

	return Spec{
		CellSize: cellSize,
		Cols:     max(1, int(math.Floor(floorWidth/cellSize))),
		Rows:     max(1, int(math.Floor(floorHeight/cellSize))),
	}
}

// roundToInt rounds half to even, like the engine the layouts come from.
func roundToInt(v float64) int {
	return int(math.RoundToEven(v))
}

// WorldToCell returns the unclamped cell index of a world coordinate.
func WorldToCell(world, origin, cellSize float64) int {
	return int(math.Floor((world - origin) / cellSize))
}

// Grid is a floor rasterized at a given fraction.
type Grid struct {
	Floor    Floor
	Fraction float64
	Spec
}

// NewGrid lays a grid of the given density over floor.
func NewGrid(floor Floor, fraction float64) *Grid {
	return &Grid{
		Floor:    floor,
		Fraction: fraction,
		Spec:     ComputeGrid(floor.Width, floor.Height, fraction),
	}
}

// worldToCellBounded is WorldToCell with the quotient limited to
// [-1, dim] before the int conversion, so huge coordinates cannot overflow.
// Results outside [0, dim-1] still mark the value as off the grid.
func worldToCellBounded(world, origin, cellSize float64, dim int) int {
	q := math.Floor((world - origin) / cellSize)
	if math.IsNaN(q) || q < -1 {
		return -1
	}
	if q > float64(dim) {
		return dim
	}
	return int(q)
}

// WorldToCol returns the unclamped column of a world X coordinate.
func (g *Grid) WorldToCol(x float64) int {
	return WorldToCell(x, g.Floor.Origin.X, g.CellSize)
}

// WorldToRow returns the unclamped row of a world Z coordinate.
func (g *Grid) WorldToRow(z float64) int {
	return WorldToCell(z, g.Floor.Origin.Z, g.CellSize)
}

func (g *Grid) boundedCol(x float64) int {
	return worldToCellBounded(x, g.Floor.Origin.X, g.CellSize, g.Cols)
}

func (g *Grid) boundedRow(z float64) int {
	return worldToCellBounded(z, g.Floor.Origin.Z, g.CellSize, g.Rows)
}

// CellOrigin returns the world position of the min corner of a cell.
func (g *Grid) CellOrigin(c Cell) Vec2 {
	return Vec2{
		X: g.Floor.Origin.X + float64(c.Col)*g.CellSize,
		Z: g.Floor.Origin.Z + float64(c.Row)*g.CellSize,
	}
}

func (g *Grid) clampRow(r int) int {
	return clamp(r, 0, g.Rows-1)
}

func (g *Grid) clampCol(c int) int {
	return clamp(c, 0, g.Cols-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package raster

// Cell is a grid coordinate.
type Cell struct {
	Row int
	Col int
}

// Rect is an inclusive range of cells.
type Rect struct {
	RowMin int
	RowMax int
	ColMin int
	ColMax int
}

// Size returns the number of columns and rows covered by r.
func (r Rect) Size() Size {
	return Size{
		W: r.ColMax - r.ColMin + 1,
		H: r.RowMax - r.RowMin + 1,
	}
}

// Cells enumerates the cells of r in row-major order: rows ascending, then
// cols ascending within a row. Consumers rely on that order.
func (r Rect) Cells() []Cell {
	size := r.Size()
	cells := make([]Cell, 0, size.W*size.H)
	for row := r.RowMin; row <= r.RowMax; row++ {
		for col := r.ColMin; col <= r.ColMax; col++ {
			cells = append(cells, Cell{Row: row, Col: col})
		}
	}
	return cells
}

// Size is a cell count along each axis.
type Size struct {
	W int
	H int
}

// Footprint is the occupancy of one object on the grid.
type Footprint struct {
	Name string

	// World center and size on the XZ plane.
	Position Vec2
	Size     Vec2

	// Center is floored from Position. It can differ from the midpoint of
	// Rect when the footprint is asymmetric about grid lines.
	Center   Cell
	GridSize Size
	Rect     Rect
	Cells    []Cell

	// Clamped reports that Rect was cut to fit the grid.
	Clamped bool

	// Degenerate reports that the object had no measurable extent and was
	// rasterized as a point.
	Degenerate bool
}

// RasterizeFootprint returns the clamped, non-empty rectangle of cells
// covered by the world bounds [min, max].
func (g *Grid) RasterizeFootprint(min, max Vec2) Rect {
	rect, _ := g.rasterizeFootprint(min, max)
	return rect
}

func (g *Grid) rasterizeFootprint(min, max Vec2) (Rect, bool) {
	raw := Rect{
		ColMin: g.boundedCol(min.X),
		ColMax: g.boundedCol(max.X - Epsilon),
		RowMin: g.boundedRow(min.Z),
		RowMax: g.boundedRow(max.Z - Epsilon),
	}

	rect := Rect{
		ColMin: g.clampCol(raw.ColMin),
		ColMax: g.clampCol(raw.ColMax),
		RowMin: g.clampRow(raw.RowMin),
		RowMax: g.clampRow(raw.RowMax),
	}
	clamped := rect != raw

	if rect.ColMax < rect.ColMin {
		rect.ColMax = rect.ColMin
	}
	if rect.RowMax < rect.RowMin {
		rect.RowMax = rect.RowMin
	}
	return rect, clamped
}

// CenterCell returns the clamped cell containing p.
func (g *Grid) CenterCell(p Vec2) Cell {
	return Cell{
		Row: g.clampRow(g.boundedRow(p.Z)),
		Col: g.clampCol(g.boundedCol(p.X)),
	}
}

// Rasterize returns the footprint of an object. When ok is false or bounds
// has no measurable extent, the object is rasterized as a point: at the
// bounds center when bounds were measured, at position otherwise.
func (g *Grid) Rasterize(name string, position Vec2, bounds Bounds, ok bool) Footprint {
	if !ok {
		fp := g.RasterizePoint(name, position)
		fp.Degenerate = true
		instrumentFootprint(fp)
		return fp
	}
	if bounds.IsDegenerate() {
		fp := g.RasterizePoint(name, bounds.Center())
		fp.Degenerate = true
		instrumentFootprint(fp)
		return fp
	}

	rect, clamped := g.rasterizeFootprint(bounds.Min, bounds.Max)
	center := bounds.Center()

	fp := Footprint{
		Name:     name,
		Position: center,
		Size:     bounds.Size(),
		Center:   g.CenterCell(center),
		GridSize: rect.Size(),
		Rect:     rect,
		Cells:    rect.Cells(),
		Clamped:  clamped,
	}
	instrumentFootprint(fp)
	return fp
}

// RasterizePoint returns the single-cell footprint of p, sized to one cell.
func (g *Grid) RasterizePoint(name string, p Vec2) Footprint {
	center := g.CenterCell(p)
	rect := Rect{
		RowMin: center.Row,
		RowMax: center.Row,
		ColMin: center.Col,
		ColMax: center.Col,
	}

	return Footprint{
		Name:     name,
		Position: p,
		Size:     Vec2{X: g.CellSize, Z: g.CellSize},
		Center:   center,
		GridSize: Size{W: 1, H: 1},
		Rect:     rect,
		Cells:    []Cell{center},
	}
}

// Package layout turns a rasterized scene into the payload consumed by the
// path planner and keeps the snapshots the service has produced.
package layout

import (
	"github.com/warehousesim/gridexport/raster"
)

// XZ is a world position on the floor plane.
type XZ struct {
	X float64 `json:"x"`
	Z float64 `json:"z"`
}

func xzFromVec(v raster.Vec2) XZ {
	return XZ{X: v.X, Z: v.Z}
}

// WH is a world extent on the floor plane.
type WH struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

type GridPos struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

type GridSize struct {
	W int `json:"w"`
	H int `json:"h"`
}

type GridRect struct {
	RowMin int `json:"rowMin"`
	RowMax int `json:"rowMax"`
	ColMin int `json:"colMin"`
	ColMax int `json:"colMax"`
}

type GridCell struct {
	R int `json:"r"`
	C int `json:"c"`
}

func gridCells(cells []raster.Cell) []GridCell {
	res := make([]GridCell, len(cells))
	for i, c := range cells {
		res[i] = GridCell{R: c.Row, C: c.Col}
	}
	return res
}

// ObjectData is the footprint of a shelf, a machine or the floor.
type ObjectData struct {
	Name      string     `json:"name"`
	Position  XZ         `json:"position"`
	Size      WH         `json:"size"`
	GridPos   GridPos    `json:"gridPos"`
	GridSize  GridSize   `json:"gridSize"`
	GridRect  GridRect   `json:"gridRect"`
	GridCells []GridCell `json:"gridCells"`
}

// NewObjectData converts a footprint to its wire form.
func NewObjectData(fp raster.Footprint) ObjectData {
	return ObjectData{
		Name:      fp.Name,
		Position:  xzFromVec(fp.Position),
		Size:      WH{W: fp.Size.X, H: fp.Size.Z},
		GridPos:   GridPos{Row: fp.Center.Row, Col: fp.Center.Col},
		GridSize:  GridSize{W: fp.GridSize.W, H: fp.GridSize.H},
		GridRect:  newGridRect(fp.Rect),
		GridCells: gridCells(fp.Cells),
	}
}

// PointData is a single-cell marker: a pickup, a drop or an agent start.
type PointData struct {
	Name      string     `json:"name"`
	Position  XZ         `json:"position"`
	GridPos   GridPos    `json:"gridPos"`
	GridRect  GridRect   `json:"gridRect"`
	GridCells []GridCell `json:"gridCells"`
}

// NewPointData converts a point footprint to its wire form.
func NewPointData(fp raster.Footprint) PointData {
	return PointData{
		Name:      fp.Name,
		Position:  xzFromVec(fp.Position),
		GridPos:   GridPos{Row: fp.Center.Row, Col: fp.Center.Col},
		GridRect:  newGridRect(fp.Rect),
		GridCells: gridCells(fp.Cells),
	}
}

func newGridRect(r raster.Rect) GridRect {
	return GridRect{
		RowMin: r.RowMin,
		RowMax: r.RowMax,
		ColMin: r.ColMin,
		ColMax: r.ColMax,
	}
}

type AgentEntry struct {
	ID    string    `json:"id"`
	Start PointData `json:"start"`
}

type PalletEntry struct {
	Pickup PointData `json:"pickup"`
	Drop   PointData `json:"drop"`
}

// GridData is the grid geometry shared by every footprint of a payload.
type GridData struct {
	Rows     int     `json:"rows"`
	Cols     int     `json:"cols"`
	CellSize float64 `json:"cellSize"`
	Fraction float64 `json:"fraction"`
	Origin   XZ      `json:"origin"`
}

// NewGridData returns the wire form of g.
func NewGridData(g *raster.Grid) GridData {
	return GridData{
		Rows:     g.Rows,
		Cols:     g.Cols,
		CellSize: g.CellSize,
		Fraction: g.Fraction,
		Origin:   xzFromVec(g.Floor.Origin),
	}
}

// Grid rebuilds the grid the payload was rasterized on.
func (d GridData) Grid() *raster.Grid {
	return &raster.Grid{
		Floor: raster.Floor{
			Origin: raster.Vec2{X: d.Origin.X, Z: d.Origin.Z},
			Width:  float64(d.Cols) * d.CellSize,
			Height: float64(d.Rows) * d.CellSize,
		},
		Fraction: d.Fraction,
		Spec: raster.Spec{
			CellSize: d.CellSize,
			Rows:     d.Rows,
			Cols:     d.Cols,
		},
	}
}

// FactoryData is the complete payload sent to the planner.
type FactoryData struct {
	Grid     GridData     `json:"grid"`
	Floor    ObjectData   `json:"floor"`
	Shelves  []ObjectData `json:"shelves"`
	Machines []ObjectData `json:"machines"`

	// Marker families. They are left out of legacy payloads.
	Agents  []AgentEntry  `json:"agents,omitempty"`
	Pallets []PalletEntry `json:"pallets,omitempty"`
}

package raster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestGrid() *Grid {
	return NewGrid(Floor{Width: 10, Height: 10}, 1.0/3)
}

func TestRasterizeFootprint(t *testing.T) {
	tests := []struct {
		name     string
		grid     *Grid
		min      Vec2
		max      Vec2
		expected Rect
	}{
		{
			name:     "single cell",
			grid:     newTestGrid(),
			min:      Vec2{X: 0, Z: 0},
			max:      Vec2{X: 2, Z: 2},
			expected: Rect{RowMin: 0, RowMax: 0, ColMin: 0, ColMax: 0},
		},
		{
			name:     "spans three cols",
			grid:     newTestGrid(),
			min:      Vec2{X: 3, Z: 0},
			max:      Vec2{X: 7, Z: 1},
			expected: Rect{RowMin: 0, RowMax: 0, ColMin: 0, ColMax: 2},
		},
		{
			name:     "max on a grid line does not claim the next cell",
			grid:     NewGrid(Floor{Width: 4, Height: 4}, 1),
			min:      Vec2{X: 1, Z: 1},
			max:      Vec2{X: 2, Z: 3},
			expected: Rect{RowMin: 1, RowMax: 2, ColMin: 1, ColMax: 1},
		},
		{
			name:     "zero width forces max to min",
			grid:     NewGrid(Floor{Width: 3, Height: 3}, 1),
			min:      Vec2{X: 2, Z: 1},
			max:      Vec2{X: 2, Z: 1},
			expected: Rect{RowMin: 1, RowMax: 1, ColMin: 2, ColMax: 2},
		},
		{
			name:     "clamped past the far edge",
			grid:     newTestGrid(),
			min:      Vec2{X: 8, Z: 8},
			max:      Vec2{X: 30, Z: 30},
			expected: Rect{RowMin: 2, RowMax: 2, ColMin: 2, ColMax: 2},
		},
		{
			name:     "clamped before the origin",
			grid:     newTestGrid(),
			min:      Vec2{X: -30, Z: -30},
			max:      Vec2{X: -20, Z: 4},
			expected: Rect{RowMin: 0, RowMax: 1, ColMin: 0, ColMax: 0},
		},
		{
			name:     "offset origin",
			grid:     NewGrid(Floor{Origin: Vec2{X: -2, Z: -2}, Width: 4, Height: 4}, 1),
			min:      Vec2{X: -1.5, Z: 0.5},
			max:      Vec2{X: 0.5, Z: 1.5},
			expected: Rect{RowMin: 2, RowMax: 3, ColMin: 0, ColMax: 2},
		},
		{
			name:     "huge max is clamped to the last col",
			grid:     newTestGrid(),
			min:      Vec2{X: 2, Z: 2},
			max:      Vec2{X: 1e20, Z: 5},
			expected: Rect{RowMin: 0, RowMax: 1, ColMin: 0, ColMax: 2},
		},
		{
			name:     "huge negative min is clamped to the first row",
			grid:     newTestGrid(),
			min:      Vec2{X: 0, Z: -1e300},
			max:      Vec2{X: 1, Z: 1e300},
			expected: Rect{RowMin: 0, RowMax: 2, ColMin: 0, ColMax: 0},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rect := test.grid.RasterizeFootprint(test.min, test.max)
			require.Equal(t, test.expected, rect)
		})
	}
}

func TestRectCellsAreRowMajor(t *testing.T) {
	rect := Rect{RowMin: 1, RowMax: 2, ColMin: 3, ColMax: 5}
	require.Equal(t, Size{W: 3, H: 2}, rect.Size())
	require.Equal(t, []Cell{
		{Row: 1, Col: 3},
		{Row: 1, Col: 4},
		{Row: 1, Col: 5},
		{Row: 2, Col: 3},
		{Row: 2, Col: 4},
		{Row: 2, Col: 5},
	}, rect.Cells())
}

func TestCenterCellCanDivergeFromRectMidpoint(t *testing.T) {
	g := newTestGrid()
	bounds := NewBoundsFromCorners(Vec2{X: 3.2, Z: 0}, Vec2{X: 3.5, Z: 1})

	fp := g.Rasterize("shelf", Vec2{}, bounds, true)
	require.Equal(t, 0, fp.Rect.ColMin)
	require.Equal(t, 1, fp.Rect.ColMax)
	require.Equal(t, Cell{Row: 0, Col: 1}, fp.Center)
	require.False(t, fp.Degenerate)
}

func TestCenterCellHugeCoordinates(t *testing.T) {
	g := newTestGrid()
	require.Equal(t, Cell{Row: 0, Col: 2}, g.CenterCell(Vec2{X: 1e20, Z: -1e20}))
	require.Equal(t, Cell{Row: 2, Col: 0}, g.CenterCell(Vec2{X: -1e300, Z: 1e300}))
}

func TestRasterize(t *testing.T) {
	g := newTestGrid()
	bounds := NewBoundsFromCorners(Vec2{X: 3, Z: 0}, Vec2{X: 7, Z: 1})

	fp := g.Rasterize("machine", Vec2{X: 100, Z: 100}, bounds, true)
	require.Equal(t, "machine", fp.Name)
	require.Equal(t, Vec2{X: 5, Z: 0.5}, fp.Position)
	require.Equal(t, Vec2{X: 4, Z: 1}, fp.Size)
	require.Equal(t, Cell{Row: 0, Col: 1}, fp.Center)
	require.Equal(t, Size{W: 3, H: 1}, fp.GridSize)
	require.Len(t, fp.Cells, 3)
	require.False(t, fp.Clamped)
}

func TestRasterizeClamped(t *testing.T) {
	g := newTestGrid()
	bounds := NewBoundsFromCorners(Vec2{X: 9, Z: 9}, Vec2{X: 12, Z: 12})

	fp := g.Rasterize("overhang", Vec2{}, bounds, true)
	require.True(t, fp.Clamped)
	require.Equal(t, Rect{RowMin: 2, RowMax: 2, ColMin: 2, ColMax: 2}, fp.Rect)
	require.Equal(t, Cell{Row: 2, Col: 2}, fp.Center)
}

func TestRasterizeDegenerate(t *testing.T) {
	g := newTestGrid()

	t.Run("without bounds uses the position", func(t *testing.T) {
		fp := g.Rasterize("marker", Vec2{X: 5, Z: 8}, Bounds{}, false)
		require.True(t, fp.Degenerate)
		require.Equal(t, Vec2{X: 5, Z: 8}, fp.Position)
		require.Equal(t, Cell{Row: 2, Col: 1}, fp.Center)
		require.Equal(t, []Cell{{Row: 2, Col: 1}}, fp.Cells)
		require.Equal(t, Size{W: 1, H: 1}, fp.GridSize)
		require.Equal(t, Vec2{X: g.CellSize, Z: g.CellSize}, fp.Size)
	})

	t.Run("flat bounds use the bounds center", func(t *testing.T) {
		bounds := NewBounds(Vec2{X: 1, Z: 1}, Vec2{})
		fp := g.Rasterize("marker", Vec2{X: 9, Z: 9}, bounds, true)
		require.True(t, fp.Degenerate)
		require.Equal(t, Vec2{X: 1, Z: 1}, fp.Position)
		require.Equal(t, []Cell{{Row: 0, Col: 0}}, fp.Cells)
	})

	t.Run("point outside the floor is clamped", func(t *testing.T) {
		fp := g.RasterizePoint("marker", Vec2{X: -4, Z: 40})
		require.Equal(t, Rect{RowMin: 2, RowMax: 2, ColMin: 0, ColMax: 0}, fp.Rect)
	})
}

func TestRasterizeProperties(t *testing.T) {
	r := rand.New(rand.NewSource(7))

	for i := 0; i < 500; i++ {
		floor := Floor{
			Origin: Vec2{X: r.Float64()*20 - 10, Z: r.Float64()*20 - 10},
			Width:  1 + r.Float64()*50,
			Height: 1 + r.Float64()*50,
		}
		g := NewGrid(floor, 0.05+r.Float64()*0.95)

		a := Vec2{
			X: floor.Origin.X + (r.Float64()*1.4-0.2)*floor.Width,
			Z: floor.Origin.Z + (r.Float64()*1.4-0.2)*floor.Height,
		}
		b := Vec2{
			X: floor.Origin.X + (r.Float64()*1.4-0.2)*floor.Width,
			Z: floor.Origin.Z + (r.Float64()*1.4-0.2)*floor.Height,
		}
		fp := g.Rasterize("object", Vec2{}, NewBoundsFromCorners(a, b), true)

		require.LessOrEqual(t, 0, fp.Rect.RowMin)
		require.LessOrEqual(t, fp.Rect.RowMin, fp.Rect.RowMax)
		require.Less(t, fp.Rect.RowMax, g.Rows)
		require.LessOrEqual(t, 0, fp.Rect.ColMin)
		require.LessOrEqual(t, fp.Rect.ColMin, fp.Rect.ColMax)
		require.Less(t, fp.Rect.ColMax, g.Cols)

		require.Len(t, fp.Cells, fp.GridSize.W*fp.GridSize.H)
		for j := 1; j < len(fp.Cells); j++ {
			prev, cur := fp.Cells[j-1], fp.Cells[j]
			require.True(t, prev.Row < cur.Row || (prev.Row == cur.Row && prev.Col < cur.Col))
		}

		require.GreaterOrEqual(t, fp.Center.Row, 0)
		require.Less(t, fp.Center.Row, g.Rows)
		require.GreaterOrEqual(t, fp.Center.Col, 0)
		require.Less(t, fp.Center.Col, g.Cols)
	}
}

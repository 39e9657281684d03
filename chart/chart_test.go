package chart

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/warehousesim/gridexport/layout"
)

func testData() layout.FactoryData {
	return layout.FactoryData{
		Grid:  layout.GridData{Rows: 4, Cols: 4, CellSize: 1, Fraction: 1},
		Floor: layout.ObjectData{Name: "Floor"},
		Shelves: []layout.ObjectData{
			{Name: "Shelf", GridCells: []layout.GridCell{{R: 1, C: 1}, {R: 1, C: 2}}},
		},
		Machines: []layout.ObjectData{},
		Agents: []layout.AgentEntry{
			{ID: "A0", Start: layout.PointData{GridCells: []layout.GridCell{{R: 0, C: 0}}}},
		},
		Pallets: []layout.PalletEntry{
			{
				Pickup: layout.PointData{GridCells: []layout.GridCell{{R: 3, C: 0}}},
				Drop:   layout.PointData{GridCells: []layout.GridCell{{R: 3, C: 3}}},
			},
		},
	}
}

func TestFamilies(t *testing.T) {
	fams := families(testData())

	names := make([]string, len(fams))
	for i, f := range fams {
		names[i] = f.name
	}
	require.Equal(t, []string{"shelves", "agents", "pickups", "drops"}, names)
	require.Len(t, fams[0].cells, 2)
}

func TestCellCenter(t *testing.T) {
	x, y := cellCenter(layout.GridCell{R: 2, C: 5})
	require.Equal(t, 5.5, x)
	require.Equal(t, 2.5, y)
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, testData()))
	require.Contains(t, buf.String(), "<html")
	require.Contains(t, buf.String(), "shelves")
}

func TestRenderPNG(t *testing.T) {
	plan := &layout.Plan{
		PathToBox:      []layout.Point{{0, 0}, {0, 3}},
		PathToDelivery: []layout.Point{{0, 3}, {3, 3}},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, testData(), plan))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	buf.Reset()
	require.NoError(t, RenderPNG(&buf, testData(), nil))
	require.NotZero(t, buf.Len())
}

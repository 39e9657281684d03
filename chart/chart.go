// Package chart renders layouts for debugging: an interactive HTML scatter
// of the occupied cells and a static PNG that also draws the planner paths.
package chart

import (
	"github.com/warehousesim/gridexport/layout"
)

// series is the occupied cells of one object family.
type series struct {
	name  string
	cells []layout.GridCell
}

// families returns the occupied cells of every family but the floor, which
// covers the whole grid.
func families(data layout.FactoryData) []series {
	objects := func(objs []layout.ObjectData) []layout.GridCell {
		var cells []layout.GridCell
		for _, o := range objs {
			cells = append(cells, o.GridCells...)
		}
		return cells
	}

	var agents, pickups, drops []layout.GridCell
	for _, a := range data.Agents {
		agents = append(agents, a.Start.GridCells...)
	}
	for _, p := range data.Pallets {
		pickups = append(pickups, p.Pickup.GridCells...)
		drops = append(drops, p.Drop.GridCells...)
	}

	all := []series{
		{name: "shelves", cells: objects(data.Shelves)},
		{name: "machines", cells: objects(data.Machines)},
		{name: "agents", cells: agents},
		{name: "pickups", cells: pickups},
		{name: "drops", cells: drops},
	}

	res := all[:0]
	for _, s := range all {
		if len(s.cells) != 0 {
			res = append(res, s)
		}
	}
	return res
}

// cellCenter returns the plot coordinates of the center of a cell: columns
// on the horizontal axis and rows on the vertical one.
func cellCenter(c layout.GridCell) (float64, float64) {
	return float64(c.C) + 0.5, float64(c.R) + 0.5
}

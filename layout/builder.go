package layout

import (
	"fmt"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/warehousesim/gridexport/raster"
	"github.com/warehousesim/gridexport/scene"
)

// DefaultMaxCells is the largest grid built when Options.MaxCells is zero.
const DefaultMaxCells = 1 << 20

// Options tunes how a scene is converted.
type Options struct {
	// Fraction overrides the scene grid density when not zero.
	Fraction float64

	// Markers enables the agents and pallets families.
	Markers bool

	// MaxCells caps rows*cols. DefaultMaxCells is used when zero.
	MaxCells int
}

// Build rasterizes every object of s on a single grid and returns the
// planner payload.
func Build(s *scene.Scene, opts Options) (FactoryData, error) {
	start := time.Now()

	floorBounds, err := s.FloorBounds()
	if err != nil {
		return FactoryData{}, errors.New("building layout failed").
			WithType(errors.Type(err)).
			Wrap(err)
	}

	fraction := s.Fraction
	if opts.Fraction != 0 {
		fraction = opts.Fraction
	}
	if fraction <= 0 || fraction > 1 {
		return FactoryData{}, errors.New("fraction out of range").
			WithTag("fraction", fraction).
			WithType(scene.ErrTypeInvalidScene)
	}

	maxCells := opts.MaxCells
	if maxCells <= 0 {
		maxCells = DefaultMaxCells
	}
	floor := raster.FloorFromBounds(floorBounds)
	spec := raster.ComputeGrid(floor.Width, floor.Height, fraction)
	if cells := float64(spec.Rows) * float64(spec.Cols); cells > float64(maxCells) {
		return FactoryData{}, errors.New("grid too large").
			WithTag("rows", spec.Rows).
			WithTag("cols", spec.Cols).
			WithTag("max_cells", maxCells).
			WithType(scene.ErrTypeInvalidScene)
	}

	grid := raster.NewGrid(floor, fraction)
	b := builder{grid: grid}

	data := FactoryData{
		Grid:     NewGridData(grid),
		Floor:    NewObjectData(grid.Rasterize(s.Floor.Name, s.Floor.Position.XZ(), floorBounds, true)),
		Shelves:  b.objects(familyShelf, s.Shelves),
		Machines: b.objects(familyMachine, s.Machines),
	}

	if opts.Markers {
		data.Agents = b.agents(s.Agents)
		data.Pallets = b.pallets(s.Pallets, s.Deliveries)

		if len(data.Pallets) == 0 {
			logs.Warn(errors.New("no pallets with both a pickup and a drop").
				WithTag("pickups", len(s.Pallets)).
				WithTag("drops", len(s.Deliveries)))
		}
		if len(data.Agents) == 0 {
			logs.Warn(errors.New("no agent start defined"))
		}
	}

	instrumentBuild(time.Since(start))
	logs.WithTag("rows", grid.Rows).
		WithTag("cols", grid.Cols).
		WithTag("cell_size", grid.CellSize).
		WithTag("shelves", len(data.Shelves)).
		WithTag("machines", len(data.Machines)).
		WithTag("agents", len(data.Agents)).
		WithTag("pallets", len(data.Pallets)).
		Debug("layout built")
	return data, nil
}

type builder struct {
	grid *raster.Grid
}

// objects rasterizes full footprints. Objects without geometry fall back to
// their transform position.
func (b builder) objects(family string, objs []scene.Object) []ObjectData {
	res := make([]ObjectData, 0, len(objs))
	for _, o := range objs {
		bounds, ok := o.WorldBounds()
		fp := b.grid.Rasterize(o.Name, o.Position.XZ(), bounds, ok)
		instrumentFamily(family, fp)
		res = append(res, NewObjectData(fp))
	}
	return res
}

// point rasterizes a marker at its transform position, whatever its
// geometry.
func (b builder) point(family string, o scene.Object) PointData {
	fp := b.grid.RasterizePoint(o.Name, o.Position.XZ())
	instrumentFamily(family, fp)
	return NewPointData(fp)
}

func (b builder) agents(objs []scene.Object) []AgentEntry {
	res := make([]AgentEntry, 0, len(objs))
	for i, o := range objs {
		res = append(res, AgentEntry{
			ID:    AgentID(i),
			Start: b.point(familyAgent, o),
		})
	}
	return res
}

// pallets pairs pickups and drops by index. Extra markers on either side are
// dropped.
func (b builder) pallets(pickups, drops []scene.Object) []PalletEntry {
	n := min(len(pickups), len(drops))
	if len(pickups) != len(drops) {
		logs.Warn(errors.New("pickup and drop counts differ").
			WithTag("pickups", len(pickups)).
			WithTag("drops", len(drops)).
			WithTag("exported", n))
	}

	res := make([]PalletEntry, 0, n)
	for i := 0; i < n; i++ {
		res = append(res, PalletEntry{
			Pickup: b.point(familyPickup, pickups[i]),
			Drop:   b.point(familyDrop, drops[i]),
		})
	}
	return res
}

// AgentID returns the id of the agent at index i.
func AgentID(i int) string {
	return fmt.Sprintf("A%d", i)
}

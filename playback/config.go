// Package playback animates agents along planner paths. Animations are
// explicit state machines advanced by an external clock through Tick.
package playback

import (
	"math"
	"time"

	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/raster"
	"gonum.org/v1/gonum/spatial/r3"
)

// Config holds the timing and geometry shared by every script.
type Config struct {
	// StepTime is the duration of a single move or turn.
	StepTime time.Duration

	// Loop replays a script once it is complete.
	Loop bool

	// NodePause is the pause after reaching each path node.
	NodePause time.Duration

	// ActionDelay is the pause between patrol actions.
	ActionDelay time.Duration

	// PickupPause is the pause after picking up or dropping a box.
	PickupPause time.Duration

	// CellSize and Origin map planner grid coordinates to world positions.
	CellSize float64
	Origin   raster.Vec2

	// PatrolDistance is how far a patrol goes in each direction.
	PatrolDistance float64

	// PickupDistance is how far an agent walks to reach a box.
	PickupDistance float64
}

func DefaultConfig() Config {
	return Config{
		StepTime:       500 * time.Millisecond,
		NodePause:      100 * time.Millisecond,
		ActionDelay:    150 * time.Millisecond,
		PickupPause:    500 * time.Millisecond,
		CellSize:       1,
		PatrolDistance: 3,
		PickupDistance: 1,
	}
}

// WithGrid returns c mapping planner coordinates onto g.
func (c Config) WithGrid(g layout.GridData) Config {
	c.CellSize = g.CellSize
	c.Origin = raster.Vec2{X: g.Origin.X, Z: g.Origin.Z}
	return c
}

// ToWorld returns the world position of a planner [x, y] coordinate. x runs
// along world X and y along world Z.
func (c Config) ToWorld(p layout.Point) r3.Vec {
	return r3.Vec{
		X: c.Origin.X + float64(p.X())*c.CellSize,
		Z: c.Origin.Z + float64(p.Y())*c.CellSize,
	}
}

// Heading returns the yaw, in degrees, that faces from a to b. Yaw 0 faces
// +Z and yaw 90 faces +X.
func Heading(a, b r3.Vec) float64 {
	return normalizeYaw(math.Atan2(b.X-a.X, b.Z-a.Z) * 180 / math.Pi)
}

// Forward returns the unit vector faced at the given yaw. Components are
// rounded to 1e-9 so that cardinal headings give exact axes.
func Forward(yaw float64) r3.Vec {
	const p = 1e9
	rad := yaw * math.Pi / 180
	return r3.Vec{
		X: math.Round(math.Sin(rad)*p) / p,
		Z: math.Round(math.Cos(rad)*p) / p,
	}
}

func normalizeYaw(yaw float64) float64 {
	yaw = math.Mod(yaw, 360)
	if yaw < 0 {
		yaw += 360
	}
	return yaw
}

package playback

import (
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/warehousesim/gridexport/layout"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeEmptyPath = "empty-path"

	// faceThreshold is the segment length under which an agent keeps its
	// heading.
	faceThreshold = 0.1
)

// DeliveryScript walks an agent from the first node of the path to the box
// along that path, picks the box up, then follows the delivery path and
// drops it. Without a delivery path the script ends holding the box.
func DeliveryScript(p *layout.Plan, cfg Config) (Script, error) {
	if p == nil || len(p.PathToBox) == 0 {
		return Script{}, errors.New("plan has no path to box").
			WithType(ErrTypeEmptyPath)
	}

	start := cfg.ToWorld(p.PathToBox[0])
	s := Script{
		Start:  start,
		Rewind: true,
	}

	pos := start
	pos = followPath(&s, pos, p.PathToBox, cfg)
	s.Steps = append(s.Steps,
		Carry(true),
		Wait(cfg.PickupPause),
	)

	if len(p.PathToDelivery) > 0 {
		followPath(&s, pos, p.PathToDelivery, cfg)
		s.Steps = append(s.Steps,
			Carry(false),
			Wait(cfg.PickupPause),
		)
	}
	return s, nil
}

// followPath appends the steps walking from the second node of path to its
// last one. The agent is assumed to stand on the first node.
func followPath(s *Script, pos r3.Vec, path []layout.Point, cfg Config) r3.Vec {
	for _, node := range path[min(1, len(path)):] {
		target := cfg.ToWorld(node)
		if r3.Norm(r3.Sub(target, pos)) > faceThreshold {
			s.Steps = append(s.Steps, Face(Heading(pos, target)))
		}
		s.Steps = append(s.Steps,
			MoveTo(target, cfg.StepTime),
			Wait(cfg.NodePause),
		)
		pos = target
	}
	return pos
}

// PatrolScript sweeps out and back along the four directions around start,
// turning a quarter each time, then walks forward to pick a box up. The
// second half repeats the sweep and drops the box. When carrying is set the
// drop comes first.
func PatrolScript(start r3.Vec, yaw float64, carrying bool, cfg Config) Script {
	s := Script{
		Start:    start,
		Yaw:      yaw,
		Carrying: carrying,
	}

	for _, carry := range []bool{!carrying, carrying} {
		for dir := 0; dir < 4; dir++ {
			heading := yaw + 90*float64(dir)
			offset := r3.Scale(cfg.PatrolDistance, Forward(heading))

			s.Steps = append(s.Steps,
				RotateTo(heading, cfg.StepTime),
				Wait(cfg.ActionDelay),
				MoveBy(offset, cfg.StepTime),
				Wait(cfg.ActionDelay),
				MoveBy(r3.Scale(-1, offset), cfg.StepTime),
				Wait(cfg.ActionDelay),
			)
		}

		s.Steps = append(s.Steps,
			RotateTo(yaw, cfg.StepTime),
			Wait(cfg.ActionDelay),
			Wait(cfg.ActionDelay),
			MoveBy(r3.Scale(cfg.PickupDistance, Forward(yaw)), cfg.StepTime),
			Wait(cfg.ActionDelay),
			Wait(cfg.StepTime/2),
			Carry(carry),
			Wait(cfg.ActionDelay),
		)
	}
	return s
}

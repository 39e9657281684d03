package playback

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Frame is the agent state after a tick.
type Frame struct {
	Position r3.Vec  `json:"position"`
	Yaw      float64 `json:"yaw"`
	Carrying bool    `json:"carrying"`
	Step     int     `json:"step"`
	Pass     int     `json:"pass"`
	Done     bool    `json:"done"`
}

// Runner executes a script. It is not safe for concurrent use.
type Runner struct {
	script Script
	loop   bool

	position r3.Vec
	yaw      float64
	carrying bool

	index   int
	pass    int
	active  bool
	done    bool
	move    Tween
	turn    YawTween
	waiting time.Duration
}

func NewRunner(s Script, loop bool) *Runner {
	return &Runner{
		script:   s,
		loop:     loop,
		position: s.Start,
		yaw:      normalizeYaw(s.Yaw),
		carrying: s.Carrying,
	}
}

// Frame returns the current state without advancing time.
func (r *Runner) Frame() Frame {
	return Frame{
		Position: r.position,
		Yaw:      r.yaw,
		Carrying: r.carrying,
		Step:     r.index,
		Pass:     r.pass,
		Done:     r.done,
	}
}

// Tick advances the script by dt. Time left over by a completed step is
// spent on the following ones.
func (r *Runner) Tick(dt time.Duration) Frame {
	remaining := dt
	instant := 0

	for !r.done {
		if r.index >= len(r.script.Steps) {
			if !r.loop || len(r.script.Steps) == 0 {
				r.done = true
				break
			}
			r.restart()
		}

		if !r.active {
			r.begin(r.script.Steps[r.index])
		}

		before := remaining
		finished, left := r.advance(r.script.Steps[r.index], remaining)
		remaining = left
		if !finished {
			break
		}

		r.active = false
		r.index++

		// A looping script made of instant steps would never consume
		// time.
		if before == remaining {
			instant++
			if instant > len(r.script.Steps) {
				break
			}
		} else {
			instant = 0
		}
	}
	return r.Frame()
}

func (r *Runner) restart() {
	r.index = 0
	r.pass++
	if r.script.Rewind {
		r.position = r.script.Start
		r.yaw = normalizeYaw(r.script.Yaw)
		r.carrying = r.script.Carrying
	}
}

func (r *Runner) begin(s Step) {
	r.active = true

	switch s.Kind {
	case StepMove:
		target := s.Target
		if s.Relative {
			target = r3.Add(r.position, s.Offset)
		}
		r.move.Begin(r.position, target, s.Duration)

	case StepRotate:
		r.turn.Begin(r.yaw, s.Yaw, s.Duration)

	case StepWait:
		r.waiting = 0
	}
}

func (r *Runner) advance(s Step, dt time.Duration) (bool, time.Duration) {
	switch s.Kind {
	case StepMove:
		pos, left := r.move.Tick(dt)
		r.position = pos
		return r.move.State == Idle, left

	case StepRotate:
		yaw, left := r.turn.Tick(dt)
		r.yaw = yaw
		return r.turn.State == Idle, left

	case StepFace:
		r.yaw = normalizeYaw(s.Yaw)
		return true, dt

	case StepCarry:
		r.carrying = s.Carrying
		return true, dt

	case StepWait:
		r.waiting += dt
		if r.waiting >= s.Duration {
			return true, r.waiting - s.Duration
		}
		return false, 0

	default:
		return true, dt
	}
}

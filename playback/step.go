package playback

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

type StepKind int

const (
	// StepMove walks to Target, or by Offset when Relative is set.
	StepMove StepKind = iota

	// StepRotate turns to Yaw over Duration.
	StepRotate

	// StepFace snaps the heading to Yaw.
	StepFace

	// StepWait holds still for Duration.
	StepWait

	// StepCarry sets whether the agent carries a box.
	StepCarry
)

func (k StepKind) String() string {
	switch k {
	case StepMove:
		return "move"
	case StepRotate:
		return "rotate"
	case StepFace:
		return "face"
	case StepWait:
		return "wait"
	case StepCarry:
		return "carry"
	default:
		return "unknown"
	}
}

// Step is a single scripted action.
type Step struct {
	Kind     StepKind
	Duration time.Duration

	Target   r3.Vec
	Offset   r3.Vec
	Relative bool

	Yaw float64

	Carrying bool
}

func MoveTo(target r3.Vec, d time.Duration) Step {
	return Step{Kind: StepMove, Target: target, Duration: d}
}

func MoveBy(offset r3.Vec, d time.Duration) Step {
	return Step{Kind: StepMove, Offset: offset, Relative: true, Duration: d}
}

func RotateTo(yaw float64, d time.Duration) Step {
	return Step{Kind: StepRotate, Yaw: yaw, Duration: d}
}

func Face(yaw float64) Step {
	return Step{Kind: StepFace, Yaw: yaw}
}

func Wait(d time.Duration) Step {
	return Step{Kind: StepWait, Duration: d}
}

func Carry(carrying bool) Step {
	return Step{Kind: StepCarry, Carrying: carrying}
}

// Script is a list of steps and the agent state they start from.
type Script struct {
	Start    r3.Vec
	Yaw      float64
	Carrying bool
	Steps    []Step

	// Rewind restores the start state each time a looping script restarts.
	// Otherwise the next pass continues from where the previous one ended.
	Rewind bool
}

// Duration returns the time a single pass of the script takes.
func (s Script) Duration() time.Duration {
	var d time.Duration
	for _, step := range s.Steps {
		d += step.Duration
	}
	return d
}

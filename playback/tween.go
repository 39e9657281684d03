package playback

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

type TweenState int

const (
	Idle TweenState = iota
	Animating
)

func (s TweenState) String() string {
	switch s {
	case Idle:
		return "idle"
	case Animating:
		return "animating"
	default:
		return "unknown"
	}
}

// Tween linearly interpolates a position over a duration.
type Tween struct {
	State    TweenState
	Start    r3.Vec
	End      r3.Vec
	Elapsed  time.Duration
	Duration time.Duration
}

// Begin starts animating from start to end.
func (tw *Tween) Begin(start, end r3.Vec, d time.Duration) {
	*tw = Tween{
		State:    Animating,
		Start:    start,
		End:      end,
		Duration: d,
	}
}

// Tick advances the tween by dt. It returns the interpolated position and
// the part of dt left once the tween completed.
func (tw *Tween) Tick(dt time.Duration) (r3.Vec, time.Duration) {
	if tw.State == Idle {
		return tw.End, dt
	}

	tw.Elapsed += dt
	f, leftover := progress(tw.Elapsed, tw.Duration)
	if f >= 1 {
		tw.State = Idle
		return tw.End, leftover
	}
	return r3.Add(tw.Start, r3.Scale(f, r3.Sub(tw.End, tw.Start))), 0
}

// YawTween rotates about the up axis along the shortest arc.
type YawTween struct {
	State    TweenState
	Start    float64
	End      float64
	Elapsed  time.Duration
	Duration time.Duration
}

func (tw *YawTween) Begin(start, end float64, d time.Duration) {
	*tw = YawTween{
		State:    Animating,
		Start:    normalizeYaw(start),
		End:      normalizeYaw(end),
		Duration: d,
	}
}

func (tw *YawTween) Tick(dt time.Duration) (float64, time.Duration) {
	if tw.State == Idle {
		return tw.End, dt
	}

	tw.Elapsed += dt
	f, leftover := progress(tw.Elapsed, tw.Duration)
	if f >= 1 {
		tw.State = Idle
		return tw.End, leftover
	}
	return normalizeYaw(tw.Start + f*shortestArc(tw.Start, tw.End)), 0
}

// shortestArc returns the signed rotation, in (-180, 180], from a to b.
func shortestArc(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	switch {
	case d > 180:
		d -= 360
	case d <= -180:
		d += 360
	}
	return d
}

// progress returns elapsed/duration clamped into [0, 1] and the time spent
// past the duration.
func progress(elapsed, duration time.Duration) (float64, time.Duration) {
	if elapsed >= duration {
		return 1, elapsed - duration
	}
	if elapsed <= 0 {
		return 0, 0
	}
	return float64(elapsed) / float64(duration), 0
}

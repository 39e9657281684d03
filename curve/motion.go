package curve

import (
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Motion moves along a curve over a fixed duration.
type Motion struct {
	Curve    Curve
	Duration time.Duration

	// Loop restarts the curve once it is complete instead of holding the
	// last position.
	Loop bool

	// SpinRate is a rotation about the up axis, in degrees per second.
	SpinRate float64

	t   float64
	yaw float64
}

// Tick advances the motion by dt and returns the new position and yaw.
func (m *Motion) Tick(dt time.Duration) (r3.Vec, float64) {
	if m.Duration > 0 {
		m.t += dt.Seconds() / m.Duration.Seconds()
	} else {
		m.t = 1
	}

	if m.t >= 1 {
		if m.Loop && m.Duration > 0 {
			m.t = math.Mod(m.t, 1)
		} else {
			m.t = 1
		}
	}

	m.yaw = math.Mod(m.yaw+m.SpinRate*dt.Seconds(), 360)
	return m.Curve.Position(m.t), m.yaw
}

// T returns the current curve parameter.
func (m *Motion) T() float64 {
	return m.t
}

// Done reports whether a non looping motion reached the end of its curve.
func (m *Motion) Done() bool {
	return !m.Loop && m.t >= 1
}

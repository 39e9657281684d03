package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

func TestTween(t *testing.T) {
	var tw Tween
	require.Equal(t, Idle, tw.State)

	tw.Begin(r3.Vec{}, r3.Vec{X: 4}, time.Second)
	require.Equal(t, Animating, tw.State)

	pos, left := tw.Tick(250 * time.Millisecond)
	require.InDelta(t, 1, pos.X, 1e-9)
	require.Zero(t, left)
	require.Equal(t, Animating, tw.State)

	pos, left = tw.Tick(time.Second)
	require.Equal(t, r3.Vec{X: 4}, pos)
	require.Equal(t, 250*time.Millisecond, left)
	require.Equal(t, Idle, tw.State)

	pos, left = tw.Tick(time.Second)
	require.Equal(t, r3.Vec{X: 4}, pos)
	require.Equal(t, time.Second, left)
}

func TestTweenZeroDuration(t *testing.T) {
	var tw Tween
	tw.Begin(r3.Vec{}, r3.Vec{Z: 1}, 0)

	pos, left := tw.Tick(0)
	require.Equal(t, r3.Vec{Z: 1}, pos)
	require.Zero(t, left)
	require.Equal(t, Idle, tw.State)
}

func TestYawTweenShortestArc(t *testing.T) {
	tests := []struct {
		name    string
		start   float64
		end     float64
		halfway float64
	}{
		{name: "clockwise", start: 0, end: 90, halfway: 45},
		{name: "counter clockwise", start: 90, end: 0, halfway: 45},
		{name: "across north", start: 350, end: 10, halfway: 0},
		{name: "across north backwards", start: 10, end: 350, halfway: 0},
		{name: "negative input", start: -90, end: 0, halfway: 315},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var tw YawTween
			tw.Begin(test.start, test.end, time.Second)

			yaw, _ := tw.Tick(500 * time.Millisecond)
			require.InDelta(t, test.halfway, yaw, 1e-9)

			yaw, _ = tw.Tick(500 * time.Millisecond)
			require.InDelta(t, normalizeYaw(test.end), yaw, 1e-9)
			require.Equal(t, Idle, tw.State)
		})
	}
}

func TestHeadingAndForward(t *testing.T) {
	require.InDelta(t, 0, Heading(r3.Vec{}, r3.Vec{Z: 1}), 1e-9)
	require.InDelta(t, 90, Heading(r3.Vec{}, r3.Vec{X: 1}), 1e-9)
	require.InDelta(t, 180, Heading(r3.Vec{}, r3.Vec{Z: -1}), 1e-9)
	require.InDelta(t, 270, Heading(r3.Vec{}, r3.Vec{X: -1}), 1e-9)

	require.Equal(t, r3.Vec{Z: 1}, Forward(0))
	require.Equal(t, r3.Vec{X: 1}, Forward(90))
	require.Equal(t, r3.Vec{Z: -1}, Forward(180))
	require.Equal(t, r3.Vec{X: -1}, Forward(270))
}

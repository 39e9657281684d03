package websocket

import (
	"context"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/playback"
	"golang.org/x/net/websocket"
	"gonum.org/v1/gonum/spatial/r3"
)

func testPlan() *layout.Plan {
	return &layout.Plan{
		DeliveryPoint:  layout.Point{1, 1},
		PathToBox:      []layout.Point{{0, 0}, {1, 0}},
		PathToDelivery: []layout.Point{{1, 0}, {1, 1}},
	}
}

func TestPlaybackDeliveryStream(t *testing.T) {
	env := newTestingEnv(t)
	id := env.addSnapshot(t, testPlan())
	conn := env.dial(t, "/playback/"+id)

	frames := receiveFrames(t, conn)
	require.Greater(t, len(frames), 2)

	first := frames[0]
	require.Equal(t, r3.Vec{}, first.Position)
	require.False(t, first.Carrying)
	require.False(t, first.Done)

	last := frames[len(frames)-1]
	require.True(t, last.Done)
	require.False(t, last.Carrying)
	require.InDelta(t, 2, last.Position.X, 1e-9)
	require.InDelta(t, 2, last.Position.Z, 1e-9)

	var carried bool
	for _, f := range frames {
		carried = carried || f.Carrying
	}
	require.True(t, carried)

	_, err := receive(t, conn)
	require.Error(t, err)
}

func TestPlaybackRejected(t *testing.T) {
	env := newTestingEnv(t)
	withoutPlan := env.addSnapshot(t, nil)
	withPlan := env.addSnapshot(t, testPlan())

	tests := []struct {
		name string
		path string
	}{
		{name: "unknown snapshot", path: "/playback/missing"},
		{name: "no plan", path: "/playback/" + withoutPlan},
		{name: "unknown mode", path: "/playback/" + withPlan + "?mode=dance"},
		{name: "invalid loop", path: "/playback/" + withPlan + "?loop=maybe"},
		{name: "unknown agent", path: "/playback/" + withPlan + "?mode=patrol&agent=3"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			conn := env.dial(t, test.path)

			msg, err := receive(t, conn)
			require.NoError(t, err)
			require.Equal(t, MsgTypeError, msg.Type)
			require.NotEmpty(t, msg.Error)

			_, err = receive(t, conn)
			require.Error(t, err)
		})
	}
}

func TestPlaybackPatrolStream(t *testing.T) {
	env := newTestingEnv(t)
	id := env.addSnapshot(t, nil)
	conn := env.dial(t, "/playback/"+id+"?mode=patrol&loop=true")

	msg, err := receive(t, conn)
	require.NoError(t, err)
	require.Equal(t, MsgTypeFrame, msg.Type)
	require.Equal(t, r3.Vec{X: 1, Z: 1}, msg.Frame.Position)

	require.NoError(t, websocket.JSON.Send(conn, Msg{Type: "jump"}))

	for i := 0; i < 1000; i++ {
		msg, err := receive(t, conn)
		require.NoError(t, err)
		if msg.Type == MsgTypeError {
			return
		}
		require.False(t, msg.Frame.Done)
	}
	t.Fatal("unsupported message was not reported")
}

func TestPlaybackStopsOnShutdown(t *testing.T) {
	env := newTestingEnv(t)
	id := env.addSnapshot(t, nil)
	conn := env.dial(t, "/playback/"+id+"?mode=patrol&loop=true")

	_, err := receive(t, conn)
	require.NoError(t, err)

	env.cancel()

	for i := 0; i < 1000; i++ {
		if _, err := receive(t, conn); err != nil {
			return
		}
	}
	t.Fatal("stream did not stop")
}

func TestPlaybackHandlerControl(t *testing.T) {
	h := &PlaybackHandler{
		Config:        testConfig(),
		FrameInterval: time.Millisecond,
	}
	h.script = playback.Script{
		Steps: []playback.Step{
			playback.MoveTo(r3.Vec{X: 1}, 10*time.Millisecond),
		},
	}
	h.runner = playback.NewRunner(h.script, false)
	ctx := context.Background()

	frame := h.HandleFrame(5 * time.Millisecond)
	require.InDelta(t, 0.5, frame.Position.X, 1e-9)

	require.NoError(t, h.HandleControl(ctx, Msg{Type: MsgTypePause}))
	require.True(t, h.Paused())

	require.NoError(t, h.HandleControl(ctx, Msg{Type: MsgTypeRestart}))
	require.False(t, h.Paused())
	require.Equal(t, r3.Vec{}, h.HandleFrame(0).Position)

	require.NoError(t, h.HandleControl(ctx, Msg{Type: MsgTypePause}))
	require.NoError(t, h.HandleControl(ctx, Msg{Type: MsgTypeResume}))
	require.False(t, h.Paused())

	err := h.HandleControl(ctx, Msg{Type: MsgTypeFrame})
	require.True(t, errors.IsType(err, ErrTypeInvalidRequest))
}

func TestAgentStart(t *testing.T) {
	data := testData()

	start, err := agentStart(data, "")
	require.NoError(t, err)
	require.Equal(t, r3.Vec{X: 1, Z: 1}, start)

	_, err = agentStart(data, "x")
	require.True(t, errors.IsType(err, ErrTypeInvalidRequest))

	_, err = agentStart(data, "1")
	require.True(t, errors.IsType(err, ErrTypeNoAgent))

	_, err = agentStart(data, "-1")
	require.True(t, errors.IsType(err, ErrTypeNoAgent))
}

package websocket

import (
	"context"
	"strconv"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/google/uuid"
	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/playback"
	"golang.org/x/net/websocket"
	"gonum.org/v1/gonum/spatial/r3"
)

const (
	ErrTypeInvalidRequest = "invalid-request"
	ErrTypeNoPlan         = "no-plan"
	ErrTypeNoAgent        = "no-agent"

	// HeaderClientID lets clients pick the id used in logs.
	HeaderClientID = "X-Client-ID"

	ModeDelivery = "delivery"
	ModePatrol   = "patrol"
)

// PlaybackHandler plays the script of a stored snapshot for a single client.
type PlaybackHandler struct {
	Store layout.Store

	// Timing of the scripts. The grid geometry is taken from the snapshot.
	Config playback.Config

	// The interval between each frame sent to the client. Each frame advances
	// the playback by the same duration.
	FrameInterval time.Duration

	conn       *websocket.Conn
	clientID   string
	snapshotID string
	mode       string

	script playback.Script
	loop   bool
	runner *playback.Runner
	paused bool
}

func (h *PlaybackHandler) HandleConnect(ctx context.Context, conn *websocket.Conn) error {
	h.conn = conn

	req := conn.Request()
	h.clientID = req.Header.Get(HeaderClientID)
	if h.clientID == "" {
		h.clientID = uuid.NewString()
	}
	h.snapshotID = req.PathValue("id")

	query := req.URL.Query()
	h.mode = query.Get("mode")
	if h.mode == "" {
		h.mode = ModeDelivery
	}

	h.loop = h.Config.Loop
	if v := query.Get("loop"); v != "" {
		loop, err := strconv.ParseBool(v)
		if err != nil {
			return errors.New("invalid loop parameter").
				WithTag("loop", v).
				WithType(ErrTypeInvalidRequest).
				Wrap(err)
		}
		h.loop = loop
	}

	snap, err := h.Store.Get(ctx, h.snapshotID)
	if err != nil {
		return err
	}
	cfg := h.Config.WithGrid(snap.Data.Grid)

	switch h.mode {
	case ModeDelivery:
		if snap.Plan == nil {
			return errors.New("snapshot has no plan").
				WithTag("id", h.snapshotID).
				WithType(ErrTypeNoPlan)
		}
		if h.script, err = playback.DeliveryScript(snap.Plan, cfg); err != nil {
			return err
		}

	case ModePatrol:
		agent, err := agentStart(snap.Data, query.Get("agent"))
		if err != nil {
			return err
		}
		h.script = playback.PatrolScript(agent, 0, false, cfg)

	default:
		return errors.New("unknown playback mode").
			WithTag("mode", h.mode).
			WithType(ErrTypeInvalidRequest)
	}

	h.runner = playback.NewRunner(h.script, h.loop)
	return nil
}

// agentStart returns the world start of the agent at the given index, the
// first one when index is empty.
func agentStart(data layout.FactoryData, index string) (r3.Vec, error) {
	i := 0
	if index != "" {
		var err error
		if i, err = strconv.Atoi(index); err != nil {
			return r3.Vec{}, errors.New("invalid agent parameter").
				WithTag("agent", index).
				WithType(ErrTypeInvalidRequest).
				Wrap(err)
		}
	}

	if i < 0 || i >= len(data.Agents) {
		return r3.Vec{}, errors.New("agent not found").
			WithTag("agent", i).
			WithTag("agents", len(data.Agents)).
			WithType(ErrTypeNoAgent)
	}

	start := data.Agents[i].Start.Position
	return r3.Vec{X: start.X, Z: start.Z}, nil
}

func (h *PlaybackHandler) HandleFrame(dt time.Duration) playback.Frame {
	if dt == 0 {
		return h.runner.Frame()
	}
	return h.runner.Tick(dt)
}

func (h *PlaybackHandler) HandleControl(ctx context.Context, msg Msg) error {
	switch msg.Type {
	case MsgTypePause:
		h.paused = true

	case MsgTypeResume:
		h.paused = false

	case MsgTypeRestart:
		h.runner = playback.NewRunner(h.script, h.loop)
		h.paused = false

	default:
		return errors.New("unsupported message").
			WithTag("msg_type", msg.Type).
			WithType(ErrTypeInvalidRequest)
	}
	return nil
}

func (h *PlaybackHandler) HandleDisconnect(err error) {
}

func (h *PlaybackHandler) Receiver() Receiver {
	return newReceiver(h.conn)
}

func (h *PlaybackHandler) Sender() Sender {
	return newSender(h.conn)
}

func (h *PlaybackHandler) Close() {
}

func (h *PlaybackHandler) FrameDuration() time.Duration {
	return h.FrameInterval
}

func (h *PlaybackHandler) Paused() bool {
	return h.paused
}

func (h *PlaybackHandler) GetClientID() string {
	return h.clientID
}

func (h *PlaybackHandler) GetSnapshotID() string {
	return h.snapshotID
}

// Mode returns the playback mode requested by the client.
func (h *PlaybackHandler) Mode() string {
	return h.mode
}

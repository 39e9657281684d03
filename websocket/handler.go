// Package websocket streams agent playback frames to connected clients.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/warehousesim/gridexport/playback"
	"golang.org/x/net/websocket"
)

const (
	sendChanSize = 64
)

// Handler represents a playback stream handler.
type Handler interface {
	// Handles a client connection. A returned error is reported to the client
	// before the connection is closed.
	HandleConnect(ctx context.Context, conn *websocket.Conn) error

	// Advances the playback by dt and returns the resulting frame.
	HandleFrame(dt time.Duration) playback.Frame

	// Handles a control message sent by the client.
	HandleControl(ctx context.Context, msg Msg) error

	// Handles a client's disconnection.
	HandleDisconnect(error)

	// Creates a message receiver used to receive incoming messages.
	Receiver() Receiver

	// Creates a message sender used to send frames.
	Sender() Sender

	// Closes the handler and releases its allocated resources.
	Close()

	// The interval between each frame sent to the client.
	FrameDuration() time.Duration

	// Whether frames are currently produced.
	Paused() bool

	GetClientID() string

	GetSnapshotID() string

	// The playback mode requested by the client.
	Mode() string
}

// Handle streams the playback of h on conn until the playback is complete,
// the client disconnects or ctx is canceled.
func Handle(ctx context.Context, conn *websocket.Conn, h Handler) {
	handler := handler{
		Conn:    conn,
		Handler: h,
	}

	handler.Handle(ctx)
}

type handler struct {
	// The WebSocket connection.
	Conn *websocket.Conn

	// The playback handler.
	Handler Handler

	sendChan       chan Msg
	sender         Sender
	receiver       Receiver
	controlChan    chan Msg
	disconnectChan chan error
}

func (h *handler) Handle(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	err := h.Handler.HandleConnect(ctx, h.Conn)
	h.sender = h.Handler.Sender()
	if err != nil {
		h.sender(Msg{Type: MsgTypeError, Error: err.Error()})
		h.handleDisconnect(err)
		return
	}

	h.disconnectChan = make(chan error, 8)
	defer func() {
		for len(h.disconnectChan) != 0 {
			<-h.disconnectChan
		}
	}()

	var sending, receiving sync.WaitGroup

	h.sendChan = make(chan Msg, sendChanSize)
	sending.Add(1)
	go func() {
		defer sending.Done()
		h.startSending(ctx)
	}()

	h.controlChan = make(chan Msg, sendChanSize)
	h.receiver = h.Handler.Receiver()
	receiving.Add(1)
	go func() {
		defer receiving.Done()
		h.startReceiving(ctx)
	}()

	frameDuration := h.Handler.FrameDuration()
	frameTicker := time.NewTicker(frameDuration)
	defer frameTicker.Stop()

	h.sendFrame(h.Handler.HandleFrame(0))

	var disconnectErr error

loop:
	for {
		select {
		case <-ctx.Done():
			disconnectErr = ctx.Err()
			break loop

		case <-frameTicker.C:
			if h.Handler.Paused() {
				continue
			}

			frame := h.Handler.HandleFrame(frameDuration)
			h.sendFrame(frame)
			if frame.Done {
				break loop
			}

		case msg := <-h.controlChan:
			if err := h.Handler.HandleControl(ctx, msg); err != nil {
				h.send(Msg{Type: MsgTypeError, Error: err.Error()})
			}

		case disconnectErr = <-h.disconnectChan:
			break loop
		}
	}

	// Queued frames are flushed before the connection is closed. Closing it
	// unblocks the receiver.
	cancel()
	sending.Wait()
	h.handleDisconnect(disconnectErr)
	receiving.Wait()
}

func (h *handler) sendFrame(f playback.Frame) {
	h.send(Msg{Type: MsgTypeFrame, Frame: &f})
}

func (h *handler) send(msg Msg) {
	select {
	case h.sendChan <- msg:
	default:
		logs.WithTag("client_id", h.Handler.GetClientID()).
			WithTag("msg_type", msg.Type).
			Debug("send buffer full, message dropped")
	}
}

// startSending drains the queue before returning so that the final frame of
// a completed playback reaches the client.
func (h *handler) startSending(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for len(h.sendChan) != 0 {
				if _, err := h.sender(<-h.sendChan); err != nil {
					return
				}
			}
			return

		case msg := <-h.sendChan:
			if _, err := h.sender(msg); err != nil {
				h.disconnect(errors.New("sending message failed").Wrap(err))
				return
			}
		}
	}
}

func (h *handler) startReceiving(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		default:
			msg, _, err := h.receiver()
			if errors.IsType(err, ErrTypeMsgDecode) {
				h.send(Msg{Type: MsgTypeError, Error: err.Error()})
				continue
			}
			if err != nil {
				h.disconnect(errors.New("receiving message failed").Wrap(err))
				return
			}

			select {
			case h.controlChan <- msg:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (h *handler) disconnect(err error) {
	h.disconnectChan <- err
}

func (h *handler) handleDisconnect(err error) {
	h.Conn.Close()
	h.Handler.HandleDisconnect(err)
}

package websocket

import (
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/warehousesim/gridexport/playback"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeMsgDecode = "msg-decode"
)

// WriteTimeout bounds each message write. A client that stops reading is
// disconnected once it expires.
var WriteTimeout = 10 * time.Second

type MsgType string

const (
	// Sent by the server.
	MsgTypeFrame MsgType = "frame"
	MsgTypeError MsgType = "error"

	// Sent by the client.
	MsgTypePause   MsgType = "pause"
	MsgTypeResume  MsgType = "resume"
	MsgTypeRestart MsgType = "restart"
)

// Msg is a message exchanged on a playback stream.
type Msg struct {
	Type  MsgType         `json:"type"`
	Frame *playback.Frame `json:"frame,omitempty"`
	Error string          `json:"error,omitempty"`
}

// Receiver reads the next message of a connection and returns its size in
// bytes.
type Receiver func() (Msg, int, error)

// Sender writes a message to a connection and returns its size in bytes.
type Sender func(Msg) (int, error)

func newReceiver(conn *websocket.Conn) Receiver {
	return func() (Msg, int, error) {
		var data []byte
		if err := websocket.Message.Receive(conn, &data); err != nil {
			return Msg{}, 0, err
		}

		var msg Msg
		if err := json.Unmarshal(data, &msg); err != nil {
			return Msg{}, len(data), errors.New("decoding message failed").
				WithType(ErrTypeMsgDecode).
				Wrap(err)
		}
		return msg, len(data), nil
	}
}

func newSender(conn *websocket.Conn) Sender {
	return func(msg Msg) (int, error) {
		data, err := json.Marshal(msg)
		if err != nil {
			return 0, errors.New("encoding message failed").Wrap(err)
		}

		if err := conn.SetWriteDeadline(time.Now().Add(WriteTimeout)); err != nil {
			return 0, errors.New("setting write deadline failed").Wrap(err)
		}
		if err := websocket.Message.Send(conn, string(data)); err != nil {
			return 0, err
		}
		return len(data), nil
	}
}

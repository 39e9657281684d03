package websocket

import (
	"context"
	"net/http"

	"golang.org/x/net/websocket"
)

// NewServer returns a websocket server that runs a fresh handler for every
// connection. Streams stop when ctx is canceled. A nil handshake accepts
// every origin.
func NewServer(ctx context.Context, handshake func(*websocket.Config, *http.Request) error, newHandler func() Handler) websocket.Server {
	if handshake == nil {
		handshake = func(*websocket.Config, *http.Request) error { return nil }
	}

	return websocket.Server{
		Handshake: handshake,
		Handler: func(conn *websocket.Conn) {
			defer conn.Close()

			handler := newHandler()
			defer handler.Close()

			Handle(ctx, conn, handler)
		},
	}
}

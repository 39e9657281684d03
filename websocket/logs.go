package websocket

import (
	"context"
	stderrors "errors"
	"io"
	"net"
	"sync"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"golang.org/x/net/websocket"
)

// HandlerWithLogs logs connections of h and a summary of the exchanged
// messages every summaryInterval. Periodic summaries are off when
// summaryInterval is not positive.
func HandlerWithLogs(h Handler, summaryInterval time.Duration) Handler {
	ctx, cancel := context.WithCancel(context.Background())

	handler := &handlerWithLogs{
		Handler:            h,
		summaryInterval:    summaryInterval,
		closeSummaryWorker: cancel,
		counter:            make(map[MsgType]int),
	}

	if summaryInterval > 0 {
		go handler.startSummaryWorker(ctx)
	}
	return handler
}

type handlerWithLogs struct {
	Handler

	userAgent     string
	xForwardedFor string
	connectedAt   time.Time

	summaryInterval    time.Duration
	closeSummaryWorker func()
	counterMutex       sync.Mutex
	counter            map[MsgType]int
}

func (h *handlerWithLogs) HandleConnect(ctx context.Context, conn *websocket.Conn) error {
	err := h.Handler.HandleConnect(ctx, conn)

	req := conn.Request()
	h.userAgent = req.UserAgent()
	h.xForwardedFor = req.Header.Get("X-Forwarded-For")
	h.connectedAt = time.Now()

	entry := logs.WithTag("client_id", h.GetClientID()).
		WithTag("snapshot_id", h.GetSnapshotID()).
		WithTag("mode", h.Mode()).
		WithTag("user_agent", h.userAgent).
		WithTag("x_forwarded_for", h.xForwardedFor)
	if err != nil {
		entry.WithTag("error_type", errors.Type(err)).Info("playback rejected")
		return err
	}
	entry.Info("new client is connected")
	return nil
}

func (h *handlerWithLogs) HandleDisconnect(err error) {
	h.Handler.HandleDisconnect(err)

	entry := logs.WithTag("client_id", h.GetClientID()).
		WithTag("snapshot_id", h.GetSnapshotID()).
		WithTag("duration", time.Since(h.connectedAt))
	if err != nil && !isClosed(err) {
		entry = entry.WithTag("reason", err.Error())
	}
	entry.Info("client disconnected")
}

func (h *handlerWithLogs) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (Msg, int, error) {
		msg, n, err := receive()
		if err != nil && !isClosed(err) {
			logs.Warn(errors.New("receiving message failed").
				WithTag("client_id", h.GetClientID()).
				WithTag("snapshot_id", h.GetSnapshotID()).
				Wrap(err))
		} else if err == nil {
			logs.WithTag("client_id", h.GetClientID()).
				WithTag("msg_type", msg.Type).
				Debug("message received")
			h.incCounter(msg.Type)
		}
		return msg, n, err
	}
}

func (h *handlerWithLogs) Sender() Sender {
	sender := h.Handler.Sender()

	return func(msg Msg) (int, error) {
		n, err := sender(msg)
		if err != nil && !isClosed(err) {
			logs.Warn(errors.New("sending message failed").
				WithTag("client_id", h.GetClientID()).
				WithTag("snapshot_id", h.GetSnapshotID()).
				WithTag("msg_type", msg.Type).
				Wrap(err))
		} else if err == nil {
			h.incCounter(msg.Type)
		}
		return n, err
	}
}

func (h *handlerWithLogs) Close() {
	h.Handler.Close()
	h.closeSummaryWorker()
	h.logSummary()
}

func (h *handlerWithLogs) startSummaryWorker(ctx context.Context) {
	ticker := time.NewTicker(h.summaryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-ticker.C:
			h.logSummary()
		}
	}
}

func (h *handlerWithLogs) incCounter(msgType MsgType) {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	h.counter[msgType]++
}

func (h *handlerWithLogs) logSummary() {
	h.counterMutex.Lock()
	defer h.counterMutex.Unlock()

	if len(h.counter) == 0 {
		return
	}

	entry := logs.WithTag("client_id", h.GetClientID()).
		WithTag("snapshot_id", h.GetSnapshotID()).
		WithTag("time_interval", h.summaryInterval)

	for k, v := range h.counter {
		entry = entry.WithTag(string(k), v)
		delete(h.counter, k)
	}

	entry.Info("message summary")
}

// isClosed reports whether err comes from a connection closed by either side.
func isClosed(err error) bool {
	return stderrors.Is(err, io.EOF) || stderrors.Is(err, net.ErrClosed)
}

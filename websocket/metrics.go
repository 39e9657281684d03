package websocket

import (
	"context"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/warehousesim/gridexport/playback"
	"golang.org/x/net/websocket"
)

const (
	errTypeLabel = "error_type"
	msgTypeLabel = "msg_type"
	modeLabel    = "mode"
)

var (
	wsConnectedClients = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ws_connected_clients",
		Help: "The number of clients watching a playback.",
	}, []string{
		modeLabel,
	})

	wsRejectedClients = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_rejected_clients",
		Help: "The number of playback requests that could not be started.",
	}, []string{
		errTypeLabel,
	})

	wsReceivedMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_received_msgs",
		Help: "The number of messages received from WebSocket connections.",
	}, []string{
		msgTypeLabel,
	})

	wsReceiveError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_receive_errors",
		Help: "The errors that occured while receiving a websocket message.",
	}, []string{
		errTypeLabel,
	})

	wsSentMsgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_msgs",
		Help: "The number of messages sent to WebSocket connections.",
	}, []string{
		msgTypeLabel,
	})

	wsSentBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_sent_bytes",
		Help: "The number of bytes sent to WebSocket connections.",
	}, []string{
		msgTypeLabel,
	})

	wsSendError = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ws_send_errors",
		Help: "The errors that occured while sending a websocket message.",
	}, []string{
		errTypeLabel,
		msgTypeLabel,
	})

	wsFrameLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ws_frame_latency",
		Help:    "The time to compute a playback frame.",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 8),
	}, []string{
		modeLabel,
	})
)

func HandlerWithMetrics(h Handler) Handler {
	return &handlerWithMetrics{
		Handler: h,
	}
}

type handlerWithMetrics struct {
	Handler

	connected bool
}

func (h *handlerWithMetrics) HandleConnect(ctx context.Context, conn *websocket.Conn) error {
	if err := h.Handler.HandleConnect(ctx, conn); err != nil {
		wsRejectedClients.
			With(prometheus.Labels{errTypeLabel: errors.Type(err)}).
			Inc()
		return err
	}

	h.connected = true
	wsConnectedClients.
		With(prometheus.Labels{modeLabel: h.Mode()}).
		Inc()
	return nil
}

func (h *handlerWithMetrics) HandleDisconnect(err error) {
	if h.connected {
		h.connected = false
		wsConnectedClients.
			With(prometheus.Labels{modeLabel: h.Mode()}).
			Dec()
	}

	h.Handler.HandleDisconnect(err)
}

func (h *handlerWithMetrics) HandleFrame(dt time.Duration) playback.Frame {
	start := time.Now()
	frame := h.Handler.HandleFrame(dt)

	wsFrameLatency.
		With(prometheus.Labels{modeLabel: h.Mode()}).
		Observe(time.Since(start).Seconds())
	return frame
}

func (h *handlerWithMetrics) Receiver() Receiver {
	receive := h.Handler.Receiver()

	return func() (Msg, int, error) {
		msg, n, err := receive()
		if err != nil {
			wsReceiveError.
				With(prometheus.Labels{errTypeLabel: errors.Type(err)}).
				Inc()
		} else {
			wsReceivedMsgs.
				With(prometheus.Labels{msgTypeLabel: string(msg.Type)}).
				Inc()
		}
		return msg, n, err
	}
}

func (h *handlerWithMetrics) Sender() Sender {
	sender := h.Handler.Sender()

	return func(msg Msg) (int, error) {
		msgType := string(msg.Type)

		n, err := sender(msg)
		if err != nil {
			wsSendError.
				With(prometheus.Labels{
					msgTypeLabel: msgType,
					errTypeLabel: errors.Type(err),
				}).
				Inc()
		}

		if n != 0 {
			wsSentMsgs.
				With(prometheus.Labels{msgTypeLabel: msgType}).
				Inc()
			wsSentBytes.
				With(prometheus.Labels{msgTypeLabel: msgType}).
				Add(float64(n))
		}

		return n, err
	}
}

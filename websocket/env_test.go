package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/playback"
	"golang.org/x/net/websocket"
)

type testingEnv struct {
	store  *layout.MemoryStore
	server *httptest.Server
	cancel func()
}

// newTestingEnv starts a playback server backed by an in-memory store.
func newTestingEnv(t *testing.T) *testingEnv {
	var mutex sync.Mutex
	logger := t.Log

	logs.Encoder = func(v any) ([]byte, error) {
		return json.MarshalIndent(v, "", "  ")
	}

	logs.SetLogger(func(e logs.Entry) {
		mutex.Lock()
		defer mutex.Unlock()

		if logger != nil {
			logger(e)
		}
	})

	errors.Encoder = json.Marshal

	ctx, cancel := context.WithCancel(context.Background())
	store := layout.NewMemoryStore()

	mux := http.NewServeMux()
	mux.Handle("GET /playback/{id}", NewServer(ctx, nil, func() Handler {
		var h Handler = &PlaybackHandler{
			Store:         store,
			Config:        testConfig(),
			FrameInterval: 5 * time.Millisecond,
		}

		h = HandlerWithLogs(h, 50*time.Millisecond)
		h = HandlerWithMetrics(h)
		return h
	}))

	env := &testingEnv{
		store:  store,
		server: httptest.NewServer(mux),
		cancel: cancel,
	}

	t.Cleanup(func() {
		cancel()
		env.server.Close()

		mutex.Lock()
		defer mutex.Unlock()
		logger = nil
	})
	return env
}

func testConfig() playback.Config {
	cfg := playback.DefaultConfig()
	cfg.StepTime = 10 * time.Millisecond
	cfg.NodePause = 5 * time.Millisecond
	cfg.ActionDelay = 5 * time.Millisecond
	cfg.PickupPause = 5 * time.Millisecond
	return cfg
}

func testData() layout.FactoryData {
	return layout.FactoryData{
		Grid: layout.GridData{Rows: 5, Cols: 5, CellSize: 2, Fraction: 0.5},
		Floor: layout.ObjectData{
			Name:      "Floor",
			GridCells: []layout.GridCell{{R: 0, C: 0}},
		},
		Shelves:  []layout.ObjectData{},
		Machines: []layout.ObjectData{},
		Agents: []layout.AgentEntry{
			{
				ID: "A0",
				Start: layout.PointData{
					Name:     "Agent_0",
					Position: layout.XZ{X: 1, Z: 1},
				},
			},
		},
	}
}

// addSnapshot stores a snapshot of testData with the given plan.
func (e *testingEnv) addSnapshot(t *testing.T, plan *layout.Plan) string {
	snap, err := layout.NewSnapshot(testData())
	require.NoError(t, err)
	snap.Plan = plan

	require.NoError(t, e.store.Save(context.Background(), snap))
	return snap.ID
}

func (e *testingEnv) dial(t *testing.T, path string) *websocket.Conn {
	config, err := websocket.NewConfig(
		strings.ReplaceAll(e.server.URL, "http://", "ws://")+path,
		"http://localhost",
	)
	require.NoError(t, err)
	config.Header.Set("User-Agent", "ted")
	config.Header.Set(HeaderClientID, uuid.NewString())

	conn, err := websocket.DialConfig(config)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func receive(t *testing.T, conn *websocket.Conn) (Msg, error) {
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg Msg
	err := websocket.JSON.Receive(conn, &msg)
	return msg, err
}

// receiveFrames reads frames until the stream reports done.
func receiveFrames(t *testing.T, conn *websocket.Conn) []playback.Frame {
	var frames []playback.Frame
	for {
		msg, err := receive(t, conn)
		require.NoError(t, err)
		require.Equal(t, MsgTypeFrame, msg.Type, msg.Error)
		require.NotNil(t, msg.Frame)

		frames = append(frames, *msg.Frame)
		if msg.Frame.Done {
			return frames
		}
		require.Less(t, len(frames), 1000, "playback never completed")
	}
}

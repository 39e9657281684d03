// Package smoketest checks a running gridexport service end to end: a scene
// is uploaded, a plan is attached to it and its playback is streamed until it
// completes.
package smoketest

import (
	"bytes"
	"context"
	_ "embed"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/segmentio/encoding/json"
	gridhttp "github.com/warehousesim/gridexport/http"
	"github.com/warehousesim/gridexport/layout"
	gridwebsocket "github.com/warehousesim/gridexport/websocket"
	"golang.org/x/net/websocket"
)

const (
	ErrTypeSmokeTestFailed = "smoke-test-failed"

	defaultTimeout = 30 * time.Second
)

//go:embed scene.yaml
var sceneYAML []byte

var plan = layout.Plan{
	DeliveryPoint:  layout.Point{1, 1},
	PathToBox:      []layout.Point{{0, 0}, {1, 0}},
	PathToDelivery: []layout.Point{{1, 0}, {1, 1}},
}

type Options struct {
	// Endpoint is the base URL of the service under test.
	Endpoint string

	// Token is the api token of the service under test.
	Token string

	UserAgent string

	Timeout time.Duration

	Transport http.RoundTripper
}

// Result reports a smoke test run.
type Result struct {
	Endpoint   string        `json:"endpoint"`
	SnapshotID string        `json:"snapshotId,omitempty"`
	Digest     string        `json:"digest,omitempty"`
	Frames     int           `json:"frames"`
	Duration   time.Duration `json:"duration"`
	Error      string        `json:"error,omitempty"`
}

// HandleSmokeTest runs a smoke test against opts.Endpoint and writes the
// result. The endpoint query parameter targets another service.
func HandleSmokeTest(ctx context.Context, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		runOpts := opts
		if endpoint := r.URL.Query().Get("endpoint"); endpoint != "" {
			runOpts.Endpoint = endpoint
		}

		res, err := Run(ctx, runOpts)
		status := http.StatusOK
		if err != nil {
			logs.Warn(err)
			status = http.StatusBadGateway
		} else {
			logs.WithTag("endpoint", res.Endpoint).
				WithTag("snapshot_id", res.SnapshotID).
				WithTag("frames", res.Frames).
				WithTag("duration", res.Duration).
				Info("smoke test succeeded")
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

// Run executes the smoke test. The returned result is filled as far as the
// run went, including on error.
func Run(ctx context.Context, opts Options) (Result, error) {
	start := time.Now()
	res := Result{Endpoint: opts.Endpoint}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := client{
		opts: opts,
		http: &http.Client{Transport: opts.Transport},
	}

	err := c.run(ctx, &res)
	res.Duration = time.Since(start)
	if err != nil {
		res.Error = err.Error()
		return res, errors.New("smoke test failed").
			WithTag("endpoint", opts.Endpoint).
			WithType(ErrTypeSmokeTestFailed).
			Wrap(err)
	}
	return res, nil
}

type client struct {
	opts Options
	http *http.Client
}

func (c client) run(ctx context.Context, res *Result) error {
	var snap gridhttp.SnapshotResponse
	if err := c.do(ctx, http.MethodPost, "/layouts", sceneYAML, http.StatusCreated, &snap); err != nil {
		return err
	}
	res.SnapshotID = snap.ID
	res.Digest = snap.Digest

	planJSON, err := json.Marshal(plan)
	if err != nil {
		return errors.New("encoding plan failed").Wrap(err)
	}
	if err := c.do(ctx, http.MethodPut, "/layouts/"+snap.ID+"/plan", planJSON, http.StatusNoContent, nil); err != nil {
		return err
	}

	var data layout.FactoryData
	if err := c.do(ctx, http.MethodGet, "/layouts/"+snap.ID, nil, http.StatusOK, &data); err != nil {
		return err
	}
	if digest, err := layout.Digest(data); err != nil {
		return err
	} else if digest != snap.Digest {
		return errors.New("layout digest mismatch").
			WithTag("expected", snap.Digest).
			WithTag("got", digest)
	}

	frames, err := c.stream(ctx, snap.ID)
	res.Frames = frames
	return err
}

func (c client) do(ctx context.Context, method, path string, body []byte, expectedStatus int, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, strings.TrimSuffix(c.opts.Endpoint, "/")+path, bytes.NewReader(body))
	if err != nil {
		return errors.New("creating request failed").
			WithTag("path", path).
			Wrap(err)
	}
	c.setHeaders(req.Header)

	res, err := c.http.Do(req)
	if err != nil {
		return errors.New("request failed").
			WithTag("method", method).
			WithTag("path", path).
			Wrap(err)
	}
	defer res.Body.Close()

	if res.StatusCode != expectedStatus {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return errors.New("unexpected status code").
			WithTag("method", method).
			WithTag("path", path).
			WithTag("status", res.StatusCode).
			WithTag("body", string(msg))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errors.New("decoding response failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}

// stream plays the snapshot back without looping and returns the number of
// frames received.
func (c client) stream(ctx context.Context, id string) (int, error) {
	endpoint, err := url.Parse(strings.TrimSuffix(c.opts.Endpoint, "/") + "/playback/" + id + "?loop=false")
	if err != nil {
		return 0, errors.New("parsing endpoint failed").Wrap(err)
	}
	origin := *endpoint
	origin.Path, origin.RawQuery = "", ""

	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}

	config, err := websocket.NewConfig(endpoint.String(), origin.String())
	if err != nil {
		return 0, errors.New("creating websocket config failed").Wrap(err)
	}
	c.setHeaders(config.Header)

	conn, err := config.DialContext(ctx)
	if err != nil {
		return 0, errors.New("dialing playback stream failed").
			WithTag("url", endpoint.String()).
			Wrap(err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		conn.SetReadDeadline(deadline)
	}

	frames := 0
	for {
		var msg gridwebsocket.Msg
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			return frames, errors.New("receiving playback frame failed").
				WithTag("frames", frames).
				Wrap(err)
		}

		switch msg.Type {
		case gridwebsocket.MsgTypeError:
			return frames, errors.New("playback stream reported an error").
				WithTag("error", msg.Error)

		case gridwebsocket.MsgTypeFrame:
			frames++
			if msg.Frame != nil && msg.Frame.Done {
				return frames, nil
			}
		}
	}
}

func (c client) setHeaders(h http.Header) {
	if c.opts.Token != "" {
		h.Set("Authorization", "Bearer "+c.opts.Token)
	}
	if c.opts.UserAgent != "" {
		h.Set("User-Agent", c.opts.UserAgent)
	}
}

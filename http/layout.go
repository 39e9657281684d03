package http

import (
	"bytes"
	"crypto/ecdsa"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/warehousesim/gridexport/chart"
	"github.com/warehousesim/gridexport/layout"
	"github.com/warehousesim/gridexport/scene"
)

const (
	ErrTypePlanNotFound    = "plan-not-found"
	ErrTypePayloadTooLarge = "payload-too-large"

	// DefaultMaxBodySize is the request body limit used when LayoutHandler
	// does not set one.
	DefaultMaxBodySize = 4 << 20
)

// LayoutHandler serves the layout snapshots and accepts the plans computed
// for them.
type LayoutHandler struct {
	Store layout.Store

	// Options is used to build every uploaded scene.
	Options layout.Options

	// Charts enables the HTML and PNG renderings.
	Charts bool

	MaxBodySize int64

	// SigningKey signs snapshot digests when not nil.
	SigningKey *ecdsa.PrivateKey
}

// SnapshotResponse describes a stored snapshot.
type SnapshotResponse struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	Digest    string    `json:"digest"`
	Signature string    `json:"signature,omitempty"`
}

// ListResponse lists the stored snapshot ids, oldest first.
type ListResponse struct {
	Layouts []string `json:"layouts"`
}

type errorResponse struct {
	Error string `json:"error"`
	Type  string `json:"type,omitempty"`
}

func (h *LayoutHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /layouts", h.HandleCreate)
	mux.HandleFunc("GET /layouts", h.HandleList)
	mux.HandleFunc("GET /layouts/{id}", h.HandleGet)
	mux.HandleFunc("PUT /layouts/{id}/plan", h.HandleAttachPlan)
	mux.HandleFunc("GET /layouts/{id}/plan", h.HandleGetPlan)

	if h.Charts {
		mux.HandleFunc("GET /layouts/{id}/chart", h.HandleChart)
		mux.HandleFunc("GET /layouts/{id}/plot.png", h.HandlePlot)
	}
}

// HandleCreate builds the scene in the request body and stores the result.
func (h *LayoutHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	body, err := h.readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	s, err := scene.Parse(body)
	if err != nil {
		writeError(w, err)
		return
	}

	data, err := layout.Build(s, h.Options)
	if err != nil {
		writeError(w, err)
		return
	}

	snap, err := layout.NewSnapshot(data)
	if err != nil {
		writeError(w, err)
		return
	}
	if h.SigningKey != nil {
		if err := layout.Sign(&snap, h.SigningKey); err != nil {
			writeError(w, err)
			return
		}
	}

	if err := h.Store.Save(r.Context(), snap); err != nil {
		writeError(w, err)
		return
	}

	logs.WithTag("id", snap.ID).
		WithTag("digest", snap.Digest).
		WithTag("rows", data.Grid.Rows).
		WithTag("cols", data.Grid.Cols).
		Info("layout stored")

	w.Header().Set("Location", "/layouts/"+snap.ID)
	w.Header().Set("ETag", etag(snap.Digest))
	writeJSON(w, http.StatusCreated, SnapshotResponse{
		ID:        snap.ID,
		CreatedAt: snap.CreatedAt,
		Digest:    snap.Digest,
		Signature: snap.Signature,
	})
}

func (h *LayoutHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ids, err := h.Store.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, ListResponse{Layouts: ids})
}

// HandleGet writes the planner payload of a snapshot.
func (h *LayoutHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	tag := etag(snap.Digest)
	w.Header().Set("ETag", tag)
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, snap.Data)
}

func (h *LayoutHandler) HandleAttachPlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	body, err := h.readBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	plan, err := layout.ParsePlan(body)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.Store.AttachPlan(r.Context(), id, plan); err != nil {
		writeError(w, err)
		return
	}

	maxX, maxY := plan.Extent()
	logs.WithTag("id", id).
		WithTag("path_to_box", len(plan.PathToBox)).
		WithTag("path_to_delivery", len(plan.PathToDelivery)).
		WithTag("max_x", maxX).
		WithTag("max_y", maxY).
		Info("plan attached")
	w.WriteHeader(http.StatusNoContent)
}

func (h *LayoutHandler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := h.Store.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if snap.Plan == nil {
		writeError(w, errors.New("no plan attached").
			WithTag("id", id).
			WithType(ErrTypePlanNotFound))
		return
	}
	writeJSON(w, http.StatusOK, snap.Plan)
}

func (h *LayoutHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderHTML(&buf, snap.Data); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *LayoutHandler) HandlePlot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.Store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := chart.RenderPNG(&buf, snap.Data, snap.Plan); err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

func (h *LayoutHandler) readBody(r *http.Request) ([]byte, error) {
	limit := h.MaxBodySize
	if limit <= 0 {
		limit = DefaultMaxBodySize
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, errors.New("reading request body failed").Wrap(err)
	}
	if int64(len(body)) > limit {
		return nil, errors.New("request body too large").
			WithTag("limit", limit).
			WithType(ErrTypePayloadTooLarge)
	}
	return body, nil
}

func etag(digest string) string {
	return `"` + digest + `"`
}

func statusCode(err error) int {
	switch errors.Type(err) {
	case layout.ErrTypeSnapshotNotFound, ErrTypePlanNotFound:
		return http.StatusNotFound

	case scene.ErrTypeInvalidScene, scene.ErrTypeInvalidBounds, layout.ErrTypeInvalidPlan:
		return http.StatusBadRequest

	case ErrTypePayloadTooLarge:
		return http.StatusRequestEntityTooLarge

	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusCode(err)
	if status == http.StatusInternalServerError {
		logs.Warn(err)
	} else {
		logs.WithTag("status", status).Debug(err.Error())
	}

	writeJSON(w, status, errorResponse{
		Error: err.Error(),
		Type:  errors.Type(err),
	})
}

// routePattern replaces the snapshot id of a request path by a placeholder.
func routePattern(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) >= 2 && (parts[0] == "layouts" || parts[0] == "playback") {
		parts[1] = "{id}"
		return "/" + strings.Join(parts, "/")
	}
	return path
}

package export

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/inamate/inamate/diagram-go/internal/scene"
	"github.com/inamate/inamate/diagram-go/internal/snapshot"
)

// Handler serves persisted document snapshots as JSON and as PNG renders.
type Handler struct {
	store  snapshot.Store
	logger *slog.Logger
}

func NewHandler(store snapshot.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Snapshot writes the latest stored snapshot of the document.
func (h *Handler) Snapshot(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docId"]
	data, version, ok := h.load(w, r, docID)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Snapshot-Version", strconv.FormatInt(version, 10))
	w.Write(data)
}

// RenderPNG rasterizes the latest stored snapshot. The optional width, height
// and scale query parameters override the fitted size.
func (h *Handler) RenderPNG(w http.ResponseWriter, r *http.Request) {
	docID := mux.Vars(r)["docId"]
	opts, err := parseRenderOptions(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data, version, ok := h.load(w, r, docID)
	if !ok {
		return
	}
	st, err := scene.Load(data)
	if err != nil {
		h.logger.Error("decode snapshot", "doc", docID, "error", err)
		http.Error(w, "corrupt snapshot", http.StatusInternalServerError)
		return
	}

	img, err := Render(st, opts)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		h.logger.Error("render", "doc", docID, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := img.EncodePNG(&buf); err != nil {
		h.logger.Error("encode png", "doc", docID, "error", err)
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Snapshot-Version", strconv.FormatInt(version, 10))
	w.Write(buf.Bytes())
}

func (h *Handler) load(w http.ResponseWriter, r *http.Request, docID string) ([]byte, int64, bool) {
	data, version, err := h.store.Load(r.Context(), docID)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			http.Error(w, "document not found", http.StatusNotFound)
			return nil, 0, false
		}
		h.logger.Error("load snapshot", "doc", docID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return nil, 0, false
	}
	return data, version, true
}

func parseRenderOptions(r *http.Request) (RenderOptions, error) {
	var opts RenderOptions
	q := r.URL.Query()
	if v := q.Get("width"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New("invalid width")
		}
		opts.Width = n
	}
	if v := q.Get("height"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, errors.New("invalid height")
		}
		opts.Height = n
	}
	if v := q.Get("scale"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 || f > 16 {
			return opts, errors.New("invalid scale")
		}
		opts.Scale = f
	}
	return opts, nil
}

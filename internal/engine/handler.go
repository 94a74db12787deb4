package engine

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"stream-delivery/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
)

const videoContentType = "video/mp4"

// Handler exposes the engine's HTTP endpoints using go-chi.
type Handler struct {
	svc     *Service
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewHandler returns a Handler that uses the given Service, Logger, and
// optional Metrics. Metrics may be nil to disable recording (e.g. in tests).
func NewHandler(svc *Service, log *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{svc: svc, log: log, metrics: m}
}

// GetVideo handles GET /streams/{id}/video. A Range header is required; the
// response carries at most ChunkSize bytes of the recording as 206 Partial
// Content.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id := StreamID(chi.URLParam(r, "id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	body, br, err := h.svc.OpenVideo(id, r.Header.Get("Range"))
	if err != nil {
		h.writeError(w, err, "open video", slog.String("stream_id", string(id)))
		return
	}
	defer body.Close()

	w.Header().Set("Content-Range", br.ContentRange())
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(br.Length(), 10))
	w.Header().Set("Content-Type", videoContentType)
	w.WriteHeader(http.StatusPartialContent)

	if _, err := io.Copy(w, body); err != nil {
		// Client went away mid-stream; the deferred Close releases the
		// file handle and there is nothing to report back.
		h.log.Debug("video copy aborted",
			slog.String("stream_id", string(id)),
			slog.String("error", err.Error()))
		return
	}

	if h.metrics != nil {
		h.metrics.IncRangeRequests()
	}
}

// GetPreview handles GET /streams/{id}/preview, generating the JPEG on the
// first call for each recording.
func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	id := StreamID(chi.URLParam(r, "id"))
	if id == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	artifact, err := h.svc.Preview(r.Context(), id)
	if err != nil {
		h.writeError(w, err, "preview", slog.String("stream_id", string(id)))
		return
	}

	if h.metrics != nil {
		h.metrics.IncPreviewsServed()
	}
	http.ServeFile(w, r, artifact)
}

// GetSelection handles GET /streams/selection/{amount}?search=.
func (h *Handler) GetSelection(w http.ResponseWriter, r *http.Request) {
	amount, err := strconv.Atoi(chi.URLParam(r, "amount"))
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	feed, err := h.svc.Selection(amount, r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, err, "selection", slog.Int("amount", amount))
		return
	}

	if h.metrics != nil {
		h.metrics.IncFeedRequests()
	}
	h.writeJSON(w, feed)
}

// ListStreams handles GET /streams?search=, returning live streams with
// their live playback sources.
func (h *Handler) ListStreams(w http.ResponseWriter, r *http.Request) {
	streams, err := h.svc.ActiveStreams(r.URL.Query().Get("search"))
	if err != nil {
		h.writeError(w, err, "list streams")
		return
	}
	h.writeJSON(w, streams)
}

// CreateStream handles POST /streams.
// Body: { "user_id": "...", "stream_key": "...", "title": "...", "tags": [...] }.
func (h *Handler) CreateStream(w http.ResponseWriter, r *http.Request) {
	var fields NewStream
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		h.log.Debug("invalid stream body", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if fields.UserID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	st, err := h.svc.CreateStream(fields)
	if err != nil {
		h.writeError(w, err, "create stream", slog.String("user_id", string(fields.UserID)))
		return
	}

	h.log.Info("stream created",
		slog.String("stream_id", string(st.ID)),
		slog.String("user_id", string(st.UserID)))
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(st)
}

// GetUserStreams handles GET /users/{user_id}/streams.
func (h *Handler) GetUserStreams(w http.ResponseWriter, r *http.Request) {
	userID := UserID(chi.URLParam(r, "user_id"))
	if userID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	streams, err := h.svc.UserStreams(userID)
	if err != nil {
		h.writeError(w, err, "user streams", slog.String("user_id", string(userID)))
		return
	}
	h.writeJSON(w, streams)
}

// NewKey handles GET /keys/new.
func (h *Handler) NewKey(w http.ResponseWriter, r *http.Request) {
	key := h.svc.NewKey()
	if h.metrics != nil {
		h.metrics.IncKeysIssued()
	}
	h.writeJSON(w, map[string]string{"key": key})
}

// LatestKey handles GET /keys/latest?user_id=. A user with no streams gets
// an empty stream_key, not an error.
func (h *Handler) LatestKey(w http.ResponseWriter, r *http.Request) {
	userID := UserID(r.URL.Query().Get("user_id"))
	if userID == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	key, err := h.svc.LatestKey(userID)
	if err != nil {
		h.writeError(w, err, "latest key", slog.String("user_id", string(userID)))
		return
	}
	h.writeJSON(w, map[string]string{"stream_key": key})
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

// writeError maps engine errors onto HTTP status codes: missing/invalid
// Range -> 400, unknown stream or recording -> 404, everything else
// (transcoder, store) -> 500.
func (h *Handler) writeError(w http.ResponseWriter, err error, op string, attrs ...any) {
	switch {
	case errors.Is(err, ErrMissingRange):
		h.log.Debug(op+" rejected", append(attrs, slog.String("error", err.Error()))...)
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ErrStreamNotFound), errors.Is(err, ErrNoRecording):
		h.log.Debug(op+" not found", append(attrs, slog.String("error", err.Error()))...)
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		h.log.Error(op+" failed", append(attrs, slog.String("error", err.Error()))...)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

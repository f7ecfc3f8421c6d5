package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/speedx-dev/speedx/internal/metrics"
	"github.com/speedx-dev/speedx/internal/model"
	"github.com/speedx-dev/speedx/internal/orchestrator"
	"github.com/speedx-dev/speedx/internal/platform/clientip"
	"github.com/speedx-dev/speedx/internal/platform/errs"
	"github.com/speedx-dev/speedx/internal/report"
	"github.com/speedx-dev/speedx/internal/store"
)

// Transport exposes sessions over HTTP.
type Transport struct {
	registry *Registry
	history  *store.History
	logger   *slog.Logger
}

// NewTransport creates an HTTP transport for the given registry. A nil history
// leaves GET /history unregistered.
func NewTransport(registry *Registry, history *store.History, logger *slog.Logger) *Transport {
	return &Transport{registry: registry, history: history, logger: logger}
}

// RegisterRoutes attaches the transport's handlers to the given mux.
func (t *Transport) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /sessions", t.handleCreate)
	mux.HandleFunc("GET /sessions/{id}", t.handleSnapshot)
	mux.HandleFunc("POST /sessions/{id}/analyze", t.handleSubmit)
	mux.HandleFunc("GET /sessions/{id}/report", t.handleReport)
	mux.HandleFunc("DELETE /sessions/{id}", t.handleDelete)
	if t.history != nil {
		mux.HandleFunc("GET /history", t.handleHistory)
	}
}

type createResponse struct {
	ID string `json:"id"`
}

type submitRequest struct {
	URL string `json:"url"`
}

type submitResponse struct {
	ID     string              `json:"id"`
	Status orchestrator.Status `json:"status"`
}

type errorView struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// snapshotView is the JSON form of a session's state with every derived view
// a client needs to render it.
type snapshotView struct {
	ID            string                `json:"id"`
	Status        orchestrator.Status   `json:"status"`
	URL           string                `json:"url"`
	MetricsURL    string                `json:"metricsUrl"`
	Metrics       *model.WebsiteMetrics `json:"metrics"`
	Display       []metrics.Field       `json:"display"`
	Comparison    []model.Comparison    `json:"comparison"`
	Insights      []string              `json:"insights"`
	Error         *errorView            `json:"error"`
	Notifications []model.Notification  `json:"notifications"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

func newSnapshotView(id string, s orchestrator.Snapshot, notifications []model.Notification) snapshotView {
	v := snapshotView{
		ID:            id,
		Status:        s.Status,
		URL:           s.URL,
		MetricsURL:    s.MetricsURL,
		Metrics:       s.Metrics,
		Insights:      s.Insights,
		Notifications: notifications,
		UpdatedAt:     s.UpdatedAt,
	}
	if v.Insights == nil {
		v.Insights = []string{}
	}
	if s.Metrics != nil {
		v.Display = metrics.Fields(s.Metrics)
		v.Comparison = metrics.Compare(s.Metrics)
	}
	if s.Err != nil {
		v.Error = &errorView{
			Kind:        s.Err.Kind.String(),
			Title:       s.Err.Kind.Title(),
			Description: s.Err.Kind.Description(),
		}
	}
	return v
}

func (t *Transport) handleCreate(w http.ResponseWriter, _ *http.Request) {
	s, err := t.registry.Create()
	if err != nil {
		t.logger.Warn("session not created", "error", err)
		t.renderError(w, http.StatusServiceUnavailable, "Too many active sessions. Please try again later.")
		return
	}
	t.renderJSON(w, http.StatusCreated, createResponse{ID: s.ID})
}

func (t *Transport) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	s, ok := t.lookup(w, r)
	if !ok {
		return
	}
	t.renderJSON(w, http.StatusOK, newSnapshotView(s.ID, s.Orchestrator.Snapshot(), s.Inbox.Drain()))
}

func (t *Transport) handleSubmit(w http.ResponseWriter, r *http.Request) {
	s, ok := t.lookup(w, r)
	if !ok {
		return
	}

	const maxRequestBody = 1 << 20 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		t.renderError(w, http.StatusBadRequest, "Invalid request body. Please send a JSON object with a \"url\" field.")
		return
	}

	ctx := clientip.NewContext(r.Context(), clientip.FromRequest(r))
	_, err := s.Orchestrator.Submit(ctx, req.URL)
	if err != nil {
		var appErr *errs.AppError
		switch {
		case errors.Is(err, orchestrator.ErrBusy):
			t.renderError(w, http.StatusConflict, "An analysis is already in progress.")
		case errors.As(err, &appErr):
			t.renderError(w, http.StatusBadRequest, appErr.Message)
		default:
			t.renderError(w, http.StatusInternalServerError, "An unexpected error occurred.")
		}
		return
	}

	t.renderJSON(w, http.StatusAccepted, submitResponse{ID: s.ID, Status: orchestrator.Loading})
}

func (t *Transport) handleReport(w http.ResponseWriter, r *http.Request) {
	s, ok := t.lookup(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.Markdown(&buf, s.Orchestrator.Snapshot()); err != nil {
		t.logger.Error("failed to render report", "session_id", s.ID, "error", err)
		t.renderError(w, http.StatusInternalServerError, "The report could not be generated.")
		return
	}

	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := t.registry.Delete(r.PathValue("id")); err != nil {
		t.renderError(w, http.StatusNotFound, "Session not found.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (t *Transport) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			t.renderError(w, http.StatusBadRequest, "The \"limit\" parameter must be a positive integer.")
			return
		}
		limit = n
	}

	entries, err := t.history.Recent(r.Context(), limit)
	if err != nil {
		t.logger.Error("failed to read history", "error", err)
		t.renderError(w, http.StatusInternalServerError, "History is unavailable.")
		return
	}
	t.renderJSON(w, http.StatusOK, entries)
}

func (t *Transport) lookup(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	s, err := t.registry.Get(r.PathValue("id"))
	if err != nil {
		t.renderError(w, http.StatusNotFound, "Session not found.")
		return nil, false
	}
	return s, true
}

func (t *Transport) renderJSON(w http.ResponseWriter, status int, data any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(data); err != nil {
		t.logger.Error("failed to encode response", "error", err)
		http.Error(w, `{"error":"Internal Server Error"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (t *Transport) renderError(w http.ResponseWriter, status int, message string) {
	t.renderJSON(w, status, model.ErrorResponse{
		Error:      http.StatusText(status),
		StatusCode: status,
		Message:    message,
	})
}

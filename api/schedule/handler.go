// Package schedule exposes the scheduling service over HTTP.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tidwall/gjson"

	"github.com/kilianp07/rehearsal/app"
	"github.com/kilianp07/rehearsal/core/monitoring"
	"github.com/kilianp07/rehearsal/core/store"
	"github.com/kilianp07/rehearsal/infra/logger"
	"github.com/kilianp07/rehearsal/pkg/input"
)

// Scheduler is the part of app.Service used by the handlers.
type Scheduler interface {
	Schedule(ctx context.Context, req app.Request) (app.Response, error)
	Get(ctx context.Context, id string) (store.Solution, error)
	Latest(ctx context.Context) (store.Solution, error)
}

// Options tunes the router.
type Options struct {
	// Token protects the /api routes when non-empty.
	Token string
	// MaxBodyBytes limits request bodies. Zero means 4 MiB.
	MaxBodyBytes int64
	// Metrics is served on /metrics. Nil uses the default Prometheus registry.
	Metrics http.Handler
	Log     logger.Logger
}

type handler struct {
	svc     Scheduler
	maxBody int64
	log     logger.Logger
}

// NewRouter returns the HTTP API:
//
//	POST /api/schedule        run a search
//	GET  /api/schedule/latest last stored solution
//	GET  /api/schedule/{id}   stored solution by run ID
//	GET  /healthz
//	GET  /metrics
func NewRouter(svc Scheduler, opts Options) http.Handler {
	h := &handler{svc: svc, maxBody: opts.MaxBodyBytes, log: opts.Log}
	if h.maxBody <= 0 {
		h.maxBody = 4 << 20
	}
	if h.log == nil {
		h.log = logger.New("api")
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics)

	r.Route("/api/schedule", func(r chi.Router) {
		r.Use(bearer(opts.Token))
		r.Post("/", h.create)
		r.Get("/latest", h.latest)
		r.Get("/{id}", h.get)
	})
	return r
}

// scheduleBody is the POST payload. The attendance table is given either
// as "matrix" ({"actors": [...], "scenes": [...]}) or as raw "csv" text.
type scheduleBody struct {
	app.Request
	CSV string `json:"csv"`
}

func (h *handler) create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, err)
			return
		}
		writeError(w, http.StatusBadRequest, err)
		return
	}
	req, err := decodeRequest(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	resp, err := h.svc.Schedule(r.Context(), req)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Errorf("schedule: %v", err)
			monitoring.CaptureException(err, map[string]string{"route": "schedule"})
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeRequest(body []byte) (app.Request, error) {
	var b scheduleBody
	if err := json.Unmarshal(body, &b); err != nil {
		return app.Request{}, fmt.Errorf("decode body: %w", err)
	}
	var (
		m   input.Matrix
		err error
	)
	switch matrix := gjson.GetBytes(body, "matrix"); {
	case matrix.Exists():
		m, err = input.FromResult(matrix)
	case strings.TrimSpace(b.CSV) != "":
		m, err = input.ParseCSV(strings.NewReader(b.CSV))
	default:
		return app.Request{}, errors.New(`either "matrix" or "csv" is required`)
	}
	if err != nil {
		return app.Request{}, fmt.Errorf("attendance: %w", err)
	}
	att, err := m.Attendance()
	if err != nil {
		return app.Request{}, fmt.Errorf("attendance: %w", err)
	}
	req := b.Request
	req.Attendance = att
	return req, nil
}

func (h *handler) get(w http.ResponseWriter, r *http.Request) {
	sol, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	h.writeSolution(w, sol, err)
}

func (h *handler) latest(w http.ResponseWriter, r *http.Request) {
	sol, err := h.svc.Latest(r.Context())
	h.writeSolution(w, sol, err)
}

func (h *handler) writeSolution(w http.ResponseWriter, sol store.Solution, err error) {
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.log.Errorf("load solution: %v", err)
			monitoring.CaptureException(err, map[string]string{"route": "solution"})
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, sol)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app.ErrInvalidRequest),
		errors.Is(err, app.ErrConflictingScenes),
		errors.Is(err, app.ErrUnknownActor):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func bearer(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if token == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer "+token {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.log.Debugw("request", map[string]any{
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		})
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Package httpd exposes the scheduler over a small JSON API plus an SSE
// stream of firings. It is a thin transport shell; all semantics live in
// internal/scheduler.
package httpd

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"humancron/internal/eventbus"
	"humancron/internal/metrics"
	"humancron/internal/scheduler"
	logx "humancron/pkg/logx"
)

type Config struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration // keep 0 so SSE streams are not cut off
	IdleTimeout  time.Duration
}

type Server struct {
	log   logx.Logger
	sched *scheduler.Scheduler
	bus   eventbus.Bus
	met   *metrics.Metrics

	srv *http.Server
}

func New(cfg Config, sched *scheduler.Scheduler, bus eventbus.Bus, met *metrics.Metrics, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		addr = ":4000"
	}

	s := &Server{log: log, sched: sched, bus: bus, met: met}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/tasks", s.handleList)
	mux.HandleFunc("POST /api/tasks", s.handleCreate)
	mux.HandleFunc("PATCH /api/tasks/{id}", s.handleToggle)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleDelete)
	mux.HandleFunc("GET /api/events", s.handleEvents)
	if met != nil {
		mux.Handle("GET /metrics", met.Handler())
	}

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      withCORS(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// Handler returns the full route tree (used by tests).
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Start begins serving in the background. The returned channel receives the
// terminal serve error (if any) once.
func (s *Server) Start() (<-chan error, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return nil, err
	}
	s.log.Info("http listening", logx.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		err := s.srv.Serve(ln)
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// withCORS mirrors the permissive cors() middleware of the reference server:
// any origin may read the API and subscribe to events.
func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleList(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.sched.List())
}

type createTaskRequest struct {
	Label   string         `json:"label"`
	When    string         `json:"when"`
	Payload map[string]any `json:"payload,omitempty"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if strings.TrimSpace(req.Label) == "" {
		writeError(w, http.StatusBadRequest, "label is required")
		return
	}
	if strings.TrimSpace(req.When) == "" {
		writeError(w, http.StatusBadRequest, "when is required")
		return
	}

	t, err := s.sched.Add(r.Context(), req.Label, req.When, req.Payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

type toggleTaskRequest struct {
	Enabled *bool `json:"enabled"`
}

func (s *Server) handleToggle(w http.ResponseWriter, r *http.Request) {
	var req toggleTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Enabled == nil {
		writeError(w, http.StatusBadRequest, "enabled (boolean) is required")
		return
	}
	s.sched.Toggle(r.Context(), r.PathValue("id"), *req.Enabled)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	s.sched.Remove(r.Context(), r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

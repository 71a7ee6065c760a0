package server

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"
	"time"

	"github.com/claroapp/claro-notify/internal/schedule"
	"github.com/claroapp/claro-notify/internal/scheduler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// PrepareFunc runs one scheduling pass for tomorrow's notifications.
// Wired in by the serve command so the server stays free of platform
// backend details.
type PrepareFunc func(ctx context.Context) (scheduler.Summary, error)

// Server is the claro-notify HTTP API server. It edits the schedule
// config and can trigger a scheduling pass on demand; it holds no
// timer state of its own.
type Server struct {
	schedulePath string
	dailyRun     string
	prepare      PrepareFunc
	router       chi.Router
	version      string
	started      time.Time
}

// New creates a new Server managing the schedule config at schedulePath.
func New(schedulePath, dailyRun string, prepare PrepareFunc, version string) *Server {
	s := &Server{
		schedulePath: schedulePath,
		dailyRun:     dailyRun,
		prepare:      prepare,
		version:      version,
		started:      time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/config", s.handleGetConfig)
			r.Put("/config", s.handlePutConfig)
			r.Post("/prepare", s.handlePrepare)
			r.Get("/status", s.handleStatus)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	configOK := true
	if _, err := schedule.Load(s.schedulePath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		configOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":      "ok",
		"version":     s.version,
		"uptime":      time.Since(s.started).Seconds(),
		"config":      configOK,
		"config_path": s.schedulePath,
	})
}

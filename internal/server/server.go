package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/myelinproj/myelin/internal/engine"
	"github.com/myelinproj/myelin/internal/router"
	"github.com/myelinproj/myelin/internal/store"
)

// Server is the myelin HTTP API server.
type Server struct {
	db         *store.DB
	engine     *engine.Engine
	supervisor *router.Supervisor
	stationID  string
	version    string
	started    time.Time

	mux chi.Router
}

// New creates a new Server. stationID is the default station for requests
// that do not name one.
func New(db *store.DB, eng *engine.Engine, sup *router.Supervisor, stationID, version string) *Server {
	s := &Server{
		db:         db,
		engine:     eng,
		supervisor: sup,
		stationID:  stationID,
		version:    version,
		started:    time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/status", s.handleStatus)
		r.Get("/topology", s.handleTopology)

		r.Post("/route", s.handleRoute)

		r.Post("/executions", s.handleAddExecution)
		r.Get("/executions", s.handleListExecutions)

		r.Post("/evolve", s.handleEvolve)
		r.Get("/events", s.handleListEvents)
		r.Post("/events/{eventID}/approve", s.handleApproveEvent)
		r.Post("/events/{eventID}/reject", s.handleRejectEvent)

		r.Post("/genesis", s.handleGenesis)
	})

	r.Handle("/metrics", promhttp.Handler())

	s.mux = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	dbOK := true
	if err := s.db.Ping(); err != nil {
		dbOK = false
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"db":      dbOK,
		"db_path": s.db.Path,
	})
}

// stationfor reads the station from the query string, falling back to the
// server's configured station.
func (s *Server) stationFor(r *http.Request) string {
	if id := r.URL.Query().Get("station_id"); id != "" {
		return id
	}
	return s.stationID
}

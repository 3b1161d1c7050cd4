// Package server provides the local HTTP API for the mudra direction classifier.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/app"
	"github.com/ayusman/mudra/internal/server/api"
	"github.com/ayusman/mudra/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// shutdownTimeout bounds how long Run waits for in-flight requests.
const shutdownTimeout = 5 * time.Second

// StatsSource reports watch loop counters for the health endpoint.
type StatsSource interface {
	Stats() app.Stats
	IsEnabled() bool
}

// Config holds the server configuration. Every field is optional; routes
// whose dependency is nil are not registered.
type Config struct {
	Predictor api.Predictor
	Store     *store.Store
	Hub       *Hub
	Watch     StatsSource
	Logger    logrus.FieldLogger
}

// Server represents the HTTP server for the mudra application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	log    logrus.FieldLogger
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	log := config.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
		log:    log.WithField("component", "server"),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Predictor != nil {
		s.mux.Handle("/api/predict", api.NewPredictHandler(s.config.Predictor))
	}

	if s.config.Store != nil {
		history := api.NewPredictionsHandler(s.config.Store)
		s.mux.Handle("/api/predictions", history)
		s.mux.Handle("/api/predictions/", history)
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/labels", s.config.Hub)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status   string     `json:"status"`
	Uptime   string     `json:"uptime"`
	Watching *bool      `json:"watching,omitempty"`
	Stats    *app.Stats `json:"stats,omitempty"`
	Clients  *int       `json:"clients,omitempty"`
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := healthResponse{
		Status: "ok",
		Uptime: time.Since(s.start).String(),
	}
	if s.config.Watch != nil {
		enabled := s.config.Watch.IsEnabled()
		stats := s.config.Watch.Stats()
		response.Watching = &enabled
		response.Stats = &stats
	}
	if s.config.Hub != nil {
		n := s.config.Hub.Clients()
		response.Clients = &n
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("[server] listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	if s.config.Hub != nil {
		s.config.Hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info("[server] stopped")
	return nil
}

package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/codevanta/propgate/internal/db"
	"github.com/codevanta/propgate/internal/learning"
	"github.com/codevanta/propgate/internal/pipeline"
	"github.com/codevanta/propgate/internal/review"
	"github.com/codevanta/propgate/internal/stream"
)

// Config holds server configuration.
type Config struct {
	Host     string
	Port     int
	AllowAll bool // allow all CORS origins (dev mode)
}

// Server is the propgate API server: the proposal lifecycle endpoints, the
// learning history, HTML review reports, and the live check event stream.
type Server struct {
	cfg        Config
	db         *db.DB
	svc        *pipeline.Service
	events     *learning.Store
	hub        *stream.Hub
	renderer   *review.Renderer
	router     chi.Router
	httpServer *http.Server
}

// New creates a server with all dependencies wired.
func New(cfg Config, database *db.DB, svc *pipeline.Service, events *learning.Store, hub *stream.Hub, renderer *review.Renderer) *Server {
	s := &Server{
		cfg:      cfg,
		db:       database,
		svc:      svc,
		events:   events,
		hub:      hub,
		renderer: renderer,
	}

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(10 * time.Minute))

	// CORS
	corsOpts := cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	if s.svc != nil {
		pipeline.RegisterRoutes(r, s.svc)
		if s.renderer != nil {
			review.RegisterRoutes(r, s.svc.Store, s.renderer)
		}
	}
	if s.events != nil {
		learning.RegisterRoutes(r, s.events)
	}
	if s.hub != nil {
		s.hub.RegisterRoutes(r)
	}

	return r
}

// Router returns the chi router, mainly for tests.
func (s *Server) Router() chi.Router { return s.router }

// Database returns the database connection.
func (s *Server) Database() *db.DB { return s.db }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("propgate server listening on %s", addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

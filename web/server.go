// Package web exposes comparison sessions over HTTP.
package web

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
)

// Config holds server configuration.
type Config struct {
	Port    int
	Log     zerolog.Logger
	Manager *Manager
}

// Server is the HTTP front end. All session state lives in the
// Manager; the server itself is stateless.
type Server struct {
	router   *chi.Mux
	server   *http.Server
	log      zerolog.Logger
	sessions *Manager
}

// New creates an HTTP server wired to the given session manager.
func New(cfg Config) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		log:      cfg.Log.With().Str("component", "web").Logger(),
		sessions: cfg.Manager,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api/sessions", func(r chi.Router) {
		r.Post("/", s.handleCreateSession)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetSession)
			r.Delete("/", s.handleDeleteSession)

			r.Post("/message", s.handleSetMessage)
			r.Post("/noise", s.handleSetNoise)
			r.Post("/sync", s.handleSetSync)
			r.Post("/restart", s.handleRestart)

			r.Post("/quantum/next", s.handleQuantumNext)
			r.Post("/quantum/step", s.handleQuantumStep)
			r.Get("/quantum/ops", s.handleQuantumOps)
			r.Post("/quantum/evaluate", s.handleEvaluate)

			r.Post("/classical/next", s.handleClassicalNext)
			r.Post("/classical/step", s.handleClassicalStep)
			r.Get("/classical/trace", s.handleClassicalTrace)

			r.Post("/sweep", s.handleSweep)
			r.Get("/report", s.handleReport)
		})
	})
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

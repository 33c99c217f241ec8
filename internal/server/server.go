// Package server exposes the generation pipeline and the template library
// over a JSON HTTP API.
package server

import (
	"autoblog/internal/config"
	"autoblog/internal/generator"
	"autoblog/internal/logger"
	"autoblog/internal/observability"
	"autoblog/internal/templates"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const defaultRequestTimeout = 5 * time.Minute

// Server represents the HTTP server
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	pipeline   *generator.Pipeline
	library    *templates.Library
	sessions   *sessionStore
	config     config.Server
	log        *slog.Logger
}

// New creates a new HTTP server instance
func New(pipeline *generator.Pipeline, library *templates.Library, cfg config.Server) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		pipeline: pipeline,
		library:  library,
		sessions: newSessionStore(cfg.SessionTTL),
		config:   cfg,
		log:      logger.Get(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(observability.Middleware)
	s.router.Use(securityHeaders)

	// A generation may walk several backends, so the request budget follows
	// the write timeout rather than a short fixed value.
	timeout := s.config.WriteTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	s.router.Use(middleware.Timeout(timeout))

	if s.config.CORS.Enabled {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   s.config.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"Link"},
			AllowCredentials: false,
			MaxAge:           300,
		}))
	}
}

// setupRoutes configures routes for the server
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", observability.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/measure", s.handleMeasure)

		r.Route("/sessions", func(r chi.Router) {
			r.Use(noCache)
			r.Post("/", s.handleCreateSession)
			r.Get("/{id}", s.handleGetSession)
			r.Patch("/{id}", s.handleUpdateSession)
			r.Post("/{id}/refine/{kind}", s.handleRefineSession)
			r.Get("/{id}/preview", s.handlePreviewSession)
			r.Get("/{id}/thumbnail", s.handleSessionThumbnail)
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Get("/{name}", s.handleGetTemplate)
			r.Put("/{name}", s.handleSaveTemplate)
			r.Delete("/{name}", s.handleDeleteTemplate)
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info("Starting HTTP server",
		"addr", s.httpServer.Addr,
		"read_timeout", s.config.ReadTimeout,
		"write_timeout", s.config.WriteTimeout,
		"session_ttl", s.config.SessionTTL,
	)

	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance (useful for testing)
func (s *Server) Router() *chi.Mux {
	return s.router
}

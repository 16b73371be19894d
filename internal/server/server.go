// Package server exposes the published state over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/voyagen/drtvfeed/internal/config"
	"github.com/voyagen/drtvfeed/internal/metrics"
	"github.com/voyagen/drtvfeed/internal/store"
)

// Refresher starts a refresh without waiting for it and returns a job id.
type Refresher func(ctx context.Context, reason string) (jobID string, err error)

// Server holds dependencies for the HTTP API.
type Server struct {
	store   store.StateStore
	cfg     *config.Config
	refresh Refresher // nil disables POST /api/refresh
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	router  chi.Router
}

// New creates a Server and registers routes. refresh, m and log may be nil.
func New(st store.StateStore, cfg *config.Config, refresh Refresher, m *metrics.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	srv := &Server{
		store:   st,
		cfg:     cfg,
		refresh: refresh,
		metrics: m,
		log:     log.WithField("component", "server"),
		router:  chi.NewRouter(),
	}
	srv.routes()
	return srv
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.Recoverer)
	r.Use(withCORS)
	r.Use(requestLogger(s.log))
	r.Use(metrics.RequestMiddleware(s.metrics))

	r.Get("/metrics", s.metrics.Handler().ServeHTTP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/state", s.handleState)
		r.Get("/history", s.handleHistory)
		r.Post("/refresh", s.handleRefresh)

		r.Route("/channels", func(r chi.Router) {
			r.Get("/", s.handleListChannels)
			r.Get("/{name}", s.handleGetChannel)
		})

		r.Get("/docs", handleSwaggerUI)
		r.Get("/docs/openapi.yaml", handleOpenAPISpec)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured port.
// It blocks until the server is shut down or ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	addr := ":" + s.cfg.ServerPort
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			s.log.WithError(err).Error("server shutdown")
		}
	}()

	s.log.WithField("addr", addr).Info("listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("ListenAndServe: %w", err)
	}
	return nil
}

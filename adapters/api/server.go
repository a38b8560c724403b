package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"prowler/app"
	"prowler/internal"
	"prowler/internal/permutation"
)

// Server exposes the enrichment and permutation services over HTTP.
type Server struct {
	router       *chi.Mux
	significance *app.SignificanceService
	enrichment   *app.EnrichmentService
	defaults     permutation.Options
	logger       *internal.Logger
}

// NewServer wires the routes. defaults fill the permutation options a request
// leaves out.
func NewServer(significance *app.SignificanceService, enrichment *app.EnrichmentService, defaults permutation.Options, logger *internal.Logger) *Server {
	s := &Server{
		router:       chi.NewRouter(),
		significance: significance,
		enrichment:   enrichment,
		defaults:     defaults,
		logger:       logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/enrichment", s.handleEnrichment)
		r.Get("/enrichments/{id}", s.handleGetEnrichment)

		r.Post("/permutations", s.handlePermutations)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
		r.Delete("/runs/{id}", s.handleDeleteRun)
	})
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then drains
// in-flight requests.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.router, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("prowler API listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("shutting down API server")
		return srv.Shutdown(shutdownCtx)
	}
}

// Package api provides the HTTP API server and handlers for the QuestBank
// category tree service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/questbank/questbank-server/internal/ratelimit"
	"github.com/questbank/questbank-server/internal/search"
	"github.com/questbank/questbank-server/internal/store"
	"github.com/questbank/questbank-server/internal/tree"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store           store.NodeStore
	engine          *tree.Engine
	query           *tree.Query
	searchIndex     *search.Index // nil when the full-text index is disabled
	mutationLimiter *ratelimit.KeyedRateLimiter
	router          *chi.Mux
	api             huma.API
	logger          *slog.Logger
}

// Options carries the optional server collaborators.
type Options struct {
	// SearchIndex serves ranked search when present; lookups fall back to a
	// store scan when nil.
	SearchIndex *search.Index

	// MutationLimiter throttles mutating requests per client IP. No limit
	// is applied when nil.
	MutationLimiter *ratelimit.KeyedRateLimiter
}

// NewServer creates an HTTP server with all routes configured.
func NewServer(st store.NodeStore, engine *tree.Engine, query *tree.Query, logger *slog.Logger, opts Options) *Server {
	s := &Server{
		store:           st,
		engine:          engine,
		query:           query,
		searchIndex:     opts.SearchIndex,
		mutationLimiter: opts.MutationLimiter,
		router:          chi.NewRouter(),
		logger:          logger,
	}

	// chi requires the middleware stack to be in place before the first
	// route is mounted, and humachi registers the OpenAPI routes eagerly.
	s.setupMiddleware()

	humaConfig := huma.DefaultConfig("QuestBank Category API", "1.0.0")
	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerCategoryRoutes()

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))
	if s.mutationLimiter != nil {
		s.router.Use(MutationRateLimit(s.mutationLimiter, s.logger))
	}
}

// Package api provides the HTTP API server and handlers for the FlowDeck
// board engine.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/flowdeckapp/flowdeck-server/internal/config"
	"github.com/flowdeckapp/flowdeck-server/internal/sse"
	"github.com/flowdeckapp/flowdeck-server/internal/store"
	"github.com/flowdeckapp/flowdeck-server/internal/validation"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store       *store.Store
	services    *Services
	sseHandler  *sse.Handler
	sseManager  *sse.Manager
	router      *chi.Mux
	api         huma.API
	validator   *validation.Validator
	rateLimiter *RateLimiter
	logger      *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(store *store.Store, services *Services, sseHandler *sse.Handler, sseManager *sse.Manager, cfg *config.Config, logger *slog.Logger) *Server {
	router := chi.NewRouter()

	s := &Server{
		store:       store,
		services:    services,
		sseHandler:  sseHandler,
		sseManager:  sseManager,
		router:      router,
		validator:   validation.New(),
		logger:      logger,
	}
	if cfg.RateLimit.Enabled {
		s.rateLimiter = NewRateLimiter(float64(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst)
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("FlowDeck API", "1.0.0")
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)
	s.api = humachi.New(router, humaConfig)
	RegisterErrorHandler()

	s.registerHealthRoutes()
	s.registerBoardRoutes()
	s.registerTaskRoutes()
	s.registerTimerRoutes()
	s.registerCommentRoutes()
	s.registerBillingRoutes()
	s.registerSearchRoutes()
	s.registerShareRoutes()
	s.registerBackupRoutes()

	// SSE streams bypass huma; they hold the connection open.
	if sseHandler != nil {
		router.Get("/api/v1/workspaces/{workspaceId}/events", sseHandler.ServeHTTP)
	}

	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// setupMiddleware configures the middleware stack.
func (s *Server) setupMiddleware(cfg *config.Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	origins := cfg.Server.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Member-ID", "X-Member-Name"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if s.rateLimiter != nil {
		s.router.Use(RateLimitMiddleware(s.rateLimiter, s.logger))
	}
}

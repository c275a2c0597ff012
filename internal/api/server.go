// Package api provides the HTTP API server and handlers for LocalCircle.
package api

import (
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/localcircle/localcircle-server/internal/auth"
	"github.com/localcircle/localcircle-server/internal/ratelimit"
	"github.com/localcircle/localcircle-server/internal/sse"
	"github.com/localcircle/localcircle-server/internal/store"
)

// Config holds the HTTP-facing settings of the API server.
type Config struct {
	Version         string
	CORSOrigins     []string
	WritesPerMinute int
	WriteBurst      int
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        *store.Store
	services     *Services
	tokens       *auth.TokenService
	router       *chi.Mux
	api          huma.API
	sseManager   *sse.Manager
	sseHandler   *sse.Handler
	writeLimiter *ratelimit.KeyedRateLimiter
	logger       *slog.Logger
}

// NewServer creates a new HTTP server with all routes configured.
func NewServer(st *store.Store, services *Services, tokens *auth.TokenService, sseManager *sse.Manager, cfg Config, logger *slog.Logger) *Server {
	if cfg.Version == "" {
		cfg.Version = "dev"
	}
	if cfg.WritesPerMinute <= 0 {
		cfg.WritesPerMinute = 120
	}
	if cfg.WriteBurst <= 0 {
		cfg.WriteBurst = 20
	}

	s := &Server{
		store:        st,
		services:     services,
		tokens:       tokens,
		router:       chi.NewRouter(),
		sseManager:   sseManager,
		writeLimiter: ratelimit.PerMinute(cfg.WritesPerMinute, cfg.WriteBurst),
		logger:       logger,
	}
	if sseManager != nil {
		s.sseHandler = sse.NewHandler(sseManager, userFromRequest, logger)
	}

	s.setupMiddleware(cfg)

	humaConfig := huma.DefaultConfig("LocalCircle API", cfg.Version)
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		"bearer": {
			Type:         "http",
			Scheme:       "bearer",
			BearerFormat: "PASETO",
		},
	}
	// Bodies are wrapped in the envelope, so a $schema link would describe
	// the wrong document.
	humaConfig.CreateHooks = nil
	humaConfig.Transformers = append(humaConfig.Transformers, EnvelopeTransformer)

	s.api = humachi.New(s.router, humaConfig)
	RegisterErrorHandler()

	s.registerRoutes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close releases background resources held by the server.
func (s *Server) Close() {
	s.writeLimiter.Stop()
}

func (s *Server) setupMiddleware(cfg Config) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	s.router.Use(authMiddleware(s.tokens))
	s.router.Use(s.rateLimitWrites)
}

func (s *Server) registerRoutes() {
	s.registerHealthRoutes()
	s.registerFeedRoutes()
	s.registerPostRoutes()
	s.registerLedgerRoutes()
	s.registerCollectionRoutes()
	s.registerAlertRoutes()

	// Streams bypass huma: they write text/event-stream, not envelopes.
	s.router.Get("/api/v1/feed/stream", s.handleFeedStream)
	if s.sseHandler != nil {
		s.router.Get("/api/v1/events", s.sseHandler.ServeHTTP)
	}
}

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/me/phenogen/internal/compiler"
	"github.com/me/phenogen/internal/config"
	"github.com/me/phenogen/internal/parser"
	"github.com/me/phenogen/internal/store"
)

// Server is the phenogen REST API server.
type Server struct {
	router    chi.Router
	logger    *slog.Logger
	config    config.ServerConfig
	startTime time.Time
	parser    *parser.Parser
	validator *parser.Validator
	compiler  *compiler.Compiler
	store     store.Store
}

// Option configures optional Server dependencies.
type Option func(*Server)

// WithCompiler replaces the compiler built from the default compiler config.
func WithCompiler(c *compiler.Compiler) Option {
	return func(s *Server) {
		s.compiler = c
	}
}

// New creates a new Server with all routes registered.
// st may be nil, in which case only the stateless endpoints are served.
func New(cfg config.ServerConfig, st store.Store, logger *slog.Logger, opts ...Option) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		logger:    logger.With("component", "server"),
		config:    cfg,
		startTime: time.Now(),
		parser:    parser.New(logger),
		validator: parser.NewValidator(logger),
		store:     st,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.compiler == nil {
		s.compiler = compiler.New(config.DefaultCompilerConfig(), logger)
	}

	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Handler returns the http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(s.logger))
	r.Use(bodyLimitMiddleware(s.config.MaxBodyBytes))

	// Bare compile endpoint: step sequence in, bundle out.
	r.Post("/generate", s.handleGenerate)

	// API routes (JSON)
	r.Route("/api/v1", func(r chi.Router) {
		// Discovery
		r.Get("/", s.handleDiscovery)

		// Health
		r.Get("/health", s.handleHealth)

		// Compilations
		r.Route("/compilations", func(r chi.Router) {
			r.Use(s.requireStore)
			r.Get("/", s.handleListCompilations)
			r.Post("/", s.handleCreateCompilation)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetCompilation)
				r.Delete("/", s.handleDeleteCompilation)
				r.Get("/archive", s.handleGetCompilationArchive)
			})
		})
	})
}

// Package web exposes loads over HTTP for schedulers and other services
// that cannot shell out to the CLI.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/JonMunkholm/csvload/internal/config"
	"github.com/JonMunkholm/csvload/internal/core"
	"github.com/JonMunkholm/csvload/internal/mapping"
	mw "github.com/JonMunkholm/csvload/internal/web/middleware"
)

// Loader runs one load. *core.Loader satisfies it.
type Loader interface {
	Load(ctx context.Context, req core.LoadRequest) (*core.LoadResult, error)
}

// Server is the HTTP trigger for loads.
type Server struct {
	loader  Loader
	mapping *mapping.Mapping
	limiter *core.LoadLimiter
	cfg     config.ServerConfig
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server. Loads beyond the limiter's capacity wait up
// to its max wait time and then fail with 503.
func NewServer(loader Loader, m *mapping.Mapping, limiter *core.LoadLimiter, cfg config.ServerConfig) *Server {
	s := &Server{
		loader:  loader,
		mapping: m,
		limiter: limiter,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(s.cfg.RequireAPIKey, s.cfg.APIKeys))

		r.Get("/mappings", s.handleListMappings)
		r.Post("/loads/{key}", s.handleLoad)
	})
}

// Start listens on the configured address until Shutdown.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.cfg.Addr())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running loads to finish
// or ctx to end.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}

// healthResponse is the body of GET /healthz.
type healthResponse struct {
	Status   string                 `json:"status"`
	Time     time.Time              `json:"time"`
	Loads    core.LoadLimiterStatus `json:"loads"`
	Mappings int                    `json:"mappings"`
}

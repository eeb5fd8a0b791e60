package web

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/justestif/skate-sessions/internal/metrics"
	"github.com/justestif/skate-sessions/internal/sessions"
)

const (
	// DefaultAddr is the default server address.
	DefaultAddr = "127.0.0.1:8080"

	sweepInterval   = 15 * time.Minute
	shutdownTimeout = 10 * time.Second
)

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr           string
	BaseURL        string
	SecureCookies  bool
	MetricsEnabled bool
	TemplatesFS    fs.FS
	StaticFS       fs.FS

	Auth    AuthClient
	Logins  SessionManager
	Service *sessions.Service
	Store   Pinger
}

// Server is the HTTP server for the web application.
type Server struct {
	router    chi.Router
	server    *http.Server
	templates *Templates
	logins    SessionManager
	handlers  *Handlers
}

// NewServer creates a new web server.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://" + cfg.Addr
	}

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	handlers := NewHandlers(cfg.Auth, cfg.Logins, cfg.Service, cfg.Store, templates, cfg.BaseURL, cfg.SecureCookies)

	router := chi.NewRouter()

	s := &Server{
		router:    router,
		templates: templates,
		logins:    cfg.Logins,
		handlers:  handlers,
	}

	s.setupMiddleware(cfg.MetricsEnabled)
	s.setupRoutes(cfg.StaticFS, cfg.MetricsEnabled)

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Handler returns the router, for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware(metricsEnabled bool) {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	if metricsEnabled {
		s.router.Use(metrics.Middleware)
	}
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS, metricsEnabled bool) {
	h := s.handlers

	// Static files
	fileServer := http.FileServer(http.FS(staticFS))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	s.router.Get("/health", h.Health)
	if metricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler())
	}

	// Public pages
	s.router.Get("/", h.Home)

	// Auth routes
	s.router.Get("/login", h.LoginPage)
	s.router.Post("/login/magic-link", h.SendMagicLink)
	s.router.Get("/login/{provider}", h.ProviderLogin)
	s.router.Get("/auth/callback", h.Callback)
	s.router.Post("/auth/logout", h.Logout)

	// Signed-in routes
	s.router.Group(func(r chi.Router) {
		r.Use(h.gate.RequireUser)

		r.Get("/me", h.Me)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", h.ListSessions)
			r.Post("/", h.CreateSession)

			r.Route("/{sessionID}", func(r chi.Router) {
				r.Get("/", h.ShowSession)
				r.Post("/delete", h.DeleteSession)

				r.Post("/tricks", h.AttachTrick)
				r.Post("/tricks/{sessionTrickID}", h.UpdateTrick)
				r.Post("/tricks/{sessionTrickID}/completion", h.ToggleCompletion)
				r.Post("/tricks/{sessionTrickID}/delete", h.RemoveTrick)
			})
		})
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	slog.Info("Starting server", "addr", "http://"+s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Run starts the server and the expired login sweeper, and shuts both down
// on SIGINT/SIGTERM or when ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go s.sweep(ctx, sweepInterval)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("Shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("Server stopped")
	return nil
}

// sweep deletes expired login sessions every interval until ctx is done.
func (s *Server) sweep(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Server) sweepOnce(ctx context.Context) {
	removed, err := s.logins.DeleteExpired(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "deleting expired login sessions", "error", err)
		return
	}
	if removed > 0 {
		metrics.UserSessionsSweptTotal.Add(float64(removed))
		slog.InfoContext(ctx, "deleted expired login sessions", "count", removed)
	}
}

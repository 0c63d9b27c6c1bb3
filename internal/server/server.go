// Package server sets up the HTTP server, router, and all route definitions.
//
// This package is the composition root: the store, the services, the
// handlers and the middleware are created and wired here, and nowhere else.
//
// DEPENDENCY INJECTION FLOW:
//
//	config.Config → New()
//	  sqlite.DB (every repository) → services → handlers → chi routes
//
// Handlers never touch the store directly and services never touch HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/guestlist/internal/auth"
	"github.com/sakif/guestlist/internal/config"
	"github.com/sakif/guestlist/internal/handler"
	"github.com/sakif/guestlist/internal/metrics"
	"github.com/sakif/guestlist/internal/middleware"
	sqliteRepo "github.com/sakif/guestlist/internal/repository/sqlite"
	"github.com/sakif/guestlist/internal/service"
)

// Server represents the HTTP server and all its dependencies.
//
// The Server owns the database connection. Start closes it after the HTTP
// server has drained, so in-flight check-ins finish their writes first.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	db      *sqliteRepo.DB
	metrics *metrics.Metrics
}

// New opens the database, migrates it, and wires every route.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, auth.DefaultTokenTTL)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	provider := auth.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL)

	return newServer(cfg, db, tokens, provider, logger), nil
}

func newServer(
	cfg *config.Config,
	db *sqliteRepo.DB,
	tokens *auth.TokenService,
	provider handler.OAuthProvider,
	logger *slog.Logger,
) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		db:      db,
		metrics: metrics.New(),
	}
	s.setupRoutes(tokens, provider)
	return s
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /healthz                              → store ping
//	GET    /metrics                              → Prometheus exposition
//	GET    /auth/github/login                    → OAuth redirect
//	GET    /auth/github/callback                 → OAuth callback
//	POST   /auth/logout                          → clear session cookie
//	GET    /api/me                               → current organizer
//	GET    /api/events                           → list own events
//	POST   /api/events                           → create event
//	GET    /api/events/{eventId}                 → get event
//	PUT    /api/events/{eventId}                 → update event
//	DELETE /api/events/{eventId}                 → delete event (cascades)
//	GET    /api/events/{eventId}/stats           → dashboard figures
//	GET    /api/events/{eventId}/ticket-types    → list ticket types
//	POST   /api/events/{eventId}/ticket-types    → create ticket type
//	PUT    /api/ticket-types/{id}                → update ticket type
//	DELETE /api/ticket-types/{id}                → delete ticket type
//	GET    /api/events/{eventId}/guests          → list guests (?entered=&ticketTypeId=&q=)
//	POST   /api/events/{eventId}/guests          → add guest
//	GET    /api/guests/{id}                      → get guest
//	PUT    /api/guests/{id}                      → update guest
//	DELETE /api/guests/{id}                      → delete guest
//	POST   /api/guests/{id}/check-in             → mark guest as entered
//
// MIDDLEWARE ORDER MATTERS:
//  1. RequestID: assigns a unique ID to each request (for tracing)
//  2. RealIP: extracts the client IP from proxy headers
//  3. Recoverer: turns panics into 500s
//  4. Logger: logs and counts every request with its route pattern
func (s *Server) setupRoutes(tokens *auth.TokenService, provider handler.OAuthProvider) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger, s.metrics))

	eventService := service.NewEventService(s.db, s.db, s.logger)
	ticketTypeService := service.NewTicketTypeService(s.db, s.db, s.logger)
	guestService := service.NewGuestService(s.db, s.db, s.metrics, s.logger)
	statsService := service.NewStatsService(s.db, s.db, s.config.Location, s.logger)
	authService := service.NewAuthService(s.db, tokens, s.logger)

	eventHandler := handler.NewEventHandler(eventService, statsService, s.logger)
	ticketTypeHandler := handler.NewTicketTypeHandler(ticketTypeService, s.logger)
	guestHandler := handler.NewGuestHandler(guestService, s.logger)
	authHandler := handler.NewAuthHandler(provider, authService, tokens.TTL(), s.config.CookieSecure, s.logger)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Get("/me", authHandler.HandleMe)

		r.Route("/events", func(r chi.Router) {
			r.Get("/", eventHandler.HandleList)
			r.Post("/", eventHandler.HandleCreate)

			r.Route("/{eventId}", func(r chi.Router) {
				r.Get("/", eventHandler.HandleGet)
				r.Put("/", eventHandler.HandleUpdate)
				r.Delete("/", eventHandler.HandleDelete)
				r.Get("/stats", eventHandler.HandleStats)

				r.Get("/ticket-types", ticketTypeHandler.HandleList)
				r.Post("/ticket-types", ticketTypeHandler.HandleCreate)

				r.Get("/guests", guestHandler.HandleList)
				r.Post("/guests", guestHandler.HandleCreate)
			})
		})

		r.Put("/ticket-types/{id}", ticketTypeHandler.HandleUpdate)
		r.Delete("/ticket-types/{id}", ticketTypeHandler.HandleDelete)

		r.Get("/guests/{id}", guestHandler.HandleGet)
		r.Put("/guests/{id}", guestHandler.HandleUpdate)
		r.Delete("/guests/{id}", guestHandler.HandleDelete)
		r.Post("/guests/{id}/check-in", guestHandler.HandleCheckIn)
	})
}

// handleHealth reports whether the store answers.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"unavailable"}`)
		return
	}
	fmt.Fprint(w, `{"status":"ok"}`)
}

// ServeHTTP lets the Server be used directly as an http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// On SIGINT/SIGTERM the server stops accepting connections, waits up to 30
// seconds for in-flight requests, and then closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
			slog.String("timezone", s.config.Location.String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

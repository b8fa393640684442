// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main.go hands it a Config and a logger, and
// New() assembles the whole dependency chain — database, services, handlers —
// in one place. Handlers never touch the database directly; services never
// touch HTTP.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/taskvault/internal/auth"
	"github.com/sakif/taskvault/internal/handler"
	"github.com/sakif/taskvault/internal/middleware"
	sqliteRepo "github.com/sakif/taskvault/internal/repository/sqlite"
	"github.com/sakif/taskvault/internal/service"
)

// Config holds server configuration.
type Config struct {
	Port          int
	DBPath        string
	WebhookSecret string // empty disables webhook signature verification
	Payment       service.PaymentConfig
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown in Start().
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with all dependencies wired:
//
//	sqlite.DB → services (auth, todo, subscription, webhook) → handlers → routes
//
// Each layer only receives what it needs: services get repository interfaces,
// handlers get services.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	s.setupRoutes()

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// Route structure:
//
//	GET    /api/health            → liveness probe (public)
//	POST   /api/auth/sign-up      → register (public)
//	POST   /api/auth/sign-in      → authenticate (public)
//	POST   /api/webhooks/payment  → provider events (public, HMAC-verified)
//	POST   /api/auth/sign-out     → end session (authenticated)
//	GET    /api/auth/me           → current user (authenticated)
//	GET    /api/todos             → list todos (authenticated)
//	POST   /api/todos             → create todo (authenticated)
//	PATCH  /api/todos/{id}        → update todo (authenticated)
//	DELETE /api/todos/{id}        → delete todo (authenticated)
//	GET    /api/subscription      → active subscription (authenticated)
//	POST   /api/checkout          → checkout URL (authenticated)
//	POST   /api/portal            → billing portal URL (authenticated)
//
// Middleware order matters: RequestID and RealIP first so the logger sees
// them, Recoverer before any handler so panics become 500s.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// Services. s.db satisfies every repository interface.
	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(s.db, s.db, passwords, s.logger)
	todoService := service.NewTodoService(s.db, s.logger)
	subService := service.NewSubscriptionService(s.db, s.db, s.config.Payment, s.logger)
	webhookService := service.NewWebhookService(s.db, s.logger)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService, s.logger)
	todoHandler := handler.NewTodoHandler(todoService, s.logger)
	subHandler := handler.NewSubscriptionHandler(subService, s.logger)
	webhookHandler := handler.NewWebhookHandler(webhookService, s.config.WebhookSecret, s.logger)

	s.router.Route("/api", func(r chi.Router) {
		// Public routes: no session required.
		r.Get("/health", handleHealth)
		r.Post("/auth/sign-up", authHandler.HandleSignUp)
		r.Post("/auth/sign-in", authHandler.HandleSignIn)
		r.Post("/webhooks/payment", webhookHandler.HandleWebhook)

		// Everything else sits behind the auth gate.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(authService))

			r.Post("/auth/sign-out", authHandler.HandleSignOut)
			r.Get("/auth/me", authHandler.HandleMe)

			r.Get("/todos", todoHandler.HandleList)
			r.Post("/todos", todoHandler.HandleCreate)
			r.Patch("/todos/{id}", todoHandler.HandleUpdate)
			r.Delete("/todos/{id}", todoHandler.HandleDelete)

			r.Get("/subscription", subHandler.HandleGetSubscription)
			r.Post("/checkout", subHandler.HandleCreateCheckout)
			r.Post("/portal", subHandler.HandleCreatePortal)
		})
	})
}

// Router returns the underlying handler, for tests that want to drive the
// full middleware + route stack through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, give in-flight requests 30s to
// finish, close the database (flushes WAL, releases the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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

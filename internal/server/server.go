// Package server is the composition root: it builds the store, services,
// and handlers, wires every route, and runs the HTTP server with
// graceful shutdown.
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
	"github.com/go-chi/cors"

	"github.com/feedbackpulse/feedback-pulse/internal/auth"
	"github.com/feedbackpulse/feedback-pulse/internal/config"
	"github.com/feedbackpulse/feedback-pulse/internal/handler"
	"github.com/feedbackpulse/feedback-pulse/internal/middleware"
	"github.com/feedbackpulse/feedback-pulse/internal/repository"
	"github.com/feedbackpulse/feedback-pulse/internal/repository/memory"
	sqliteRepo "github.com/feedbackpulse/feedback-pulse/internal/repository/sqlite"
	"github.com/feedbackpulse/feedback-pulse/internal/service"
)

// Server owns the router and the store. The store is closed during
// graceful shutdown, after in-flight requests drain.
type Server struct {
	router *chi.Mux
	cfg    *config.Config
	logger *slog.Logger
	store  repository.Store
}

// New assembles the full dependency chain:
//
//	store (sqlite or memory) → services → handlers → routes
//
// Handlers never see the store and services never see HTTP; everything
// crosses layers through the repository interfaces and domain errors.
func New(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	s := &Server{
		router: chi.NewRouter(),
		cfg:    cfg,
		logger: logger,
		store:  store,
	}

	if err := s.setupRoutes(); err != nil {
		store.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	if cfg.SeedDemo {
		if err := seedDemo(context.Background(), store, logger); err != nil {
			store.Close()
			return nil, fmt.Errorf("seeding demo data: %w", err)
		}
	}

	return s, nil
}

// openStore picks the backing store. sqlite is the default; the memory
// store exists for tests and for demoing without a writable disk.
func openStore(cfg *config.Config) (repository.Store, error) {
	switch cfg.Store {
	case "memory":
		return memory.New(), nil
	case "", "sqlite":
		db, err := sqliteRepo.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown STORE %q (want sqlite or memory)", cfg.Store)
	}
}

func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.cfg.JWTSecret)
	if err != nil {
		return err
	}
	passwords := auth.NewPasswordService()

	var github *auth.GitHubProvider
	if s.cfg.GitHubClientID != "" && s.cfg.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(s.cfg.GitHubClientID, s.cfg.GitHubClientSecret, s.cfg.GitHubCallbackURL)
	} else {
		s.logger.Info("GitHub OAuth not configured, social login disabled")
	}

	authService := service.NewAuthService(s.store, tokens, passwords, s.logger)
	projectService := service.NewProjectService(s.store, s.logger)
	feedbackService := service.NewFeedbackService(s.store, s.store, s.store, s.logger)

	authHandler := handler.NewAuthHandler(authService, tokens, github, s.cfg.AppURL, s.logger)
	projectHandler := handler.NewProjectHandler(projectService, feedbackService, s.logger)
	feedbackHandler := handler.NewFeedbackHandler(feedbackService, s.logger)
	widgetHandler := handler.NewWidgetHandler(projectService, s.cfg.AppURL, s.cfg.StaticDir, s.logger)

	// The ingestion endpoint and the widget assets are called from
	// arbitrary third-party origins, so cross-origin requests get
	// Access-Control-Allow-Origin: * and preflights answer 200. The
	// middleware sits at the top of the chain; chi only runs route-level
	// middleware after a method match, which would eat OPTIONS. The
	// owner API is unaffected: browsers refuse to pair a wildcard origin
	// with credentialed (cookie) requests.
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         3600,
	}))

	s.router.Post("/api/feedback/submit", feedbackHandler.HandleSubmit)
	// Bare OPTIONS (no Access-Control-Request-Method, so not a preflight
	// the cors middleware answers) still gets 200 instead of chi's 405.
	s.router.Options("/api/feedback/submit", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	s.router.Get("/widget/embed", widgetHandler.HandleEmbed)
	s.router.Get("/widget/feedback.js", widgetHandler.HandleScript)

	// Session management. Signup/login/logout need no session; /me does.
	s.router.Route("/api/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.With(auth.RequireAuth(tokens)).Get("/me", authHandler.HandleMe)
	})
	s.router.Get("/auth/github/login", authHandler.HandleGitHubLogin)
	s.router.Get("/auth/github/callback", authHandler.HandleGitHubCallback)

	// Owner API: same-origin dashboard calls, session required on every
	// route. The 401 happens in the middleware before any handler runs.
	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Route("/api/projects", func(r chi.Router) {
			r.Get("/", projectHandler.HandleList)
			r.Post("/", projectHandler.HandleCreate)
			r.Get("/{projectID}", projectHandler.HandleGet)
			r.Patch("/{projectID}", projectHandler.HandleRename)
			r.Delete("/{projectID}", projectHandler.HandleDelete)
			r.Get("/{projectID}/feedback", projectHandler.HandleListFeedback)
		})

		r.Route("/api/feedback/{feedbackID}/labels", func(r chi.Router) {
			r.Post("/", feedbackHandler.HandleAddLabel)
			r.Delete("/", feedbackHandler.HandleRemoveLabel)
		})
	})

	return nil
}

// Router exposes the configured mux, mainly for tests that want to drive
// the full route table through httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the server until SIGINT/SIGTERM, then drains in-flight
// requests and closes the store.
func (s *Server) Start() error {
	defer s.store.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("store", s.cfg.Store),
			slog.String("url", s.cfg.AppURL),
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

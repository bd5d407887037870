// Package server wires handlers, middleware and routes, and owns the HTTP
// server lifecycle. It is the composition root: all dependencies are
// assembled here, so main.go stays minimal.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/sakif/snipet/internal/auth"
	"github.com/sakif/snipet/internal/handler"
	"github.com/sakif/snipet/internal/middleware"
	sqliteRepo "github.com/sakif/snipet/internal/repository/sqlite"
	"github.com/sakif/snipet/internal/service"
)

// Config holds server configuration, loaded from the environment by
// cmd/server.
type Config struct {
	Port   int
	DBPath string

	JWTSecret string

	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// AppURL is where the OAuth callback sends the browser after sign-in.
	AppURL string

	// CORSOrigins lists allowed browser origins, comma separated.
	CORSOrigins string

	// SecureCookies marks auth cookies Secure; enable behind HTTPS.
	SecureCookies bool
}

// Server is the HTTP server and its dependencies. It owns the database
// connection and closes it on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server: opens the database, builds the service and handler
// layers, and registers all routes.
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

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

func (s *Server) setupRoutes() error {
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(s.config.GitHubClientID, s.config.GitHubClientSecret, s.config.GitHubCallbackURL)
	} else {
		s.logger.Warn("GitHub OAuth not configured, /auth/github routes disabled")
	}

	// Services all share the single sqlite.DB behind their repository
	// interfaces.
	authService := service.NewAuthService(s.db, auth.NewPasswordService(), tokens, s.logger)
	snippetService := service.NewSnippetService(s.db, s.logger)
	versionService := service.NewVersionService(s.db, s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.db, s.logger)
	upvoteService := service.NewUpvoteService(s.db, s.db, s.db, s.logger)
	userService := service.NewUserService(s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, s.config.SecureCookies, s.config.AppURL)
	snippetHandler := handler.NewSnippetHandler(snippetService, versionService, commentService, upvoteService)
	commentHandler := handler.NewCommentHandler(commentService, upvoteService)
	userHandler := handler.NewUserHandler(userService, snippetService)

	// Global middleware, in execution order.
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	if s.config.CORSOrigins != "" {
		s.router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   strings.Split(s.config.CORSOrigins, ","),
			AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/auth", func(r chi.Router) {
		// Credential endpoints get a tighter rate limit than the rest of
		// the API.
		r.Use(httprate.LimitByIP(10, time.Minute))

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)
		r.Get("/github/login", authHandler.GitHubLogin)
		r.Get("/github/callback", authHandler.GitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(httprate.LimitByIP(120, time.Minute))

		r.With(requireAuth).Get("/me", authHandler.Me)

		r.Route("/snippets", func(r chi.Router) {
			r.With(optionalAuth).Get("/", snippetHandler.List)
			r.With(requireAuth).Post("/", snippetHandler.Create)

			r.Route("/{snippetID}", func(r chi.Router) {
				r.With(optionalAuth).Get("/", snippetHandler.Get)
				r.With(requireAuth).Put("/", snippetHandler.Update)
				r.With(requireAuth).Delete("/", snippetHandler.Delete)

				r.With(requireAuth).Post("/fork", snippetHandler.Fork)
				r.With(requireAuth).Post("/visibility", snippetHandler.SetVisibility)

				r.With(optionalAuth).Get("/versions", snippetHandler.Versions)
				r.With(optionalAuth).Get("/versions/{versionID}/diff", snippetHandler.Diff)

				r.With(requireAuth).Post("/upvote", snippetHandler.ToggleUpvote)
				r.With(optionalAuth).Get("/upvotes", snippetHandler.Upvotes)

				r.With(optionalAuth).Get("/comments", snippetHandler.Comments)
				r.With(requireAuth).Post("/comments", snippetHandler.CreateComment)
			})
		})

		r.Route("/comments/{commentID}", func(r chi.Router) {
			r.With(requireAuth).Put("/", commentHandler.Update)
			r.With(requireAuth).Delete("/", commentHandler.Delete)
			r.With(optionalAuth).Get("/replies", commentHandler.Replies)
			r.With(requireAuth).Post("/upvote", commentHandler.ToggleUpvote)
		})

		r.Route("/users/{userID}", func(r chi.Router) {
			r.With(optionalAuth).Get("/", userHandler.Get)
			r.With(requireAuth).Put("/", userHandler.Update)
			r.With(optionalAuth).Get("/snippets", userHandler.Snippets)
		})
	})

	return nil
}

// Router exposes the configured router, mainly for tests.
func (s *Server) Router() http.Handler { return s.router }

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully: stop accepting connections, drain in-flight requests, close
// the database.
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

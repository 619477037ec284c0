// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the entire dependency chain is wired here —
// sqlite DB and file store at the bottom, services in the middle, handlers on
// top. Each layer only receives what it needs: services get repository
// interfaces, handlers get services, and nothing above the repository layer
// ever touches SQL.
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

	"github.com/sakif/geostream/internal/auth"
	"github.com/sakif/geostream/internal/handler"
	"github.com/sakif/geostream/internal/middleware"
	sqliteRepo "github.com/sakif/geostream/internal/repository/sqlite"
	"github.com/sakif/geostream/internal/service"
	"github.com/sakif/geostream/internal/storage"
)

// Config holds server configuration, loaded from the environment in
// cmd/server.
type Config struct {
	Port      int
	DBPath    string // path to the SQLite database file
	DataDir   string // root directory for uploaded dataset files
	JWTSecret string // HMAC secret for session tokens
}

// Server owns the router and the resources that must be released on
// shutdown (the database connection; the file store holds no handles).
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with all dependencies wired.
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

// setupRoutes configures middleware, builds the service/handler graph, and
// registers every route.
//
// Middleware order matters: RequestID first (so every later log line can
// carry it), then RealIP, then our logger, then Recoverer.
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	files, err := storage.NewFileStore(s.config.DataDir)
	if err != nil {
		return fmt.Errorf("creating file store: %w", err)
	}

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	// The sqlite.DB implements every repository interface; services receive
	// only the slices they need.
	userService := service.NewUserService(s.db, passwords, s.logger)
	feedService := service.NewFeedService(s.db, s.db, s.logger)
	socialService := service.NewSocialService(s.db, s.db, s.db, s.db, s.logger)
	contentService := service.NewContentService(s.db, s.db, s.db, files, s.logger)

	authHandler := handler.NewAuthHandler(userService, tokens, s.logger)
	feedHandler := handler.NewFeedHandler(feedService, s.logger)
	socialHandler := handler.NewSocialHandler(socialService, userService, s.logger)
	contentHandler := handler.NewContentHandler(contentService, s.logger)

	requireAuth := auth.RequireAuth(tokens)
	optionalAuth := auth.OptionalAuth(tokens)

	s.router.Route("/api", func(r chi.Router) {
		// Session management
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Post("/auth/logout", authHandler.HandleLogout)

		// Public reads. The profile read takes optional auth so a logged-in
		// viewer sees their follow state on it.
		r.With(optionalAuth).Get("/users/{id}", socialHandler.HandleProfile)
		r.Get("/users/{id}/following", socialHandler.HandleFollowing)
		r.Get("/users/{id}/followers", socialHandler.HandleFollowers)
		r.Get("/users/{id}/liked", socialHandler.HandleLiked)
		r.Get("/users/{id}/reposted", socialHandler.HandleReposted)
		r.Get("/{kind}/{id}/likes", socialHandler.HandleLikers)
		r.Get("/{kind}/{id}/reposts", socialHandler.HandleReposters)
		r.Get("/datasets/{id}", contentHandler.HandleGetDataSet)
		r.Get("/datasets/{id}/data", contentHandler.HandleDataSetData)
		r.Get("/datasets/{id}/references", contentHandler.HandleDataSetReferences)
		r.Get("/maps/{id}", contentHandler.HandleGetMap)
		r.Get("/tags/{id}", contentHandler.HandleGetTag)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/me", authHandler.HandleMe)
			r.Get("/feed", feedHandler.HandleFeed)

			r.Post("/users/{id}/follow", socialHandler.HandleToggleFollow)
			r.Post("/{kind}/{id}/like", socialHandler.HandleToggleLike)
			r.Post("/{kind}/{id}/repost", socialHandler.HandleToggleRepost)

			r.Post("/datasets", contentHandler.HandleCreateDataSet)
			r.Post("/datasets/{id}/layers", contentHandler.HandleCreateLayer)
			r.Post("/maps", contentHandler.HandleCreateMap)
			r.Post("/maps/{id}/sources", contentHandler.HandleAddMapSource)
			r.Post("/maps/{id}/layers", contentHandler.HandleAddMapLayer)
			r.Post("/tags", contentHandler.HandleCreateTag)
			r.Post("/tags/{id}/posts", contentHandler.HandleTagPost)
		})
	})

	return nil
}

// Router exposes the configured router, mainly for tests that want to drive
// the full HTTP stack with httptest.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start runs the HTTP server and handles graceful shutdown:
//  1. stop accepting new connections
//  2. give in-flight requests 30s to finish
//  3. close the database (flushes WAL, releases the file lock)
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
			slog.String("dataDir", s.config.DataDir),
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

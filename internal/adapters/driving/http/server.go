package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/custodia-labs/metatext-core/internal/core/ports/driven"
	"github.com/custodia-labs/metatext-core/internal/core/ports/driving"
)

// Pinger is a simple health check interface
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the driving ports the API exposes
type Services struct {
	Auth      driving.AuthService
	Users     driving.UserService
	Metatexts driving.MetatextService
	Views     driving.ChunkViewService
	Images    driving.ImageService
}

// Infrastructure groups the backends the API reads directly
type Infrastructure struct {
	DB      Pinger                // PostgreSQL health check
	Redis   Pinger                // Redis health check (optional)
	Queue   driven.TaskQueue      // Task queue health check
	Files   driven.ImageFileStore // Serves /images/
	Docs    func() (string, error)
	Metrics http.Handler // Serves /metrics (optional)
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	router     *http.ServeMux
	handler    http.Handler
	version    string
	logger     *slog.Logger
	validate   *validator.Validate

	// Services
	authService     driving.AuthService
	userService     driving.UserService
	metatextService driving.MetatextService
	viewService     driving.ChunkViewService
	imageService    driving.ImageService

	// Infrastructure
	infra           Infrastructure
	shutdownTimeout time.Duration
}

// Config holds server configuration
type Config struct {
	Host            string
	Port            int
	Version         string
	CORSOrigins     []string
	RateLimit       float64 // requests per second per client, 0 disables
	RateBurst       int
	ShutdownTimeout time.Duration
	Logger          *slog.Logger
	Observer        RequestObserver // optional
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            8080,
		Version:         "dev",
		ShutdownTimeout: 30 * time.Second,
	}
}

// NewServer creates a new HTTP server
func NewServer(cfg Config, services Services, infra Infrastructure) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}

	s := &Server{
		router:          http.NewServeMux(),
		version:         cfg.Version,
		logger:          logger,
		validate:        validator.New(validator.WithRequiredStructEnabled()),
		authService:     services.Auth,
		userService:     services.Users,
		metatextService: services.Metatexts,
		viewService:     services.Views,
		imageService:    services.Images,
		infra:           infra,
		shutdownTimeout: shutdownTimeout,
	}

	s.setupRoutes()

	// Outermost first: recovery, logging, CORS, rate limit
	var h http.Handler = s.router
	h = NewRateLimitMiddleware(cfg.RateLimit, cfg.RateBurst).Handler(h)
	h = NewCORSMiddleware(cfg.CORSOrigins).Handler(h)
	h = NewLoggingMiddleware(logger, cfg.Observer).Handler(h)
	h = NewRecoveryMiddleware(logger).Handler(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the fully wrapped request handler
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	authMiddleware := NewAuthMiddleware(s.authService)
	authed := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.Authenticate(h)
	}

	// Health endpoints (no auth)
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /ready", s.handleReady)
	s.router.HandleFunc("GET /version", s.handleVersion)
	if s.infra.Metrics != nil {
		s.router.Handle("GET /metrics", s.infra.Metrics)
	}
	if s.infra.Docs != nil {
		s.router.HandleFunc("GET /swagger/doc.json", s.handleSwaggerDoc)
	}

	// Generated image files (public, immutable paths)
	if s.infra.Files != nil {
		s.router.HandleFunc("GET /images/{path...}", s.handleImageFile)
	}

	// Auth endpoints (public)
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)

	// Setup endpoint (public, one-time use)
	s.router.HandleFunc("POST /api/v1/setup", s.handleSetup)

	// User endpoints
	s.router.Handle("GET /api/v1/me", authed(s.handleGetMe))
	s.router.Handle("GET /api/v1/users",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleListUsers))))
	s.router.Handle("POST /api/v1/users",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleCreateUser))))

	// Admin endpoints
	s.router.Handle("GET /api/v1/admin/queue",
		authMiddleware.Authenticate(
			authMiddleware.RequireAdmin(http.HandlerFunc(s.handleQueueStats))))

	// Metatext endpoints
	s.router.Handle("GET /api/v1/metatexts", authed(s.handleListMetatexts))
	s.router.Handle("GET /api/v1/metatexts/{id}", authed(s.handleGetMetatext))

	// Chunk view endpoints
	s.router.Handle("GET /api/v1/metatexts/{id}/view", authed(s.handleGetView))
	s.router.Handle("PATCH /api/v1/metatexts/{id}/view", authed(s.handleUpdateView))
	s.router.Handle("POST /api/v1/metatexts/{id}/view/goto", authed(s.handleGoToChunk))
	s.router.Handle("POST /api/v1/metatexts/{id}/navigation", authed(s.handleRequestNavigation))
	s.router.Handle("POST /api/v1/metatexts/{id}/bookmark/goto", authed(s.handleGoToBookmark))

	// Chunk markers
	s.router.Handle("PUT /api/v1/chunks/{id}/favorite", authed(s.handleSetFavorite(true)))
	s.router.Handle("DELETE /api/v1/chunks/{id}/favorite", authed(s.handleSetFavorite(false)))
	s.router.Handle("PUT /api/v1/chunks/{id}/bookmark", authed(s.handleSetBookmark(true)))
	s.router.Handle("DELETE /api/v1/chunks/{id}/bookmark", authed(s.handleSetBookmark(false)))

	// Image endpoints
	s.router.Handle("POST /api/v1/chunks/{id}/images", authed(s.handleGenerateImage))
	s.router.Handle("GET /api/v1/chunks/{id}/images", authed(s.handleListImages))
	s.router.Handle("GET /api/v1/chunks/{id}/images/latest", authed(s.handleLatestImage))
	s.router.Handle("GET /api/v1/image-polls/{id}", authed(s.handleGetPoll))
	s.router.Handle("DELETE /api/v1/image-polls/{id}", authed(s.handleCancelPoll))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

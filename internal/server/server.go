// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/mbd888/fraudwatch/internal/alert"
	"github.com/mbd888/fraudwatch/internal/config"
	"github.com/mbd888/fraudwatch/internal/feedback"
	"github.com/mbd888/fraudwatch/internal/health"
	"github.com/mbd888/fraudwatch/internal/logging"
	"github.com/mbd888/fraudwatch/internal/metrics"
	"github.com/mbd888/fraudwatch/internal/model"
	"github.com/mbd888/fraudwatch/internal/ratelimit"
	"github.com/mbd888/fraudwatch/internal/scoring"
	"github.com/mbd888/fraudwatch/internal/security"
	"github.com/mbd888/fraudwatch/internal/validation"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg         *config.Config
	pipeline    *scoring.Pipeline
	store       scoring.Store
	feedback    *feedback.Recorder
	healthReg   *health.Registry
	rateLimiter *ratelimit.Limiter
	db          *sql.DB // nil if using in-memory
	router      *gin.Engine
	httpSrv     *http.Server
	logger      *slog.Logger

	ready atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets a custom assessment store (for testing)
func WithStore(store scoring.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		logger:    logging.New(cfg.LogLevel, "json"),
		healthReg: health.NewRegistry(),
	}

	// Apply options first (may set store/logger)
	for _, opt := range opts {
		opt(s)
	}

	// Initialize storage (Postgres if DATABASE_URL set, otherwise in-memory)
	if s.store == nil {
		if cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}

			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)

			if err := db.Ping(); err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}

			s.db = db
			s.store = scoring.NewPostgresStore(db)
			s.logger.Info("using PostgreSQL storage", "url", maskDSN(cfg.DatabaseURL))
		} else {
			s.store = scoring.NewMemoryStore()
			s.logger.Warn("using in-memory storage (assessments lost on restart)")
		}
	}

	// Model artifact: load-or-default, shared read-only by all scoring calls
	artifact := model.LoadOrDefault(cfg.ModelPath, s.logger)
	scorer := scoring.NewScorer(artifact, s.logger).WithBlendWeight(cfg.BlendWeight)

	s.pipeline = scoring.NewPipeline(scorer, s.logger).
		WithThreshold(cfg.Threshold).
		WithStore(s.store)

	// Alert sink is optional; reject URLs that point into private networks
	if cfg.AlertSinkURL != "" {
		if err := security.ValidateEndpointURL(cfg.AlertSinkURL); err != nil && cfg.IsProduction() {
			return nil, fmt.Errorf("ALERT_SINK_URL rejected: %w", err)
		}
		dispatcher := alert.NewDispatcher(cfg.AlertSinkURL, s.logger).WithTimeout(cfg.AlertTimeout)
		s.pipeline = s.pipeline.WithAlerter(dispatcher)
		s.logger.Info("alert dispatch enabled", "sink", cfg.AlertSinkURL)
	}

	s.feedback = feedback.NewRecorder(cfg.FeedbackPath)

	s.registerHealthChecks(artifact)

	// Setup router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Pipeline exposes the scoring pipeline for the streaming listener.
func (s *Server) Pipeline() *scoring.Pipeline {
	return s.pipeline
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) registerHealthChecks(artifact *model.Artifact) {
	s.healthReg.Register("model", func(context.Context) health.Status {
		if err := artifact.Validate(); err != nil {
			return health.Status{Name: "model", Healthy: false, Detail: err.Error()}
		}
		detail := "default (untrained)"
		if artifact.Classifier.Trained() {
			detail = "trained"
		}
		return health.Status{Name: "model", Healthy: true, Detail: detail}
	})

	if s.db != nil {
		s.healthReg.Register("database", func(ctx context.Context) health.Status {
			if err := s.db.PingContext(ctx); err != nil {
				return health.Status{Name: "database", Healthy: false, Detail: err.Error()}
			}
			return health.Status{Name: "database", Healthy: true}
		})
	}
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	s.rateLimiter = ratelimit.New(ratelimit.DefaultConfig())
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthHandler)
	s.router.GET("/readyz", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	v1 := s.router.Group("/v1")
	{
		v1.POST("/score", s.scoreHandler)
		v1.POST("/feedback", s.feedbackHandler)
		v1.GET("/assessments", s.assessmentsHandler)
	}
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
		s.logger.Info("rate limiter stopped")
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func generateRequestID() string {
	bytes := make([]byte, 16)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp-based ID
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(bytes)
}

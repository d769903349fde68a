package server

import (
	"context"
	"fmt"
	"io"
	"time"

	"jobboard-portal/config"
	"jobboard-portal/internal/application"
	"jobboard-portal/internal/backend"
	"jobboard-portal/internal/catalog"
	"jobboard-portal/internal/database"
	"jobboard-portal/internal/email"
	"jobboard-portal/internal/handlers"
	"jobboard-portal/internal/middleware"
	"jobboard-portal/internal/session"
	"jobboard-portal/internal/store"
	"jobboard-portal/pkg/auth"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SessionIdleTimeout is how long an untouched session stays in memory.
const SessionIdleTimeout = 30 * time.Minute

// Server represents the HTTP server
type Server struct {
	Router      *gin.Engine
	config      *config.Config
	logger      *zap.Logger
	db          *gorm.DB
	store       store.Store
	tokens      *auth.TokenService
	registry    *session.Registry
	rateLimiter *middleware.RateLimiter

	sessionHandler     *handlers.SessionHandler
	jobHandler         *handlers.JobHandler
	savedJobsHandler   *handlers.SavedJobsHandler
	applicationHandler *handlers.ApplicationHandler
}

// New wires the job board. Jobs and submissions go to the upstream backend
// when one is configured and to db otherwise.
func New(cfg *config.Config, logger *zap.Logger, db *gorm.DB) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	kv, err := store.Open(cfg, db, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	var (
		source    catalog.Source
		submitter application.Submitter
		history   handlers.ApplicationLister
	)
	if cfg.UsesBackend() {
		client := backend.New(backend.Options{
			BaseURL:           cfg.Backend.URL,
			Token:             cfg.Backend.Token,
			PageSize:          cfg.Backend.PageSize,
			RequestsPerSecond: cfg.Backend.RequestsPerS,
			Logger:            logger.Named("backend"),
		})
		source = catalog.NewRemoteSource(client, cfg.Backend.CatalogTTL, logger.Named("catalog"))
		submitter = client
		logger.Info("Using upstream job backend", zap.String("url", cfg.Backend.URL))
	} else {
		if db == nil {
			return nil, fmt.Errorf("a database is required when no backend is configured")
		}
		repo := application.NewRepositorySubmitter(db)
		source = catalog.NewDBSource(db)
		submitter = repo
		history = repo
	}

	rules := application.FileRules{
		MaxSize:           cfg.Upload.MaxSize,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}
	tokens := auth.NewTokenService(cfg)
	registry := session.NewRegistry(kv, session.FlowConfig{
		Submitter: submitter,
		Notifier:  email.NewEmailService(cfg, logger.Named("email")),
		Rules:     rules,
		Timeout:   cfg.Backend.SubmitTimeout,
	}, logger.Named("session"))

	s := &Server{
		Router:      gin.New(),
		config:      cfg,
		logger:      logger,
		db:          db,
		store:       kv,
		tokens:      tokens,
		registry:    registry,
		rateLimiter: middleware.NewRateLimit(cfg.RateLimit.Requests, time.Duration(cfg.RateLimit.Window)*time.Second),

		sessionHandler:     handlers.NewSessionHandler(tokens, registry, logger),
		jobHandler:         handlers.NewJobHandler(source, cfg.Board.PageSize, logger),
		savedJobsHandler:   handlers.NewSavedJobsHandler(source, logger),
		applicationHandler: handlers.NewApplicationHandler(source, rules, cfg.Upload.Path, history, logger),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s, nil
}

// Registry exposes the live sessions, mainly for tests and the janitor.
func (s *Server) Registry() *session.Registry {
	return s.registry
}

func (s *Server) Tokens() *auth.TokenService {
	return s.tokens
}

// Close releases the key-value store when it holds its own connection.
func (s *Server) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *Server) setupMiddleware() {
	s.Router.Use(middleware.RequestIDMiddleware())
	s.Router.Use(middleware.RecoveryMiddleware(s.logger))
	s.Router.Use(middleware.SecurityHeadersMiddleware())
	s.Router.Use(cors.New(corsConfig(s.config.CORS)))
	s.Router.Use(middleware.RateLimitMiddleware(s.rateLimiter, s.logger))

	if s.config.IsDevelopment() {
		s.Router.Use(middleware.DetailedLoggingMiddleware(s.logger, false, false))
	} else {
		s.Router.Use(middleware.LoggingMiddleware(s.logger))
	}
}

func corsConfig(c config.CORSConfig) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: c.Credentials,
		MaxAge:           12 * time.Hour,
	}

	for _, o := range c.Origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			cfg.AllowCredentials = false
			return cfg
		}
		if o != "" {
			cfg.AllowOrigins = append(cfg.AllowOrigins, o)
		}
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

func (s *Server) setupRoutes() {
	s.Router.GET("/health", s.healthCheck)
	s.Router.HEAD("/health", s.healthCheck)
	s.Router.GET("/ready", s.readinessCheck)
	s.Router.HEAD("/ready", s.readinessCheck)

	if s.config.IsDevelopment() {
		s.Router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	optional := middleware.SessionOptional(s.tokens, s.registry)
	required := middleware.SessionRequired(s.tokens, s.registry)

	v1 := s.Router.Group("/api/v1")
	{
		sessions := v1.Group("/sessions")
		{
			sessions.POST("", optional, s.sessionHandler.Start)
			sessions.GET("/current", required, s.sessionHandler.Current)
			sessions.DELETE("/current", required, s.sessionHandler.End)
		}

		jobs := v1.Group("/jobs")
		{
			jobs.GET("", optional, s.jobHandler.ListJobs)
			jobs.GET("/filters", s.jobHandler.GetFilters)
			jobs.GET("/:id", optional, s.jobHandler.GetJob)
		}

		// Application forms and drafts belong to a session.
		forms := v1.Group("/jobs/:id")
		forms.Use(required)
		{
			forms.POST("/application", s.applicationHandler.OpenApplication)
			forms.GET("/application", s.applicationHandler.GetApplication)
			forms.PATCH("/application", s.applicationHandler.UpdateApplication)
			forms.DELETE("/application", s.applicationHandler.CloseApplication)
			forms.PUT("/application/resume", s.applicationHandler.UploadResume)
			forms.DELETE("/application/resume", s.applicationHandler.RemoveResume)
			forms.POST("/application/submit", s.applicationHandler.SubmitApplication)
			forms.POST("/application/discard", s.applicationHandler.DiscardApplication)
			forms.GET("/draft", s.applicationHandler.GetDraft)
		}

		protected := v1.Group("")
		protected.Use(required)
		{
			saved := protected.Group("/saved-jobs")
			{
				saved.GET("", s.savedJobsHandler.ListSavedJobs)
				saved.DELETE("", s.savedJobsHandler.ClearSavedJobs)
				saved.PUT("/:id", s.savedJobsHandler.SaveJob)
				saved.DELETE("/:id", s.savedJobsHandler.UnsaveJob)
				saved.POST("/:id/toggle", s.savedJobsHandler.ToggleSavedJob)
			}

			protected.GET("/drafts", s.applicationHandler.ListDrafts)
			protected.GET("/applications", s.applicationHandler.ListApplications)
		}
	}
}

// RunJanitor periodically evicts idle sessions and expired revocations
// until ctx is done.
func (s *Server) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *Server) sweep() {
	evicted := s.registry.Evict(SessionIdleTimeout)
	revoked := s.tokens.Blacklist().Cleanup()
	clients := s.rateLimiter.Cleanup()
	s.logger.Debug("Janitor sweep",
		zap.Int("evicted_sessions", evicted),
		zap.Int("live_sessions", s.registry.Len()),
		zap.Int("revoked_tokens", revoked),
		zap.Int("rate_limited_clients", clients))
}

// healthCheck handles health check requests
// @Summary Health check
// @Description Check if the service is running
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"service":   "jobboard-portal-api",
	})
}

type pinger interface {
	Ping(ctx context.Context) error
}

// readinessCheck handles readiness check requests
// @Summary Readiness check
// @Description Check if the database and key-value store are reachable
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /ready [get]
func (s *Server) readinessCheck(c *gin.Context) {
	checks := gin.H{}

	if s.db != nil {
		if err := database.IsHealthy(s.db); err != nil {
			s.logger.Error("Database health check failed", zap.Error(err))
			c.JSON(503, gin.H{
				"status":    "not ready",
				"timestamp": time.Now().UTC(),
				"error":     "Database connection failed",
			})
			return
		}
		checks["database"] = "healthy"
	}

	if p, ok := s.store.(pinger); ok {
		if err := p.Ping(c.Request.Context()); err != nil {
			s.logger.Error("Store health check failed", zap.Error(err))
			c.JSON(503, gin.H{
				"status":    "not ready",
				"timestamp": time.Now().UTC(),
				"error":     "Key-value store unreachable",
			})
			return
		}
	}
	checks["store"] = "healthy"
	checks["sessions"] = s.registry.Len()

	c.JSON(200, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"version":   "1.0.0",
		"service":   "jobboard-portal-api",
		"checks":    checks,
	})
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobboard-portal/config"
	"jobboard-portal/internal/database"
	"jobboard-portal/internal/server"
	"jobboard-portal/pkg/logger"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// @title Job Board Portal API
// @version 1.0
// @description REST API for browsing open positions, bookmarking them and applying with a resume.

// @contact.name API Support
// @contact.email support@jobboard.local

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the session token from POST /sessions.

const janitorInterval = time.Minute

func main() {
	if err := config.Load(); err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Cfg

	if err := logger.Init(cfg); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	logger.Info("Starting Job Board Portal API",
		zap.String("version", "1.0.0"),
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.Bool("upstream_backend", cfg.UsesBackend()),
	)

	// The database holds the catalog and recorded applications in local
	// mode. With a backend it is only needed by the gorm store.
	var db *gorm.DB
	if !cfg.UsesBackend() || cfg.Store.Driver == "gorm" || cfg.Store.Driver == "" {
		var err error
		db, err = database.Connect(cfg, logger.Logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
	}

	if db != nil && cfg.Dev.SeedData && !cfg.UsesBackend() {
		if err := database.SeedJobs(db, logger.Logger); err != nil {
			logger.Error("Failed to seed job catalog", zap.Error(err))
		}
	}

	srv, err := server.New(cfg, logger.Logger, db)
	if err != nil {
		logger.Fatal("Failed to initialize server", zap.Error(err))
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go srv.RunJanitor(ctx, janitorInterval)

	httpServer := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: srv.Router,

		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,

		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := srv.Close(); err != nil {
		logger.Error("Failed to close key-value store", zap.Error(err))
	}

	if err := database.Close(db); err != nil {
		logger.Error("Failed to close database connection", zap.Error(err))
	}

	logger.Info("Server shutdown complete")
}

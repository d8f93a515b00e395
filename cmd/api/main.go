package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"accident-dashboard-api/config"
	"accident-dashboard-api/handlers"
	"accident-dashboard-api/logging"
	"accident-dashboard-api/services"
	"accident-dashboard-api/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cache, err := services.NewCacheService(cfg.Redis, logger)
	if err != nil {
		logger.Warn("running without redis", zap.Error(err))
	}
	defer cache.Close()

	var load services.LoadFunc
	switch cfg.Dataset.Source {
	case config.SourcePostgres:
		db, err := store.Open(cfg.Database, logger)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Migrate(); err != nil {
			return fmt.Errorf("migrate accidents: %w", err)
		}
		load = db.LoadTable
	default:
		load = services.CSVSource(cfg.Dataset, logger)
	}

	dataset := services.NewDatasetService(load, cache, logger)
	// A failed first load leaves the accident routes answering 503; the rest
	// of the API keeps serving.
	if err := dataset.Reload(ctx); err != nil {
		logger.Error("initial dataset load failed", zap.String("source", cfg.Dataset.Source), zap.Error(err))
	}

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handlers.NewRouter(handlers.Deps{
		Config:    cfg,
		Logger:    logger,
		Cache:     cache,
		Auth:      services.NewAuthService(cfg.JWT, cfg.Admin),
		Dataset:   dataset,
		Sessions:  services.NewSessionStore(cache, time.Duration(cfg.JWT.ExpiryHours)*time.Hour),
		Tasks:     services.NewTaskClient(cfg.Tasks, cache, logger),
		Assistant: services.NewAssistant(cfg.Assistant, services.GenAIGenerator{}, logger),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

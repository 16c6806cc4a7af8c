// Package main implements the chesstral server: a RESTful API over human vs
// engine chess sessions with an optional sqlite audit trail.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"chesstral/cmd/chesstral-server/cli"
	"chesstral/internal/config"
	"chesstral/internal/engine"
	"chesstral/internal/http"
	"chesstral/internal/opening"
	"chesstral/internal/processor"
	"chesstral/internal/service"
	"chesstral/internal/storage"
)

const (
	gracefulShutdownTimeout = time.Second * 5
	envFile                 = ".env"
)

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	cfg, err := config.Load(os.Args[1:], envFile)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	logger, err := config.NewLogger(cfg.Dev)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	// 1. Storage (optional)
	var store *storage.Store
	if cfg.StoragePath != "" {
		logger.Info("initializing audit storage", zap.String("path", cfg.StoragePath))
		var err error
		store, err = storage.NewStore(cfg.StoragePath, cfg.Dev, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize storage: %w", err)
		}
		if err := store.InitDB(); err != nil {
			store.Close()
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	} else {
		logger.Info("audit storage disabled (use -storage-path to enable)")
	}

	// 2. Engine client and opening book
	client := engine.New(cfg.EngineURL,
		engine.WithTimeout(cfg.EngineTimeout),
		engine.WithLogger(logger),
	)

	book := opening.NewBook(logger)
	if cfg.OpeningDir != "" {
		if _, err := book.LoadDir(cfg.OpeningDir); err != nil {
			logger.Warn("opening book not loaded, using built-in ECO data", zap.Error(err))
		}
	}

	// 3. Worker queue for remote engine calls
	queue := processor.NewTaskQueue(processor.QueueConfig{
		Workers:     cfg.Workers,
		Size:        cfg.QueueSize,
		TaskTimeout: cfg.TaskTimeout,
		Logger:      logger,
	})

	// 4. Service owns the sessions and the audit trail
	svc := service.New(service.Options{
		Store:        store,
		Mover:        client,
		Evaluator:    client,
		Rater:        client,
		Dispatcher:   queue,
		Book:         book,
		EvalDepth:    cfg.EvalDepth,
		AutoEvaluate: cfg.AutoEvaluate,
		ContextOptIn: cfg.ContextOptIn,
		Logger:       logger,
	})

	// 5. Processor, injecting the service
	proc := processor.New(svc, processor.Options{
		Evaluator:     client,
		Catalog:       client,
		EvalDepth:     cfg.EvalDepth,
		DefaultEngine: cfg.Engine,
		Logger:        logger,
	})

	// 6. Fiber app
	app := http.NewFiberApp(proc, svc, http.Config{
		DevMode:    cfg.Dev,
		RateLimit:  cfg.RateLimit,
		AccessLogs: cfg.AccessLogs,
		Logger:     logger,
	})

	addr := cfg.Addr()
	go func() {
		logger.Info("chesstral API server starting",
			zap.String("addr", addr),
			zap.String("engine", cfg.EngineURL),
			zap.String("default_engine", cfg.Engine.DisplayName()),
			zap.Bool("storage", store != nil),
			zap.Int("workers", cfg.Workers),
			zap.Bool("dev", cfg.Dev),
		)
		logger.Info("endpoints",
			zap.String("api", fmt.Sprintf("http://%s/api/v1/sessions", addr)),
			zap.String("health", fmt.Sprintf("http://%s/health", addr)),
		)

		if err := app.Listen(addr); err != nil {
			logger.Error("API server listen error", zap.Error(err))
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("server forced to shutdown", zap.Error(err))
	}

	// Stop engine work before the service closes the store it reports to
	if err := queue.Shutdown(gracefulShutdownTimeout); err != nil {
		logger.Warn("task queue shutdown", zap.Error(err))
	}

	if err := svc.Shutdown(gracefulShutdownTimeout); err != nil {
		logger.Warn("service shutdown", zap.Error(err))
	}

	logger.Info("server exited")
	return nil
}

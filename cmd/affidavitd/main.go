package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joseph-ayodele/affidavit-tracker/internal/app"
	"github.com/joseph-ayodele/affidavit-tracker/internal/async"
	"github.com/joseph-ayodele/affidavit-tracker/internal/common"
	"github.com/joseph-ayodele/affidavit-tracker/internal/export"
	repo "github.com/joseph-ayodele/affidavit-tracker/internal/repository"
	svc "github.com/joseph-ayodele/affidavit-tracker/internal/server"
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	processor, err := app.NewProcessor(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	// Persistence is optional: without DB_URL the API extracts but does not store.
	var (
		store    repo.Store
		recStore svc.RecordStore
		exporter svc.Exporter
	)
	if cfg.Database.DSN != "" {
		if err := cfg.ValidateDatabase(); err != nil {
			logger.Error("invalid database configuration", "error", err)
			os.Exit(2)
		}
		store, err = repo.Open(ctx, app.StoreConfig(cfg.Database), logger)
		if err != nil {
			logger.Error("failed to open database", "error", err, "driver", cfg.Database.Driver)
			os.Exit(1)
		}
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}()
		if err := repo.HealthCheck(ctx, store, 5*time.Second, logger); err != nil {
			logger.Error("failed to ping database", "error", err)
			os.Exit(1)
		}
		if err := store.Migrate(ctx); err != nil {
			logger.Error("failed to migrate database", "error", err)
			os.Exit(1)
		}
		recStore = store
		exporter = export.NewService(store, logger)
	} else {
		logger.Warn("DB_URL not set; extracted records will not be persisted")
	}

	queue := async.NewProcessorQueue(processor, logger,
		async.WithWorkers(cfg.Pipeline.Workers),
		async.WithQueueSize(cfg.Pipeline.QueueSize),
	)

	handlers := svc.NewHandlers(queue, recStore, exporter, svc.Config{
		UploadDir: cfg.Server.UploadDir,
		Timeout:   cfg.Pipeline.Timeout,
	}, logger)
	router := svc.SetupRoutes(handlers)
	n := svc.SetupNegroni(router, logger)

	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           n,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       time.Minute,
		// extraction can take a while: OCR of every page plus two model calls
		WriteTimeout: cfg.Pipeline.Timeout + 30*time.Second,
	}

	// gRPC health
	lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
	if err != nil {
		logger.Error("failed to listen on address", "addr", cfg.Server.GRPCAddr, "error", err)
		os.Exit(1)
	}
	grpcServer, healthServer := svc.NewGRPCServer()

	go func() {
		logger.Info("grpc health listening", "addr", cfg.Server.GRPCAddr)
		if err := grpcServer.Serve(lis); err != nil {
			logger.Error("grpc server error", "error", err)
			stop()
		}
	}()
	go func() {
		logger.Info("affidavit-tracker listening", "addr", cfg.Server.HTTPAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()
	svc.SetServing(healthServer, true)

	<-ctx.Done()
	logger.Info("shutting down")
	svc.SetServing(healthServer, false)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown error", "error", err)
	}
	queue.Shutdown(shutdownCtx)
	grpcServer.GracefulStop()
	logger.Info("stopped")
}

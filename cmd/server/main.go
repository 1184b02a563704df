package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/nemanja-m/gopool/internal/admin"
	"github.com/nemanja-m/gopool/internal/admin/grpc"
	"github.com/nemanja-m/gopool/internal/admin/rest"
	"github.com/nemanja-m/gopool/internal/server"
	"github.com/nemanja-m/gopool/internal/shared/config"
	"github.com/nemanja-m/gopool/internal/shared/logging"
	"github.com/nemanja-m/gopool/pkg/threadpool"
)

const (
	monitorInterval = 5 * time.Second
	shutdownTimeout = 10 * time.Second
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.LoadServer(*configPath)
	if err != nil {
		logging.NewSlogLogger(slog.LevelInfo).Fatal("Failed to load config", "error", err)
	}

	logger, err := logging.New(os.Stdout, cfg.Logging)
	if err != nil {
		logging.NewSlogLogger(slog.LevelInfo).Fatal("Failed to create logger", "error", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	pages, err := server.LoadPages(cfg.Static.Dir, cfg.Static.Pattern)
	if err != nil {
		logger.Fatal("Failed to load static pages", "dir", cfg.Static.Dir, "error", err)
	}
	handler, err := server.NewStaticHandler(pages, cfg.Static.Index, cfg.Static.NotFound, cfg.Listener.BufferSize)
	if err != nil {
		logger.Fatal("Failed to create connection handler", "error", err)
	}

	pool := threadpool.New(cfg.Pool.Workers,
		threadpool.WithName(cfg.Pool.Name),
		threadpool.WithLogger(logger),
		threadpool.WithMetrics(threadpool.NewMetrics(registry)),
		threadpool.WithPanicHandler(func(workerID int, recovered any) {
			logger.Warn("Connection job recovered", "worker_id", workerID, "panic", recovered)
		}),
	)

	listener := server.New(cfg.Listener, pool, handler, logger)
	restServer := rest.NewServer(cfg.Admin.REST, pool, registry, logger)
	grpcServer := grpc.NewServer(cfg.Admin.GRPC, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go admin.NewMonitor(monitorInterval, pool, grpcServer, logger).Start(ctx)

	go func() {
		logger.Info("REST admin server started", "addr", cfg.Admin.REST.Addr)
		if err := restServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("REST admin server failed", "error", err)
		}
	}()

	go func() {
		if err := grpcServer.Start(); err != nil {
			logger.Fatal("gRPC admin server failed", "error", err)
		}
	}()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- listener.ListenAndServe()
	}()

	logger.Info("Server started",
		"pool_id", pool.ID().String(),
		"workers", pool.Size(),
		"pages", pages.Len(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("Received signal", "signal", sig.String())
	case err := <-serveErr:
		if err != nil {
			logger.Error("Listener stopped", "error", err)
		}
	}

	logger.Info("Shutting down server")

	grpcServer.SetServing(false)
	if err := listener.Stop(); err != nil {
		logger.Warn("Failed to stop listener", "error", err)
	}
	pool.Close()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("REST admin server forced to shutdown", "error", err)
	}
	grpcServer.Stop()

	logger.Info("Server stopped")
}

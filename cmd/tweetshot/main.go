// Package main wires together the screenshot service binary.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tweetshot/internal/api"
	"tweetshot/internal/capture"
	"tweetshot/internal/clock/system"
	"tweetshot/internal/config"
	"tweetshot/internal/delivery"
	"tweetshot/internal/history"
	"tweetshot/internal/id/uuid"
	"tweetshot/internal/logging"
	"tweetshot/internal/metrics"
)

func main() {
	cfgPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging.Development, cfg.Logging.File)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if syncErr := logger.Sync(); syncErr != nil {
			fmt.Fprintf(os.Stderr, "logger sync failed: %v\n", syncErr)
		}
	}()
	zap.ReplaceGlobals(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics.Init()

	var engine capture.Engine
	chromeEngine, err := capture.NewChromedpEngine(capture.EngineConfig{
		ExecPath:     cfg.Capture.ChromePath,
		NavTimeout:   cfg.NavTimeout(),
		WaitSelector: cfg.Capture.WaitSelector,
	}, logger.Named("engine"))
	if err != nil {
		logger.Warn("chromedp engine init failed, captures will error", zap.Error(err))
		engine = capture.NewNoopEngine()
	} else {
		engine = chromeEngine
		defer chromeEngine.Close()
	}

	clock := system.New()
	invoker := capture.NewInvoker(engine, clock, cfg.Capture.MinImageBytes, logger.Named("invoker"))

	var (
		strategy  delivery.Strategy
		resolver  delivery.Resolver
		staticDir string
	)
	switch cfg.Delivery.Mode {
	case config.DeliveryMemory:
		cache := delivery.NewMemoryCache(uuid.New())
		strategy = cache
		resolver = cache
	case config.DeliveryDisk:
		disk, err := delivery.NewDiskStore(cfg.Delivery.Dir)
		if err != nil {
			logger.Fatal("disk delivery init failed", zap.Error(err))
		}
		strategy = disk
		staticDir = disk.Dir()
	default:
		strategy = delivery.NewInlineStore()
	}

	var hist history.Store = history.Noop{}
	if cfg.History.DSN != "" {
		pgStore, err := history.NewPostgresStore(ctx, history.PostgresStoreConfig{
			DSN:   cfg.History.DSN,
			Table: cfg.History.Table,
		})
		if err != nil {
			logger.Warn("capture history disabled", zap.Error(err))
		} else {
			hist = pgStore
			defer pgStore.Close()
		}
	}

	apiServer := api.NewServer(invoker, strategy, resolver, hist, clock, cfg, logger.Named("api"), staticDir)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server started",
			zap.Int("port", cfg.Server.Port),
			zap.String("delivery_mode", cfg.Delivery.Mode),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

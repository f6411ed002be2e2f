package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/opsightlabs/opsight/internal/audit"
	"github.com/opsightlabs/opsight/internal/config"
	"github.com/opsightlabs/opsight/internal/datadog"
	"github.com/opsightlabs/opsight/internal/heartbeat"
	"github.com/opsightlabs/opsight/internal/metrics"
	"github.com/opsightlabs/opsight/internal/server"
	"github.com/opsightlabs/opsight/pkg/logutil"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(configPath)
	if err != nil {
		slog.Error("failed to load config", slog.String("path", configPath), slog.Any("error", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := logutil.NewLogger(cfg.Logging.Level, cfg.Logging.JSON, cfg.Logging.File)
	logger.Info("opsight starting up",
		slog.String("dd_site", cfg.Datadog.Site),
		slog.Bool("heartbeat_enabled", cfg.Heartbeat.Enabled),
		slog.Duration("heartbeat_interval", cfg.Heartbeat.Interval),
		slog.Bool("dd_app_key_configured", cfg.Datadog.AppKey != ""))

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		logger.Error("failed to register metrics", slog.Any("error", err))
		os.Exit(1)
	}

	store, err := audit.NewSQLiteStore(cfg.Audit.Database)
	if err != nil {
		logger.Error("failed to open audit store", slog.String("database", cfg.Audit.Database), slog.Any("error", err))
		os.Exit(1)
	}
	defer store.Close()

	client := datadog.NewClient(datadog.Config{
		APIKey:        cfg.Datadog.APIKey,
		AppKey:        cfg.Datadog.AppKey,
		Site:          cfg.Datadog.Site,
		SearchBaseURL: cfg.Datadog.SearchBaseURL,
		IntakeBaseURL: cfg.Datadog.IntakeBaseURL,
		Timeout:       cfg.Datadog.Timeout,
	}, logger)

	srv, err := server.NewServer(cfg, logger, client, store)
	if err != nil {
		logger.Error("failed to create server", slog.Any("error", err))
		os.Exit(1)
	}

	var hb *heartbeat.Task
	if cfg.Heartbeat.Enabled {
		hb = heartbeat.New(client, logger, store, cfg.ServiceName, cfg.Heartbeat.Interval)
		hb.Start()
		logger.Info("heartbeat task started", slog.Duration("interval", cfg.Heartbeat.Interval))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if serveErr := srv.Start(); serveErr != nil {
			logger.Error("server exited", slog.Any("error", serveErr))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	if hb != nil {
		hb.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", slog.Any("error", err))
	}

	logger.Info("opsight stopped")
}

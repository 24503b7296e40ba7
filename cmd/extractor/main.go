package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/imedwei/audio-url-extractor/internal/audio"
	"github.com/imedwei/audio-url-extractor/internal/config"
	"github.com/imedwei/audio-url-extractor/internal/extract"
	"github.com/imedwei/audio-url-extractor/internal/health"
	"github.com/imedwei/audio-url-extractor/internal/probe"
	"github.com/imedwei/audio-url-extractor/internal/server"
	"github.com/imedwei/audio-url-extractor/internal/storage"
)

func main() {
	// Set up logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = newLogger(cfg)
	slog.SetDefault(logger)

	logger.Info("Audio URL extractor starting")

	// Log configuration (without sensitive data)
	logger.Info("Configuration loaded",
		"port", cfg.Port,
		"azure_configured", cfg.AzureConfigured(),
		"s3_configured", cfg.S3Configured(),
		"s3_endpoint", cfg.S3Endpoint,
		"gcs_configured", cfg.GCSConfigured(),
		"default_expiry_days", cfg.DefaultExpiryDays,
		"probe_concurrency", cfg.ProbeConcurrency,
		"request_timeout", cfg.GetRequestTimeout(),
	)

	tempDir := cfg.ProbeTempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}

	prober := probe.New(tempDir, audio.NewDecoder(), logger)
	extractor := extract.NewExtractor(storage.NewFactory(cfg), prober, cfg.ProbeConcurrency, logger)

	serverConfig := server.DefaultConfig()
	serverConfig.Port = cfg.Port
	serverConfig.RequestTimeout = cfg.GetRequestTimeout()
	serverConfig.WriteTimeout = serverConfig.RequestTimeout + serverConfig.ReadTimeout
	serverConfig.DefaultExpiryDays = cfg.DefaultExpiryDays
	httpServer := server.New(serverConfig, extractor, logger)

	// Register health checks
	httpServer.RegisterHealthCheck("azure", health.CredentialCheck(string(storage.SourceAzure), cfg.AzureConfigured()))
	httpServer.RegisterHealthCheck("s3", health.CredentialCheck(string(storage.SourceS3), cfg.S3Configured()))
	httpServer.RegisterHealthCheck("gcs", health.CredentialCheck(string(storage.SourceGCS), cfg.GCSConfigured()))

	// Handle shutdown gracefully
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), httpServer.ShutdownTimeout())
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown failed", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Audio URL extractor stopped")
}

func newLogger(cfg *config.Config) *slog.Logger {
	level, _ := cfg.SlogLevel()
	opts := &slog.HandlerOptions{Level: level}

	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// Fraudwatch - near-real-time fraud risk scoring for payment transactions
package main

import (
	"context"
	"os"

	"github.com/mbd888/fraudwatch/internal/config"
	"github.com/mbd888/fraudwatch/internal/logging"
	"github.com/mbd888/fraudwatch/internal/server"
	"github.com/mbd888/fraudwatch/internal/stream"
	"github.com/mbd888/fraudwatch/internal/traces"
)

// Build info - set by ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	logger := logging.New("info", "text")

	logger.Info("starting fraudwatch",
		"version", Version,
		"commit", Commit,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"env", cfg.Env,
		"model_path", cfg.ModelPath,
		"threshold", cfg.Threshold,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Tracing (no-op unless an OTLP endpoint is configured)
	shutdownTracing, err := traces.Init(ctx, cfg.OTLPEndpoint, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	// Create server (loads the model artifact and assembles the pipeline)
	srv, err := server.New(cfg, server.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	// Streaming ingestion runs alongside the HTTP API when a feed is set
	if cfg.StreamURL != "" {
		listener := stream.NewListener(cfg.StreamURL, srv.Pipeline(), logger).
			WithMaxReconnects(cfg.StreamMaxReconnects)
		go func() {
			if err := listener.Listen(ctx); err != nil {
				logger.Error("stream listener stopped", "error", err)
			}
		}()
	}

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

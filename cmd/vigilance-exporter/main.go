package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	httpadapter "github.com/couchcryptid/meteo-vigilance/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/meteo-vigilance/internal/adapter/kafka"
	"github.com/couchcryptid/meteo-vigilance/internal/config"
	"github.com/couchcryptid/meteo-vigilance/internal/exporter"
	"github.com/couchcryptid/meteo-vigilance/internal/observability"
	"github.com/couchcryptid/meteo-vigilance/meteofrance"
	"github.com/couchcryptid/meteo-vigilance/vigilance"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/jonboulle/clockwork"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()

	client, err := vigilance.New(vigilance.Config{
		Config: meteofrance.Config{
			ApplicationID:    cfg.ApplicationID,
			APIKey:           cfg.APIKey,
			Token:            cfg.Token,
			BaseURL:          cfg.BaseURL,
			Timeout:          cfg.RequestTimeout,
			MaxRetries:       cfg.MaxRetries,
			BreakerThreshold: cfg.BreakerThreshold,
			Logger:           logger,
			Recorder:         metrics,
			Clock:            clock,
		},
		TempDir: cfg.TempDir,
	})
	if err != nil {
		logger.Error("failed to create vigilance client", "error", err)
		os.Exit(1)
	}

	// Publishing is feature-flagged via KAFKA_BROKERS.
	var sink exporter.Sink
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		sink = writer
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	e := exporter.New(client, sink, cfg.PollInterval, clock, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, e, e, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the exporter. A rejected credential stops the whole service.
	var failed atomic.Bool
	exporterDone := make(chan struct{})
	go func() {
		defer close(exporterDone)
		if err := e.Run(ctx); err != nil {
			logger.Error("exporter error", "error", err)
			failed.Store(true)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// The writer must not close under an in-flight Publish.
	if !awaitDone(exporterDone, cfg.ShutdownTimeout) {
		logger.Warn("exporter did not stop before the shutdown timeout")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	if failed.Load() {
		os.Exit(1)
	}
}

// awaitDone waits for done to close and reports false if timeout elapses first.
func awaitDone(done <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/storm-nowcast-service/internal/adapter/filestore"
	httpadapter "github.com/couchcryptid/storm-nowcast-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-nowcast-service/internal/adapter/kafka"
	"github.com/couchcryptid/storm-nowcast-service/internal/adapter/metar"
	"github.com/couchcryptid/storm-nowcast-service/internal/config"
	"github.com/couchcryptid/storm-nowcast-service/internal/observability"
	"github.com/couchcryptid/storm-nowcast-service/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	store := filestore.New(cfg.DataDir, logger)

	// Surface observations come from the live METAR feed when METAR_URL is
	// set, otherwise from the station snapshot file in the data directory.
	var stations pipeline.StationSource = store
	if cfg.MetarURL != "" {
		client := metar.NewClient(cfg.MetarURL, cfg.MetarTimeout, logger)
		stations = metar.NewCachedSource(client, cfg.MetarCacheTTL, nil, metrics)
		logger.Info("metar feed enabled", "url", cfg.MetarURL, "cache_ttl", cfg.MetarCacheTTL)
	} else {
		logger.Info("metar feed disabled, using station snapshot file")
	}

	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("kafka sink enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka sink disabled")
	}

	p := pipeline.New(store, stations, store, store, publisher, logger, metrics, cfg)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start the analysis pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

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
}

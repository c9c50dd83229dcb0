package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/config"
	"sales-analytics/internal/enrichment"
	"sales-analytics/internal/ingest"
	"sales-analytics/internal/observability"
	"sales-analytics/internal/server"
	"sales-analytics/internal/services"
)

const (
	version     = "1.0.0"
	loadTimeout = 30 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.Logger)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"version", version,
		"addr", cfg.Address(),
		"input_file", cfg.Data.InputFile,
		"catalog_enabled", cfg.Catalog.Enabled,
		"trace_exporter", cfg.Tracing.Exporter,
	)

	shutdownTracing, err := observability.InitTracing(cfg.Tracing, logger)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	metrics := observability.NewMetrics()
	svc := newAnalyticsService(cfg, logger, metrics)

	if err := loadData(context.Background(), cfg, svc, logger); err != nil {
		logger.Error("failed to load sales data", "error", err)
		os.Exit(1)
	}

	srv := server.NewServer(cfg, svc, metrics, logger)
	gracefulServer := server.NewGracefulServer(server.NewHTTPServer(cfg, srv), logger, cfg.Server)

	gracefulServer.RegisterShutdownHook(func(ctx context.Context) error {
		logger.Info("flushing traces")
		return shutdownTracing(ctx)
	})

	if err := gracefulServer.ListenAndServe(context.Background()); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}

	logger.Info("application stopped gracefully")
}

func newAnalyticsService(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *services.Analytics {
	return services.NewAnalytics(logger, metrics, analytics.Options{
		TopN:         cfg.Analysis.TopN,
		LowThreshold: cfg.Analysis.LowThreshold,
	})
}

// loadData ingests the configured sales log and, when the catalog is
// enabled, enriches it. A catalog outage is not fatal.
func loadData(ctx context.Context, cfg *config.Config, svc *services.Analytics, logger *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, loadTimeout)
	defer cancel()

	start := time.Now()
	if err := svc.LoadFromFile(ctx, cfg.Data.InputFile, ingest.Filter{}); err != nil {
		return err
	}
	logger.Info("sales data loaded successfully", "duration", time.Since(start))

	if !cfg.Catalog.Enabled {
		return nil
	}

	catalog := enrichment.NewCatalogClient(enrichment.CatalogConfig{
		URL:       cfg.Catalog.URL,
		Timeout:   cfg.Catalog.Timeout,
		RateLimit: cfg.Catalog.RateLimit,
		CacheTTL:  cfg.Catalog.CacheTTL,
	}, logger)
	enriched, err := svc.Enrich(ctx, catalog)
	if err != nil {
		return err
	}

	if cfg.Data.EnrichedFile != "" {
		if err := enrichment.SaveEnriched(cfg.Data.EnrichedFile, enriched); err != nil {
			logger.Warn("failed to save enriched data", "path", cfg.Data.EnrichedFile, "error", err)
		}
	}
	return nil
}

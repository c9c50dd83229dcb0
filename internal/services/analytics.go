package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/enrichment"
	"sales-analytics/internal/ingest"
	"sales-analytics/internal/models"
	"sales-analytics/internal/observability"
)

var ErrNoData = errors.New("no sales data loaded")

// Snapshot is one fully computed view of the sales log. It is replaced as a
// whole and never modified after it is published.
type Snapshot struct {
	RunID        string
	Source       string
	Transactions []models.Transaction
	Report       *analytics.Report
	Ingest       *ingest.Result
	Enrichment   models.EnrichmentSummary
	Enriched     bool
	ProcessedAt  time.Time
}

type Analytics struct {
	mu       sync.RWMutex
	snapshot *Snapshot
	opts     analytics.Options
	loader   *ingest.Loader
	metrics  *observability.Metrics
	logger   *slog.Logger
	loads    atomic.Int64
}

func NewAnalytics(logger *slog.Logger, metrics *observability.Metrics, opts analytics.Options) *Analytics {
	if logger == nil {
		logger = slog.Default()
	}
	return &Analytics{
		opts:    opts,
		loader:  ingest.NewLoader(logger),
		metrics: metrics,
		logger:  logger.With(slog.String("component", "analytics_service")),
	}
}

// LoadFromFile runs the ingest chain over path and publishes a new snapshot.
func (a *Analytics) LoadFromFile(ctx context.Context, path string, filter ingest.Filter) (err error) {
	ctx, span := observability.StartSpan(ctx, "analytics.load", attribute.String("path", path))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	res, err := a.loader.Load(ctx, path, filter)
	if err != nil {
		return fmt.Errorf("load sales data: %w", err)
	}

	a.metrics.AddRecords(observability.OutcomeRead, res.LinesRead)
	a.metrics.AddRecords(observability.OutcomeSkipped, res.Skipped)
	a.metrics.AddRecords(observability.OutcomeInvalid, res.Summary.Invalid)
	a.metrics.AddRecords(observability.OutcomeFiltered, res.Summary.FilteredByRegion+res.Summary.FilteredByAmount)
	a.metrics.AddRecords(observability.OutcomeValid, len(res.Transactions))

	snap, err := a.build(ctx, res.Transactions)
	if err != nil {
		return err
	}
	snap.Source = path
	snap.Ingest = res
	a.publish(snap)

	span.SetAttributes(attribute.Int("records", len(res.Transactions)))
	a.logger.InfoContext(ctx, "sales data loaded",
		"run_id", snap.RunID,
		"path", path,
		"lines", res.LinesRead,
		"valid", len(res.Transactions),
		"invalid", res.Summary.Invalid,
		"duration", time.Since(start),
	)
	return nil
}

// SetData analyzes already validated transactions and publishes the result.
func (a *Analytics) SetData(ctx context.Context, txs []models.Transaction) error {
	snap, err := a.build(ctx, txs)
	if err != nil {
		return err
	}
	a.publish(snap)
	return nil
}

func (a *Analytics) build(ctx context.Context, txs []models.Transaction) (_ *Snapshot, err error) {
	ctx, span := observability.StartSpan(ctx, "analytics.analyze", attribute.Int("records", len(txs)))
	defer func() { observability.EndSpan(span, err) }()

	start := time.Now()
	report, err := analytics.Analyze(ctx, txs, a.opts)
	if err != nil {
		return nil, fmt.Errorf("analyze sales data: %w", err)
	}
	a.metrics.ObserveAnalysis(time.Since(start))

	return &Snapshot{
		RunID:        uuid.NewString(),
		Transactions: txs,
		Report:       report,
		ProcessedAt:  time.Now(),
	}, nil
}

func (a *Analytics) publish(snap *Snapshot) {
	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()
	a.loads.Add(1)
}

// Enrich matches the current transactions against the catalog and
// republishes the snapshot with the enrichment summary. A catalog failure
// leaves every transaction unmatched rather than failing.
func (a *Analytics) Enrich(ctx context.Context, catalog enrichment.Catalog) (_ []models.EnrichedTransaction, err error) {
	snap := a.Snapshot()
	if snap == nil {
		return nil, ErrNoData
	}

	ctx, span := observability.StartSpan(ctx, "analytics.enrich", attribute.String("run_id", snap.RunID))
	defer func() { observability.EndSpan(span, err) }()

	products, fetchErr := catalog.FetchProducts(ctx)
	a.metrics.ObserveCatalogFetch(fetchErr)
	if fetchErr != nil {
		span.RecordError(fetchErr)
		a.logger.WarnContext(ctx, "product catalog unavailable, continuing unmatched", "error", fetchErr)
		products = []models.ProductInfo{}
	}

	enriched := enrichment.Enrich(snap.Transactions, enrichment.NewProductMapping(products))
	summary := enrichment.Summarize(enriched)
	a.metrics.ObserveEnrichment(summary.Matched, summary.Total)

	next := *snap
	next.Enrichment = summary
	next.Enriched = true

	a.mu.Lock()
	// A newer load may have landed while the catalog was fetched.
	if a.snapshot == snap {
		a.snapshot = &next
	}
	a.mu.Unlock()

	span.SetAttributes(
		attribute.Int("catalog_products", len(products)),
		attribute.Int("matched", summary.Matched),
	)
	a.logger.InfoContext(ctx, "sales data enriched",
		"run_id", snap.RunID,
		"products", len(products),
		"matched", summary.Matched,
		"total", summary.Total,
		"success_rate", summary.SuccessRate,
	)
	return enriched, nil
}

// Snapshot returns the current snapshot, or nil before the first load.
func (a *Analytics) Snapshot() *Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

func (a *Analytics) HasData() bool {
	return a.Snapshot() != nil
}

func (a *Analytics) Report() (*analytics.Report, error) {
	snap := a.Snapshot()
	if snap == nil {
		return nil, ErrNoData
	}
	return snap.Report, nil
}

func (a *Analytics) Regions() []models.RegionStat {
	if snap := a.Snapshot(); snap != nil {
		return snap.Report.Regions
	}
	return []models.RegionStat{}
}

// TopProducts returns the ranking for limit products. A non-positive limit
// returns the configured default ranking.
func (a *Analytics) TopProducts(limit int) []models.ProductRank {
	snap := a.Snapshot()
	if snap == nil {
		return []models.ProductRank{}
	}
	if limit <= 0 || limit == snap.Report.TopN {
		return snap.Report.TopProducts
	}
	return analytics.TopSellingProducts(snap.Transactions, limit)
}

func (a *Analytics) Customers(limit int) []models.CustomerStat {
	snap := a.Snapshot()
	if snap == nil {
		return []models.CustomerStat{}
	}
	customers := snap.Report.Customers
	if limit > 0 && limit < len(customers) {
		return customers[:limit]
	}
	return customers
}

func (a *Analytics) Daily() []models.DailyStat {
	if snap := a.Snapshot(); snap != nil {
		return snap.Report.Daily
	}
	return []models.DailyStat{}
}

func (a *Analytics) PeakDay() models.PeakDay {
	if snap := a.Snapshot(); snap != nil {
		return snap.Report.PeakDay
	}
	return models.PeakDay{}
}

func (a *Analytics) LowPerformers() []models.ProductRank {
	if snap := a.Snapshot(); snap != nil {
		return snap.Report.LowPerformers
	}
	return []models.ProductRank{}
}

// Enrichment returns the latest enrichment summary and whether enrichment
// has run for the current snapshot.
func (a *Analytics) Enrichment() (models.EnrichmentSummary, bool) {
	snap := a.Snapshot()
	if snap == nil || !snap.Enriched {
		return models.EnrichmentSummary{Unmatched: []string{}}, false
	}
	return snap.Enrichment, true
}

func (a *Analytics) FilterOptions() ingest.FilterOptions {
	snap := a.Snapshot()
	if snap == nil || snap.Ingest == nil {
		return ingest.FilterOptions{Regions: []string{}}
	}
	return snap.Ingest.Options
}

func (a *Analytics) Stats() map[string]any {
	snap := a.Snapshot()
	if snap == nil {
		return map[string]any{
			"loaded": false,
			"loads":  a.loads.Load(),
		}
	}

	return map[string]any{
		"loaded":         true,
		"loads":          a.loads.Load(),
		"run_id":         snap.RunID,
		"source":         snap.Source,
		"record_count":   snap.Report.TransactionCount,
		"last_processed": snap.ProcessedAt,
		"regions":        len(snap.Report.Regions),
		"customers":      len(snap.Report.Customers),
		"days":           len(snap.Report.Daily),
		"low_performers": len(snap.Report.LowPerformers),
		"enriched":       snap.Enriched,
	}
}

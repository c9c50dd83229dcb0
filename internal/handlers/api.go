package handlers

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/errors"
	"sales-analytics/internal/ingest"
	"sales-analytics/internal/models"
	"sales-analytics/internal/report"
	"sales-analytics/internal/services"
)

const (
	cacheControl = "public, max-age=60"
	maxLimit     = 100
	xlsxMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	Version      = "1.0.0"
)

type APIHandlers struct {
	analytics *services.Analytics
	exporter  *report.ExcelExporter
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		exporter:  report.NewExcelExporter(),
		logger:    logger,
	}
}

// SummaryResponse is the overall section of the report plus the filter
// choices the loaded data offers.
type SummaryResponse struct {
	RunID             string                    `json:"run_id"`
	TotalRevenue      float64                   `json:"total_revenue"`
	TransactionCount  int                       `json:"transaction_count"`
	AverageOrderValue float64                   `json:"average_order_value"`
	DateRange         *analytics.DateRange      `json:"date_range"`
	RegionAverages    []analytics.RegionAverage `json:"region_averages"`
	FilterOptions     ingest.FilterOptions      `json:"filter_options"`
	ProcessedAt       time.Time                 `json:"processed_at"`
}

type PeakDayResponse struct {
	Found bool `json:"found"`
	models.PeakDay
}

type LowPerformersResponse struct {
	Threshold int                  `json:"threshold"`
	Products  []models.ProductRank `json:"products"`
}

type EnrichmentResponse struct {
	Enriched bool                     `json:"enriched"`
	Summary  models.EnrichmentSummary `json:"summary"`
}

func (h *APIHandlers) writeCached(w http.ResponseWriter, r *http.Request, data any) {
	errors.WriteSuccessWithHeaders(w, r, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

// requireData writes a NO_DATA error and returns false before the first load.
func (h *APIHandlers) requireData(w http.ResponseWriter, r *http.Request) bool {
	if h.analytics.HasData() {
		return true
	}
	errors.WriteError(w, r, h.logger, errors.NoData("Sales data has not been loaded yet"))
	return false
}

// parseLimit reads ?limit=. Missing means def, values above maxLimit are
// clamped, anything else non-positive is rejected.
func parseLimit(r *http.Request, def int) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return def, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		return 0, errors.BadRequest("Invalid limit parameter").
			WithDetails(fmt.Sprintf("limit must be a positive integer, got %q", raw))
	}
	return min(limit, maxLimit), nil
}

func (h *APIHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	h.writeCached(w, r, h.analytics.Regions())
}

func (h *APIHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	limit, err := parseLimit(r, 0)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}
	h.writeCached(w, r, h.analytics.TopProducts(limit))
}

func (h *APIHandlers) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	limit, err := parseLimit(r, analytics.DefaultTopN)
	if err != nil {
		errors.WriteError(w, r, h.logger, err)
		return
	}
	h.writeCached(w, r, h.analytics.Customers(limit))
}

func (h *APIHandlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	h.writeCached(w, r, h.analytics.Daily())
}

func (h *APIHandlers) HandlePeakDay(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	peak := h.analytics.PeakDay()
	h.writeCached(w, r, PeakDayResponse{Found: !peak.IsZero(), PeakDay: peak})
}

func (h *APIHandlers) HandleLowPerformers(w http.ResponseWriter, r *http.Request) {
	rep, err := h.analytics.Report()
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.NoData("Sales data has not been loaded yet"))
		return
	}
	h.writeCached(w, r, LowPerformersResponse{Threshold: rep.LowThreshold, Products: rep.LowPerformers})
}

func (h *APIHandlers) HandleSummary(w http.ResponseWriter, r *http.Request) {
	snap := h.analytics.Snapshot()
	if snap == nil {
		errors.WriteError(w, r, h.logger, errors.NoData("Sales data has not been loaded yet"))
		return
	}
	rep := snap.Report
	h.writeCached(w, r, SummaryResponse{
		RunID:             snap.RunID,
		TotalRevenue:      rep.TotalRevenue,
		TransactionCount:  rep.TransactionCount,
		AverageOrderValue: rep.AverageOrderValue,
		DateRange:         rep.DateRange,
		RegionAverages:    rep.RegionAverages(),
		FilterOptions:     h.analytics.FilterOptions(),
		ProcessedAt:       snap.ProcessedAt,
	})
}

func (h *APIHandlers) HandleEnrichment(w http.ResponseWriter, r *http.Request) {
	if !h.requireData(w, r) {
		return
	}
	summary, enriched := h.analytics.Enrichment()
	errors.WriteSuccess(w, r, EnrichmentResponse{Enriched: enriched, Summary: summary})
}

func (h *APIHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.analytics.Report()
	if err != nil {
		errors.WriteError(w, r, h.logger, errors.NoData("Sales data has not been loaded yet"))
		return
	}
	summary, _ := h.analytics.Enrichment()

	var buf bytes.Buffer
	if err := h.exporter.Write(&buf, rep, summary); err != nil {
		errors.WriteError(w, r, h.logger, errors.InternalWrap(err, "Failed to build workbook"))
		return
	}

	w.Header().Set("Content-Type", xlsxMIME)
	w.Header().Set("Content-Disposition", `attachment; filename="sales_report.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("write workbook response", "error", err)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if !h.analytics.HasData() {
		status = "starting"
	}
	errors.WriteSuccess(w, r, map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
	})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, r, h.analytics.Stats())
}

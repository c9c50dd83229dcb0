package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/models"
	"sales-analytics/internal/report"
	"sales-analytics/internal/services"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func testTransactions() []models.Transaction {
	return []models.Transaction{
		{TransactionID: "T001", Date: "2024-12-01", ProductID: "P101", ProductName: "Laptop", Quantity: 2, UnitPrice: decimal.NewFromInt(45000), CustomerID: "C001", Region: "North"},
		{TransactionID: "T002", Date: "2024-12-01", ProductID: "P102", ProductName: "Mouse", Quantity: 5, UnitPrice: decimal.NewFromInt(500), CustomerID: "C002", Region: "South"},
		{TransactionID: "T003", Date: "2024-12-02", ProductID: "P103", ProductName: "Keyboard", Quantity: 3, UnitPrice: decimal.NewFromInt(1500), CustomerID: "C002", Region: "North"},
		{TransactionID: "T004", Date: "2024-12-03", ProductID: "P104", ProductName: "Webcam", Quantity: 4, UnitPrice: decimal.NewFromInt(3000), CustomerID: "C003", Region: "East"},
	}
}

func createTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(quietLogger(), nil, analytics.DefaultOptions())
	require.NoError(t, a.SetData(context.Background(), testTransactions()))
	return a
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Details string `json:"details"`
	} `json:"error"`
}

func serve(t *testing.T, h http.HandlerFunc, target string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func TestNewAPIHandlers(t *testing.T) {
	a := createTestAnalytics(t)
	handlers := NewAPIHandlers(a, quietLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.analytics != a {
		t.Error("NewAPIHandlers() should set analytics field")
	}
}

func TestAPIHandlers_HandleRegions(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	rec, env := serve(t, h.HandleRegions, "/api/regions")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, cacheControl, rec.Header().Get("Cache-Control"))
	assert.True(t, env.Success)

	var regions []models.RegionStat
	require.NoError(t, json.Unmarshal(env.Data, &regions))
	require.Len(t, regions, 3)
	assert.Equal(t, "North", regions[0].Region)
	assert.Equal(t, "East", regions[1].Region)
}

func TestAPIHandlers_HandleTopProducts(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantLen    int
		wantCode   string
	}{
		{name: "default", target: "/api/top-products", wantStatus: http.StatusOK, wantLen: 4},
		{name: "limit", target: "/api/top-products?limit=2", wantStatus: http.StatusOK, wantLen: 2},
		{name: "clamped", target: "/api/top-products?limit=5000", wantStatus: http.StatusOK, wantLen: 4},
		{name: "zero", target: "/api/top-products?limit=0", wantStatus: http.StatusBadRequest, wantCode: "BAD_REQUEST"},
		{name: "not a number", target: "/api/top-products?limit=ten", wantStatus: http.StatusBadRequest, wantCode: "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := serve(t, h.HandleTopProducts, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)

			if tt.wantCode != "" {
				require.NotNil(t, env.Error)
				assert.Equal(t, tt.wantCode, env.Error.Code)
				assert.NotEmpty(t, env.Error.Details)
				return
			}

			var products []models.ProductRank
			require.NoError(t, json.Unmarshal(env.Data, &products))
			assert.Len(t, products, tt.wantLen)
			assert.Equal(t, "Mouse", products[0].Name)
		})
	}
}

func TestAPIHandlers_HandleCustomers(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	_, env := serve(t, h.HandleCustomers, "/api/customers?limit=1")

	var customers []models.CustomerStat
	require.NoError(t, json.Unmarshal(env.Data, &customers))
	require.Len(t, customers, 1)
	assert.Equal(t, "C001", customers[0].CustomerID)
	assert.Equal(t, 90000.0, customers[0].TotalSpent)
}

func TestAPIHandlers_HandleDailyAndPeak(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	_, env := serve(t, h.HandleDaily, "/api/daily")
	var daily []models.DailyStat
	require.NoError(t, json.Unmarshal(env.Data, &daily))
	require.Len(t, daily, 3)
	assert.Equal(t, "2024-12-01", daily[0].Date)

	_, env = serve(t, h.HandlePeakDay, "/api/peak-day")
	var peak PeakDayResponse
	require.NoError(t, json.Unmarshal(env.Data, &peak))
	assert.True(t, peak.Found)
	assert.Equal(t, "2024-12-01", peak.Date)
	assert.Equal(t, 92500.0, peak.Revenue)
	assert.Equal(t, 2, peak.TransactionCount)
}

func TestAPIHandlers_HandleLowPerformers(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	_, env := serve(t, h.HandleLowPerformers, "/api/low-performers")

	var low LowPerformersResponse
	require.NoError(t, json.Unmarshal(env.Data, &low))
	assert.Equal(t, analytics.DefaultLowThreshold, low.Threshold)
	require.Len(t, low.Products, 4)
	assert.Equal(t, "Laptop", low.Products[0].Name)
}

func TestAPIHandlers_HandleSummary(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	_, env := serve(t, h.HandleSummary, "/api/summary")

	var summary SummaryResponse
	require.NoError(t, json.Unmarshal(env.Data, &summary))
	assert.Equal(t, 109000.0, summary.TotalRevenue)
	assert.Equal(t, 4, summary.TransactionCount)
	assert.Equal(t, 27250.0, summary.AverageOrderValue)
	require.NotNil(t, summary.DateRange)
	assert.Equal(t, "2024-12-01", summary.DateRange.From)
	assert.Equal(t, "2024-12-03", summary.DateRange.To)
	assert.Len(t, summary.RegionAverages, 3)
	assert.NotEmpty(t, summary.RunID)
}

func TestAPIHandlers_HandleEnrichment(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	_, env := serve(t, h.HandleEnrichment, "/api/enrichment")

	var resp EnrichmentResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.False(t, resp.Enriched)
	assert.NotNil(t, resp.Summary.Unmatched)
}

func TestAPIHandlers_HandleExport(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())
	req := httptest.NewRequest(http.MethodGet, "/api/export.xlsx", nil)
	rec := httptest.NewRecorder()

	h.HandleExport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxMIME, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "sales_report.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), report.SheetRegions)
}

func TestAPIHandlers_NoData(t *testing.T) {
	h := NewAPIHandlers(services.NewAnalytics(quietLogger(), nil, analytics.DefaultOptions()), quietLogger())

	for name, handler := range map[string]http.HandlerFunc{
		"regions":        h.HandleRegions,
		"top-products":   h.HandleTopProducts,
		"summary":        h.HandleSummary,
		"low-performers": h.HandleLowPerformers,
		"export":         h.HandleExport,
	} {
		t.Run(name, func(t *testing.T) {
			rec, env := serve(t, handler, "/api/"+name)
			assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
			assert.False(t, env.Success)
			require.NotNil(t, env.Error)
			assert.Equal(t, "NO_DATA", env.Error.Code)
		})
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	rec, env := serve(t, h.HandleHealth, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	var health map[string]string
	require.NoError(t, json.Unmarshal(env.Data, &health))
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, Version, health["version"])
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	h := NewAPIHandlers(createTestAnalytics(t), quietLogger())

	_, env := serve(t, h.HandleStats, "/admin/stats")

	var stats map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, true, stats["loaded"])
	assert.Equal(t, 4.0, stats["record_count"])
}

package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/config"
	"sales-analytics/internal/models"
	"sales-analytics/internal/observability"
	"sales-analytics/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Security.EnableRateLimit = false
	return cfg
}

func newTestAnalytics(t *testing.T) *services.Analytics {
	t.Helper()
	a := services.NewAnalytics(testLogger(), nil, analytics.DefaultOptions())
	err := a.SetData(context.Background(), []models.Transaction{
		{TransactionID: "T001", Date: "2024-12-01", ProductID: "P101", ProductName: "Laptop", Quantity: 2, UnitPrice: decimal.NewFromInt(45000), CustomerID: "C001", Region: "North"},
		{TransactionID: "T002", Date: "2024-12-02", ProductID: "P102", ProductName: "Mouse", Quantity: 5, UnitPrice: decimal.NewFromInt(500), CustomerID: "C002", Region: "South"},
	})
	require.NoError(t, err)
	return a
}

func do(srv http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	srv.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestServer_Routes(t *testing.T) {
	srv := NewServer(testConfig(), newTestAnalytics(t), observability.NewMetrics(), testLogger())

	tests := []struct {
		path           string
		expectedStatus int
		contentType    string
	}{
		{"/", http.StatusOK, "text/html"},
		{"/health", http.StatusOK, "application/json"},
		{"/admin/stats", http.StatusOK, "application/json"},
		{"/metrics", http.StatusOK, "text/plain"},
		{"/api/summary", http.StatusOK, "application/json"},
		{"/api/regions", http.StatusOK, "application/json"},
		{"/api/top-products", http.StatusOK, "application/json"},
		{"/api/customers", http.StatusOK, "application/json"},
		{"/api/daily", http.StatusOK, "application/json"},
		{"/api/peak-day", http.StatusOK, "application/json"},
		{"/api/low-performers", http.StatusOK, "application/json"},
		{"/api/enrichment", http.StatusOK, "application/json"},
		{"/api/export.xlsx", http.StatusOK, "spreadsheetml"},
		{"/sse/regions", http.StatusOK, "text/event-stream"},
		{"/sse/top-products", http.StatusOK, "text/event-stream"},
		{"/sse/customers", http.StatusOK, "text/event-stream"},
		{"/sse/daily", http.StatusOK, "text/event-stream"},
		{"/sse/refresh-all", http.StatusOK, "text/event-stream"},
		{"/api/nope", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := do(srv, http.MethodGet, tt.path)

			if w.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.expectedStatus)
			}
			if ct := w.Header().Get("Content-Type"); !strings.Contains(ct, tt.contentType) {
				t.Errorf("content-type = %q, want %q", ct, tt.contentType)
			}
			if tt.contentType == "application/json" {
				var result any
				if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
					t.Errorf("invalid json: %v", err)
				}
			}
		})
	}
}

func TestServer_CommonHeaders(t *testing.T) {
	srv := NewServer(testConfig(), newTestAnalytics(t), nil, testLogger())

	w := do(srv, http.MethodGet, "/api/regions")

	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}

func TestServer_MetricsDisabled(t *testing.T) {
	srv := NewServer(testConfig(), newTestAnalytics(t), nil, testLogger())

	assert.Equal(t, http.StatusNotFound, do(srv, http.MethodGet, "/metrics").Code)
}

func TestServer_MethodNotAllowed(t *testing.T) {
	srv := NewServer(testConfig(), newTestAnalytics(t), nil, testLogger())

	w := do(srv, http.MethodPost, "/api/regions")

	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	assert.Contains(t, w.Body.String(), "METHOD_NOT_ALLOWED")
}

func TestServer_NoDataBeforeLoad(t *testing.T) {
	empty := services.NewAnalytics(testLogger(), nil, analytics.DefaultOptions())
	srv := NewServer(testConfig(), empty, nil, testLogger())

	w := do(srv, http.MethodGet, "/api/summary")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(srv, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"starting"`)
}

func TestServer_RecordsRouteMetrics(t *testing.T) {
	metrics := observability.NewMetrics()
	srv := NewServer(testConfig(), newTestAnalytics(t), metrics, testLogger())

	do(srv, http.MethodGet, "/api/regions")
	do(srv, http.MethodGet, "/api/regions")

	body := do(srv, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, body, `sales_http_requests_total{method="GET",route="/api/regions",status="200"} 2`)
}

func TestServer_RateLimit(t *testing.T) {
	cfg := config.Default()
	cfg.Security.RateLimitRPS = 1
	cfg.Security.RateLimitBurst = 2
	srv := NewServer(cfg, newTestAnalytics(t), nil, testLogger())

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(srv, http.MethodGet, "/health").Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestGracefulServer_ShutdownRunsHooks(t *testing.T) {
	httpServer := NewHTTPServer(testConfig(), http.NotFoundHandler())
	gs := NewGracefulServer(httpServer, testLogger(), testConfig().Server)

	called := make(chan struct{}, 2)
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		called <- struct{}{}
		return nil
	})
	gs.RegisterShutdownHook(func(ctx context.Context) error {
		called <- struct{}{}
		return assert.AnError
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := gs.Shutdown(ctx)

	require.ErrorIs(t, err, assert.AnError)
	assert.Len(t, called, 2)
}

func TestGracefulServer_ListenAndServeStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	gs := NewGracefulServer(NewHTTPServer(cfg, http.NotFoundHandler()), testLogger(), cfg.Server)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- gs.ListenAndServe(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/services"
	"sales-analytics/internal/ui/templates"
)

const (
	maxTableRows = 50
	maxProducts  = 10
)

type SSEHandlers struct {
	analytics *services.Analytics
	currency  string
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, currency string, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		currency:  currency,
		logger:    logger,
	}
}

func renderComponent(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func limitRows[T any](rows []T) []T {
	return rows[:min(len(rows), maxTableRows)]
}

// patch renders c and sends it as an element patch. Failures are logged
// because the SSE stream has no error envelope.
func (h *SSEHandlers) patch(ctx context.Context, sse *datastar.ServerSentEventGenerator, name string, c templ.Component) bool {
	html, err := renderComponent(ctx, c)
	if err != nil {
		h.logger.ErrorContext(ctx, "render "+name, "error", err)
		return false
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.WarnContext(ctx, "patch "+name, "error", err)
		return false
	}
	return true
}

func (h *SSEHandlers) signals(ctx context.Context, sse *datastar.ServerSentEventGenerator, payload map[string]any) bool {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.ErrorContext(ctx, "marshal signals", "error", err)
		return false
	}
	if err := sse.PatchSignals(data); err != nil {
		h.logger.WarnContext(ctx, "patch signals", "error", err)
		return false
	}
	return true
}

func (h *SSEHandlers) HandleRegions(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	h.patch(r.Context(), sse, "regions table", templates.RegionsTable(limitRows(h.analytics.Regions()), h.currency))
}

func (h *SSEHandlers) HandleTopProducts(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	data := h.analytics.TopProducts(maxProducts)
	if !h.signals(ctx, sse, map[string]any{"productsData": data}) {
		return
	}
	h.patch(ctx, sse, "products table", templates.ProductsTable(data, h.currency))
}

func (h *SSEHandlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	data := h.analytics.Daily()
	if !h.signals(ctx, sse, map[string]any{"dailyData": data}) {
		return
	}
	h.patch(ctx, sse, "daily table", templates.DailyTable(limitRows(data), h.currency))
}

func (h *SSEHandlers) HandleCustomers(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	data := h.analytics.Customers(analytics.DefaultTopN)
	if !h.signals(ctx, sse, map[string]any{"customersData": data}) {
		return
	}
	h.patch(ctx, sse, "customers table", templates.CustomersTable(data, h.currency))
}

func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)
	ctx := r.Context()

	rep, err := h.analytics.Report()
	if err != nil {
		h.logger.WarnContext(ctx, "refresh requested before data was loaded")
		return
	}

	products := h.analytics.TopProducts(maxProducts)
	customers := h.analytics.Customers(analytics.DefaultTopN)

	ok := h.patch(ctx, sse, "regions table", templates.RegionsTable(limitRows(rep.Regions), h.currency)) &&
		h.patch(ctx, sse, "products table", templates.ProductsTable(products, h.currency)) &&
		h.patch(ctx, sse, "customers table", templates.CustomersTable(customers, h.currency)) &&
		h.patch(ctx, sse, "daily table", templates.DailyTable(limitRows(rep.Daily), h.currency))
	if !ok {
		return
	}

	h.signals(ctx, sse, map[string]any{
		"summary": map[string]any{
			"total_revenue":       rep.TotalRevenue,
			"transaction_count":   rep.TransactionCount,
			"average_order_value": rep.AverageOrderValue,
		},
		"peakDay":       rep.PeakDay,
		"productsData":  products,
		"customersData": customers,
		"dailyData":     rep.Daily,
	})
}

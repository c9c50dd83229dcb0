package report

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/models"
)

func sampleReport(t *testing.T) *analytics.Report {
	t.Helper()
	txs := []models.Transaction{
		{TransactionID: "T001", Date: "2024-12-01", ProductID: "P101", ProductName: "Laptop", Quantity: 2, UnitPrice: decimal.NewFromInt(45000), CustomerID: "C001", Region: "North"},
		{TransactionID: "T002", Date: "2024-12-01", ProductID: "P102", ProductName: "Mouse", Quantity: 5, UnitPrice: decimal.NewFromInt(500), CustomerID: "C002", Region: "South"},
		{TransactionID: "T003", Date: "2024-12-02", ProductID: "P101", ProductName: "Laptop", Quantity: 1, UnitPrice: decimal.NewFromInt(45000), CustomerID: "C002", Region: "North"},
	}
	rep, err := analytics.Analyze(context.Background(), txs, analytics.DefaultOptions())
	require.NoError(t, err)
	return rep
}

func sampleEnrichment() models.EnrichmentSummary {
	return models.EnrichmentSummary{
		Total:       3,
		Matched:     2,
		SuccessRate: 66.666,
		Unmatched:   []string{"P102 - Mouse"},
	}
}

func fixedRenderer() *TextRenderer {
	r := NewTextRenderer("")
	r.Now = func() time.Time { return time.Date(2024, 12, 18, 14, 30, 22, 0, time.UTC) }
	return r
}

func TestTextRenderer_Render(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fixedRenderer().Render(&buf, sampleReport(t), sampleEnrichment(), 3))
	out := buf.String()

	for _, want := range []string{
		"SALES ANALYTICS REPORT",
		"Generated: 2024-12-18 14:30:22",
		"Records Processed: 3",
		"Total Revenue:        ₹137,500.00",
		"Total Transactions:   3",
		"Date Range:           2024-12-01 to 2024-12-02",
		"TOP 5 PRODUCTS",
		"Best Selling Day: 2024-12-01 (Revenue: ₹92,500.00, Transactions: 2)",
		"Low Performing Products (Quantity < 10):",
		"  - Laptop: 3 units, ₹135,000.00",
		"  North: ₹67,500.00",
		"Success Rate:             66.67%",
		"  - P102 - Mouse",
		"END OF REPORT",
	} {
		assert.Contains(t, out, want)
	}
}

func TestTextRenderer_SectionOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, fixedRenderer().Render(&buf, sampleReport(t), sampleEnrichment(), 3))
	out := buf.String()

	sections := []string{
		"SALES ANALYTICS REPORT",
		"OVERALL SUMMARY",
		"REGION-WISE PERFORMANCE",
		"TOP 5 PRODUCTS",
		"TOP 5 CUSTOMERS",
		"DAILY SALES TREND",
		"PRODUCT PERFORMANCE ANALYSIS",
		"API ENRICHMENT SUMMARY",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(out, s)
		require.GreaterOrEqual(t, idx, 0, s)
		assert.Greater(t, idx, last, "%s out of order", s)
		last = idx
	}

	north := strings.Index(out, "North ")
	south := strings.Index(out, "South ")
	assert.Less(t, north, south, "regions sorted by sales")
}

func TestTextRenderer_EmptyReport(t *testing.T) {
	rep, err := analytics.Analyze(context.Background(), nil, analytics.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, fixedRenderer().Render(&buf, rep, models.EnrichmentSummary{}, 0))
	out := buf.String()

	assert.Contains(t, out, "Date Range:           N/A")
	assert.Contains(t, out, "Best Selling Day: None (Revenue: ₹0.00, Transactions: 0)")
	assert.Contains(t, out, "No low performing products found.")
	assert.Contains(t, out, "All products were successfully enriched!")
}

func TestTextRenderer_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "sales_report.txt")

	require.NoError(t, fixedRenderer().WriteFile(path, sampleReport(t), sampleEnrichment(), 3))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "OVERALL SUMMARY")
}

func TestExcelExporter_Write(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewExcelExporter().Write(&buf, sampleReport(t), sampleEnrichment()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		SheetSummary, SheetRegions, SheetProducts, SheetCustomers, SheetDaily, SheetLow, SheetEnrichment,
	}, f.GetSheetList())

	regions, err := f.GetRows(SheetRegions)
	require.NoError(t, err)
	require.Len(t, regions, 3)
	assert.Equal(t, "Region", regions[0][0])
	assert.Equal(t, "North", regions[1][0])
	assert.Equal(t, "South", regions[2][0])

	products, err := f.GetRows(SheetProducts)
	require.NoError(t, err)
	require.Len(t, products, 3)
	assert.Equal(t, "Mouse", products[1][1])

	enrich, err := f.GetRows(SheetEnrichment)
	require.NoError(t, err)
	assert.Equal(t, "P102 - Mouse", enrich[len(enrich)-1][0])
}

func TestExcelExporter_WriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "output", "sales_report.xlsx")

	require.NoError(t, NewExcelExporter().WriteFile(path, sampleReport(t), sampleEnrichment()))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/models"
)

const (
	DefaultCurrency = "₹"
	lineWidth       = 60
	MoneyFormat     = "#,###.##"
)

var (
	rule    = strings.Repeat("=", lineWidth)
	divider = strings.Repeat("-", lineWidth)
)

// TextRenderer writes the plain-text sales report.
type TextRenderer struct {
	Currency string
	Now      func() time.Time
}

func NewTextRenderer(currency string) *TextRenderer {
	if currency == "" {
		currency = DefaultCurrency
	}
	return &TextRenderer{Currency: currency, Now: time.Now}
}

func (r *TextRenderer) money(v float64) string {
	return r.Currency + humanize.FormatFloat(MoneyFormat, v)
}

// Render writes all report sections in their fixed order.
func (r *TextRenderer) Render(w io.Writer, rep *analytics.Report, enrichment models.EnrichmentSummary, recordsProcessed int) error {
	if rep == nil {
		rep = &analytics.Report{}
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}

	bw := bufio.NewWriter(w)
	p := func(format string, args ...any) {
		fmt.Fprintf(bw, format, args...)
	}

	p("%s\n", rule)
	p("           SALES ANALYTICS REPORT\n")
	p("         Generated: %s\n", now().Format(time.DateTime))
	p("         Records Processed: %s\n", humanize.Comma(int64(recordsProcessed)))
	p("%s\n\n", rule)

	dateRange := "N/A"
	if rep.DateRange != nil {
		dateRange = rep.DateRange.From + " to " + rep.DateRange.To
	}
	p("OVERALL SUMMARY\n%s\n", divider)
	p("Total Revenue:        %s\n", r.money(rep.TotalRevenue))
	p("Total Transactions:   %d\n", rep.TransactionCount)
	p("Average Order Value:  %s\n", r.money(rep.AverageOrderValue))
	p("Date Range:           %s\n\n", dateRange)

	p("REGION-WISE PERFORMANCE\n%s\n", divider)
	p("%-15s %-20s %-15s %s\n%s\n", "Region", "Sales", "% of Total", "Transactions", divider)
	for _, rs := range rep.Regions {
		p("%-15s %16s   %6.2f%%      %5d\n", rs.Region, r.money(rs.TotalSales), rs.Percentage, rs.TransactionCount)
	}
	p("\n")

	p("TOP %d PRODUCTS\n%s\n", rep.TopN, divider)
	p("%-6s %-25s %-12s %s\n%s\n", "Rank", "Product Name", "Quantity", "Revenue", divider)
	for i, pr := range rep.TopProducts {
		p("%-6d %-25s %-12d %s\n", i+1, pr.Name, pr.TotalQuantity, r.money(pr.TotalRevenue))
	}
	p("\n")

	customers := rep.Customers[:min(len(rep.Customers), max(rep.TopN, 0))]
	p("TOP %d CUSTOMERS\n%s\n", rep.TopN, divider)
	p("%-6s %-15s %-20s %s\n%s\n", "Rank", "Customer ID", "Total Spent", "Order Count", divider)
	for i, cs := range customers {
		p("%-6d %-15s %16s   %5d\n", i+1, cs.CustomerID, r.money(cs.TotalSpent), cs.PurchaseCount)
	}
	p("\n")

	p("DAILY SALES TREND\n%s\n", divider)
	p("%-15s %-20s %-15s %s\n%s\n", "Date", "Revenue", "Transactions", "Unique Customers", divider)
	for _, ds := range rep.Daily {
		p("%-15s %16s   %8d      %8d\n", ds.Date, r.money(ds.Revenue), ds.TransactionCount, ds.DistinctCustomers)
	}
	p("\n")

	p("PRODUCT PERFORMANCE ANALYSIS\n%s\n", divider)
	if rep.PeakDay.IsZero() {
		p("Best Selling Day: None (Revenue: %s, Transactions: 0)\n\n", r.money(0))
	} else {
		p("Best Selling Day: %s (Revenue: %s, Transactions: %d)\n\n",
			rep.PeakDay.Date, r.money(rep.PeakDay.Revenue), rep.PeakDay.TransactionCount)
	}

	if len(rep.LowPerformers) > 0 {
		p("Low Performing Products (Quantity < %d):\n", rep.LowThreshold)
		for _, pr := range rep.LowPerformers {
			p("  - %s: %d units, %s\n", pr.Name, pr.TotalQuantity, r.money(pr.TotalRevenue))
		}
	} else {
		p("No low performing products found.\n")
	}
	p("\n")

	p("Average Transaction Value per Region:\n")
	for _, ra := range rep.RegionAverages() {
		p("  %s: %s\n", ra.Region, r.money(ra.Average))
	}
	p("\n")

	p("API ENRICHMENT SUMMARY\n%s\n", divider)
	p("Total Products Enriched:  %d\n", enrichment.Total)
	p("Successful Matches:       %d\n", enrichment.Matched)
	p("Success Rate:             %.2f%%\n\n", enrichment.SuccessRate)
	if len(enrichment.Unmatched) > 0 {
		p("Products that couldn't be enriched:\n")
		for _, label := range enrichment.Unmatched {
			p("  - %s\n", label)
		}
	} else {
		p("All products were successfully enriched!\n")
	}

	p("\n%s\n", rule)
	p("           END OF REPORT\n")
	p("%s\n", rule)

	return bw.Flush()
}

// WriteFile renders the report to path, creating the parent directory.
func (r *TextRenderer) WriteFile(path string, rep *analytics.Report, enrichment models.EnrichmentSummary, recordsProcessed int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	if err := r.Render(f, rep, enrichment, recordsProcessed); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return f.Close()
}

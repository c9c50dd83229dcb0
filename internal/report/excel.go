package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"sales-analytics/internal/analytics"
	"sales-analytics/internal/models"
)

// Sheet names in workbook order.
const (
	SheetSummary    = "Summary"
	SheetRegions    = "Regions"
	SheetProducts   = "Top Products"
	SheetCustomers  = "Customers"
	SheetDaily      = "Daily Trend"
	SheetLow        = "Low Performers"
	SheetEnrichment = "Enrichment"
)

type sheet struct {
	name string
	rows [][]any
}

// ExcelExporter writes the report as an xlsx workbook, one sheet per section.
type ExcelExporter struct{}

func NewExcelExporter() *ExcelExporter {
	return &ExcelExporter{}
}

func (e *ExcelExporter) Write(w io.Writer, rep *analytics.Report, enrichment models.EnrichmentSummary) error {
	if rep == nil {
		rep = &analytics.Report{}
	}

	f := excelize.NewFile()
	defer f.Close()

	sheets := buildSheets(rep, enrichment)
	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.name); err != nil {
				return fmt.Errorf("rename sheet %q: %w", s.name, err)
			}
		} else if _, err := f.NewSheet(s.name); err != nil {
			return fmt.Errorf("create sheet %q: %w", s.name, err)
		}

		for r, row := range s.rows {
			if len(row) == 0 {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetSheetRow(s.name, cell, &row); err != nil {
				return fmt.Errorf("write %s row %d: %w", s.name, r+1, err)
			}
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook to path, creating the parent directory.
func (e *ExcelExporter) WriteFile(path string, rep *analytics.Report, enrichment models.EnrichmentSummary) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create workbook dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create workbook file: %w", err)
	}
	defer f.Close()

	if err := e.Write(f, rep, enrichment); err != nil {
		return err
	}
	return f.Close()
}

func buildSheets(rep *analytics.Report, enrichment models.EnrichmentSummary) []sheet {
	from, to := "N/A", "N/A"
	if rep.DateRange != nil {
		from, to = rep.DateRange.From, rep.DateRange.To
	}
	peak := []any{"Best Selling Day", "None", 0.0, 0}
	if !rep.PeakDay.IsZero() {
		peak = []any{"Best Selling Day", rep.PeakDay.Date, rep.PeakDay.Revenue, rep.PeakDay.TransactionCount}
	}

	summary := sheet{name: SheetSummary, rows: [][]any{
		{"Metric", "Value"},
		{"Total Revenue", rep.TotalRevenue},
		{"Total Transactions", rep.TransactionCount},
		{"Average Order Value", rep.AverageOrderValue},
		{"Date From", from},
		{"Date To", to},
		peak,
	}}

	regions := sheet{name: SheetRegions, rows: [][]any{{"Region", "Sales", "% of Total", "Transactions", "Average Value"}}}
	averages := rep.RegionAverages()
	for i, rs := range rep.Regions {
		regions.rows = append(regions.rows, []any{rs.Region, rs.TotalSales, rs.Percentage, rs.TransactionCount, averages[i].Average})
	}

	products := sheet{name: SheetProducts, rows: [][]any{{"Rank", "Product Name", "Quantity", "Revenue"}}}
	for i, pr := range rep.TopProducts {
		products.rows = append(products.rows, []any{i + 1, pr.Name, pr.TotalQuantity, pr.TotalRevenue})
	}

	customers := sheet{name: SheetCustomers, rows: [][]any{{"Rank", "Customer ID", "Total Spent", "Order Count", "Average Order", "Products"}}}
	for i, cs := range rep.Customers {
		customers.rows = append(customers.rows, []any{i + 1, cs.CustomerID, cs.TotalSpent, cs.PurchaseCount, cs.AvgOrderValue, len(cs.DistinctProducts)})
	}

	daily := sheet{name: SheetDaily, rows: [][]any{{"Date", "Revenue", "Transactions", "Unique Customers"}}}
	for _, ds := range rep.Daily {
		daily.rows = append(daily.rows, []any{ds.Date, ds.Revenue, ds.TransactionCount, ds.DistinctCustomers})
	}

	low := sheet{name: SheetLow, rows: [][]any{{"Product Name", "Quantity", "Revenue"}}}
	for _, pr := range rep.LowPerformers {
		low.rows = append(low.rows, []any{pr.Name, pr.TotalQuantity, pr.TotalRevenue})
	}

	enrich := sheet{name: SheetEnrichment, rows: [][]any{
		{"Total Enriched", enrichment.Total},
		{"Successful Matches", enrichment.Matched},
		{"Success Rate", enrichment.SuccessRate},
		{},
		{"Unmatched Products"},
	}}
	for _, label := range enrichment.Unmatched {
		enrich.rows = append(enrich.rows, []any{label})
	}

	return []sheet{summary, regions, products, customers, daily, low, enrich}
}

package analytics

import (
	"context"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"sales-analytics/internal/models"
)

const maxWorkers = 4

type Options struct {
	TopN         int
	LowThreshold int
}

// DefaultOptions ranks the top 5 and flags products sold fewer than 10
// times. Analyze takes Options literally, so a zero field yields an empty
// ranking or no low performers.
func DefaultOptions() Options {
	return Options{TopN: DefaultTopN, LowThreshold: DefaultLowThreshold}
}

type DateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Report holds every result shape the renderers consume, already ordered.
type Report struct {
	TotalRevenue      float64               `json:"total_revenue"`
	TransactionCount  int                   `json:"transaction_count"`
	AverageOrderValue float64               `json:"average_order_value"`
	DateRange         *DateRange            `json:"date_range,omitempty"`
	Regions           []models.RegionStat   `json:"regions"`
	TopProducts       []models.ProductRank  `json:"top_products"`
	Customers         []models.CustomerStat `json:"customers"`
	Daily             []models.DailyStat    `json:"daily"`
	PeakDay           models.PeakDay        `json:"peak_day"`
	LowPerformers     []models.ProductRank  `json:"low_performers"`
	TopN              int                   `json:"top_n"`
	LowThreshold      int                   `json:"low_threshold"`
}

// RegionAverage is the mean transaction value inside one region.
type RegionAverage struct {
	Region  string  `json:"region"`
	Average float64 `json:"average"`
}

// RegionAverages follows the order of Regions.
func (r *Report) RegionAverages() []RegionAverage {
	out := make([]RegionAverage, 0, len(r.Regions))
	for _, rs := range r.Regions {
		avg := 0.0
		if rs.TransactionCount > 0 {
			avg = rs.TotalSales / float64(rs.TransactionCount)
		}
		out = append(out, RegionAverage{Region: rs.Region, Average: avg})
	}
	return out
}

// Analyze runs every analyzer over the same records. The analyzers share no
// state, so they run concurrently; the report is returned only once all of
// them have finished.
func Analyze(ctx context.Context, records []models.Transaction, opts Options) (*Report, error) {
	report := &Report{
		TransactionCount: len(records),
		TopN:             opts.TopN,
		LowThreshold:     opts.LowThreshold,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)

	run := func(fn func()) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn()
			return nil
		})
	}

	run(func() {
		total := totalAmount(records)
		report.TotalRevenue = total.InexactFloat64()
		report.AverageOrderValue = ratio(total, decimal.NewFromInt(int64(len(records))))
		report.DateRange = dateRange(records)
	})
	run(func() { report.Regions = RegionWiseSales(records) })
	run(func() { report.TopProducts = TopSellingProducts(records, opts.TopN) })
	run(func() { report.Customers = CustomerAnalysis(records) })
	run(func() { report.Daily = DailySalesTrend(records) })
	run(func() { report.PeakDay = FindPeakSalesDay(records) })
	run(func() { report.LowPerformers = LowPerformingProducts(records, opts.LowThreshold) })

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func dateRange(records []models.Transaction) *DateRange {
	var r *DateRange
	for _, tx := range records {
		if tx.Date == "" {
			continue
		}
		if r == nil {
			r = &DateRange{From: tx.Date, To: tx.Date}
			continue
		}
		r.From = min(r.From, tx.Date)
		r.To = max(r.To, tx.Date)
	}
	return r
}

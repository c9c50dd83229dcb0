package ingest

import (
	"slices"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

// Filter narrows valid transactions. Zero values disable a criterion.
type Filter struct {
	Region    string
	MinAmount *float64
	MaxAmount *float64
}

type FilterSummary struct {
	TotalInput       int `json:"total_input"`
	Invalid          int `json:"invalid"`
	FilteredByRegion int `json:"filtered_by_region"`
	FilteredByAmount int `json:"filtered_by_amount"`
	FinalCount       int `json:"final_count"`
}

// FilterOptions describes what a caller can filter on.
type FilterOptions struct {
	Regions   []string `json:"regions"`
	MinAmount float64  `json:"min_amount"`
	MaxAmount float64  `json:"max_amount"`
}

// Options lists the distinct regions (sorted) and the amount range of txs.
func Options(txs []models.Transaction) FilterOptions {
	var opts FilterOptions
	seen := make(map[string]struct{})
	for i, tx := range txs {
		if _, ok := seen[tx.Region]; !ok {
			seen[tx.Region] = struct{}{}
			opts.Regions = append(opts.Regions, tx.Region)
		}
		amount := tx.Amount().InexactFloat64()
		if i == 0 {
			opts.MinAmount, opts.MaxAmount = amount, amount
			continue
		}
		opts.MinAmount = min(opts.MinAmount, amount)
		opts.MaxAmount = max(opts.MaxAmount, amount)
	}
	slices.Sort(opts.Regions)
	return opts
}

// ApplyFilter applies the region filter first, then the inclusive amount
// bounds, counting what each step removed.
func ApplyFilter(txs []models.Transaction, f Filter) ([]models.Transaction, FilterSummary) {
	out := slices.Clone(txs)
	if out == nil {
		out = make([]models.Transaction, 0)
	}
	var summary FilterSummary

	if f.Region != "" {
		before := len(out)
		out = slices.DeleteFunc(out, func(tx models.Transaction) bool {
			return tx.Region != f.Region
		})
		summary.FilteredByRegion = before - len(out)
	}

	if f.MinAmount != nil || f.MaxAmount != nil {
		before := len(out)
		out = slices.DeleteFunc(out, func(tx models.Transaction) bool {
			amount := tx.Amount()
			if f.MinAmount != nil && amount.LessThan(decimal.NewFromFloat(*f.MinAmount)) {
				return true
			}
			return f.MaxAmount != nil && amount.GreaterThan(decimal.NewFromFloat(*f.MaxAmount))
		})
		summary.FilteredByAmount = before - len(out)
	}

	summary.FinalCount = len(out)
	return out, summary
}

package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

func regionKey(tx models.Transaction) string { return tx.Region }

// RegionWiseSales totals sales per region and each region's share of the
// grand total, ordered by sales descending.
func RegionWiseSales(records []models.Transaction) []models.RegionStat {
	groups := GroupBy(records, regionKey, newTally, tally.add)

	grand := decimal.Zero
	for _, g := range groups {
		grand = grand.Add(g.Value.amount)
	}

	result := make([]models.RegionStat, 0, len(groups))
	for _, g := range groups {
		stat := models.RegionStat{
			Region:           g.Key,
			TotalSales:       g.Value.amount.InexactFloat64(),
			TransactionCount: g.Value.count,
		}
		if !grand.IsZero() {
			stat.Percentage = round2(g.Value.amount.Div(grand).Mul(hundred))
		}
		result = append(result, stat)
	}

	slices.SortStableFunc(result, func(a, b models.RegionStat) int {
		return descending(a.TotalSales, b.TotalSales)
	})
	return result
}

func descending[T int | float64](a, b T) int {
	switch {
	case a > b:
		return -1
	case a < b:
		return 1
	default:
		return 0
	}
}

func ascending[T int | float64](a, b T) int {
	return descending(b, a)
}

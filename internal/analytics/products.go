package analytics

import (
	"slices"

	"sales-analytics/internal/models"
)

const (
	DefaultTopN         = 5
	DefaultLowThreshold = 10
)

// Products are keyed by name, so two IDs sharing a display name are merged.
func productKey(tx models.Transaction) string { return tx.ProductName }

func productTotals(records []models.Transaction) []models.ProductRank {
	groups := GroupBy(records, productKey, newTally, tally.add)

	result := make([]models.ProductRank, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.ProductRank{
			Name:          g.Key,
			TotalQuantity: g.Value.quantity,
			TotalRevenue:  g.Value.amount.InexactFloat64(),
		})
	}
	return result
}

// TopSellingProducts returns at most n products ordered by quantity sold,
// ties kept in first-seen order. A non-positive n yields no products.
func TopSellingProducts(records []models.Transaction, n int) []models.ProductRank {
	products := productTotals(records)
	slices.SortStableFunc(products, func(a, b models.ProductRank) int {
		return descending(a.TotalQuantity, b.TotalQuantity)
	})

	n = max(n, 0)
	if len(products) > n {
		products = products[:n]
	}
	return products
}

// LowPerformingProducts returns every product whose total quantity is
// strictly below threshold, least sold first.
func LowPerformingProducts(records []models.Transaction, threshold int) []models.ProductRank {
	low := make([]models.ProductRank, 0)
	for _, p := range productTotals(records) {
		if p.TotalQuantity < threshold {
			low = append(low, p)
		}
	}
	slices.SortStableFunc(low, func(a, b models.ProductRank) int {
		return ascending(a.TotalQuantity, b.TotalQuantity)
	})
	return low
}

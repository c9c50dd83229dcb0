package analytics

import (
	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

// TotalRevenue sums quantity times unit price over records.
func TotalRevenue(records []models.Transaction) float64 {
	return totalAmount(records).InexactFloat64()
}

func totalAmount(records []models.Transaction) decimal.Decimal {
	total := decimal.Zero
	for _, tx := range records {
		total = total.Add(tx.Amount())
	}
	return total
}

package analytics

import (
	"slices"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

type customerAcc struct {
	tally
	products *distinctSet
}

func newCustomerAcc() customerAcc {
	return customerAcc{tally: newTally(), products: newDistinctSet()}
}

func (c customerAcc) add(tx models.Transaction) customerAcc {
	c.tally = c.tally.add(tx)
	c.products.add(tx.ProductName)
	return c
}

func customerKey(tx models.Transaction) string { return tx.CustomerID }

// CustomerAnalysis reports spend, order count, average order value and the
// distinct products bought per customer, biggest spenders first.
func CustomerAnalysis(records []models.Transaction) []models.CustomerStat {
	groups := GroupBy(records, customerKey, newCustomerAcc, customerAcc.add)

	result := make([]models.CustomerStat, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.CustomerStat{
			CustomerID:       g.Key,
			TotalSpent:       g.Value.amount.InexactFloat64(),
			PurchaseCount:    g.Value.count,
			AvgOrderValue:    ratio(g.Value.amount, decimal.NewFromInt(int64(g.Value.count))),
			DistinctProducts: g.Value.products.values(),
		})
	}

	slices.SortStableFunc(result, func(a, b models.CustomerStat) int {
		return descending(a.TotalSpent, b.TotalSpent)
	})
	return result
}

package analytics

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"sales-analytics/internal/models"
)

type dailyAcc struct {
	tally
	customers *distinctSet
}

func newDailyAcc() dailyAcc {
	return dailyAcc{tally: newTally(), customers: newDistinctSet()}
}

func (d dailyAcc) add(tx models.Transaction) dailyAcc {
	d.tally = d.tally.add(tx)
	d.customers.add(tx.CustomerID)
	return d
}

func dateKey(tx models.Transaction) string { return tx.Date }

// DailySalesTrend aggregates revenue, transactions and distinct customers per
// date. Dates are YYYY-MM-DD, so plain string order is chronological.
func DailySalesTrend(records []models.Transaction) []models.DailyStat {
	groups := GroupBy(records, dateKey, newDailyAcc, dailyAcc.add)

	result := make([]models.DailyStat, 0, len(groups))
	for _, g := range groups {
		result = append(result, models.DailyStat{
			Date:              g.Key,
			Revenue:           g.Value.amount.InexactFloat64(),
			TransactionCount:  g.Value.count,
			DistinctCustomers: g.Value.customers.len(),
		})
	}

	slices.SortStableFunc(result, func(a, b models.DailyStat) int {
		return strings.Compare(a.Date, b.Date)
	})
	return result
}

// FindPeakSalesDay returns the date with the highest revenue. When several
// dates tie, the one that appears first in records wins. Empty input returns
// the zero PeakDay.
func FindPeakSalesDay(records []models.Transaction) models.PeakDay {
	var (
		peak models.PeakDay
		best decimal.Decimal
	)
	for _, g := range GroupBy(records, dateKey, newTally, tally.add) {
		if peak.IsZero() || g.Value.amount.GreaterThan(best) {
			best = g.Value.amount
			peak = models.PeakDay{
				Date:             g.Key,
				Revenue:          best.InexactFloat64(),
				TransactionCount: g.Value.count,
			}
		}
	}
	return peak
}

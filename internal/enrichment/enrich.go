package enrichment

import (
	"fmt"
	"strconv"
	"strings"

	"sales-analytics/internal/models"
)

// NewProductMapping indexes catalog products by id. Products without an id
// are dropped.
func NewProductMapping(products []models.ProductInfo) map[int]models.ProductInfo {
	mapping := make(map[int]models.ProductInfo, len(products))
	for _, p := range products {
		if p.ID == 0 {
			continue
		}
		mapping[p.ID] = p
	}
	return mapping
}

// NumericProductID extracts the catalog key from ids like "P101". Ids
// without the P prefix, with a non-numeric suffix, or equal to zero do not
// map to any product.
func NumericProductID(productID string) (int, bool) {
	suffix, ok := strings.CutPrefix(productID, "P")
	if !ok {
		return 0, false
	}
	id, err := strconv.Atoi(suffix)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Enrich attaches catalog metadata to every transaction it can match.
func Enrich(txs []models.Transaction, mapping map[int]models.ProductInfo) []models.EnrichedTransaction {
	out := make([]models.EnrichedTransaction, 0, len(txs))
	for _, tx := range txs {
		et := models.EnrichedTransaction{Transaction: tx}
		if id, ok := NumericProductID(tx.ProductID); ok {
			if info, found := mapping[id]; found {
				rating := info.Rating
				et.Category = info.Category
				et.Brand = info.Brand
				et.Rating = &rating
				et.Matched = true
			}
		}
		out = append(out, et)
	}
	return out
}

// Summarize counts matches and lists each unmatched product once, in the
// order it was first seen.
func Summarize(enriched []models.EnrichedTransaction) models.EnrichmentSummary {
	summary := models.EnrichmentSummary{
		Total:     len(enriched),
		Unmatched: make([]string, 0),
	}

	seen := make(map[string]struct{})
	for _, et := range enriched {
		if et.Matched {
			summary.Matched++
			continue
		}
		label := fmt.Sprintf("%s - %s", et.ProductID, et.ProductName)
		if _, ok := seen[label]; ok {
			continue
		}
		seen[label] = struct{}{}
		summary.Unmatched = append(summary.Unmatched, label)
	}

	if summary.Total > 0 {
		summary.SuccessRate = float64(summary.Matched) / float64(summary.Total) * 100
	}
	return summary
}

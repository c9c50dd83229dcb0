package models

// ProductInfo is the subset of catalog metadata used for enrichment.
type ProductInfo struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Brand    string  `json:"brand"`
	Price    float64 `json:"price"`
	Rating   float64 `json:"rating"`
}

// EnrichedTransaction carries catalog fields next to the source record.
// Category, Brand and Rating are empty unless Matched is true.
type EnrichedTransaction struct {
	Transaction
	Category string   `json:"api_category,omitempty"`
	Brand    string   `json:"api_brand,omitempty"`
	Rating   *float64 `json:"api_rating,omitempty"`
	Matched  bool     `json:"api_match"`
}

type EnrichmentSummary struct {
	Total       int      `json:"total"`
	Matched     int      `json:"matched"`
	SuccessRate float64  `json:"success_rate"`
	Unmatched   []string `json:"unmatched"`
}

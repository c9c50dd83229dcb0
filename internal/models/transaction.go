package models

import "github.com/shopspring/decimal"

// Transaction is one validated line of the sales log.
type Transaction struct {
	TransactionID string          `json:"transaction_id" validate:"required,startswith=T"`
	Date          string          `json:"date" validate:"required"`
	ProductID     string          `json:"product_id" validate:"required,startswith=P"`
	ProductName   string          `json:"product_name" validate:"required"`
	Quantity      int             `json:"quantity" validate:"gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"gt=0"`
	CustomerID    string          `json:"customer_id" validate:"required,startswith=C"`
	Region        string          `json:"region" validate:"required"`
}

// Amount is quantity times unit price. It is recomputed on every call.
func (t Transaction) Amount() decimal.Decimal {
	return decimal.NewFromInt(int64(t.Quantity)).Mul(t.UnitPrice)
}

type RegionStat struct {
	Region           string  `json:"region"`
	TotalSales       float64 `json:"total_sales"`
	TransactionCount int     `json:"transaction_count"`
	Percentage       float64 `json:"percentage"`
}

// ProductRank is shared by the top-selling and low-performing views.
type ProductRank struct {
	Name          string  `json:"name"`
	TotalQuantity int     `json:"total_quantity"`
	TotalRevenue  float64 `json:"total_revenue"`
}

type CustomerStat struct {
	CustomerID       string   `json:"customer_id"`
	TotalSpent       float64  `json:"total_spent"`
	PurchaseCount    int      `json:"purchase_count"`
	AvgOrderValue    float64  `json:"avg_order_value"`
	DistinctProducts []string `json:"distinct_products"`
}

type DailyStat struct {
	Date              string  `json:"date"`
	Revenue           float64 `json:"revenue"`
	TransactionCount  int     `json:"transaction_count"`
	DistinctCustomers int     `json:"unique_customers"`
}

// PeakDay is the best selling date. The zero value means there was no data.
type PeakDay struct {
	Date             string  `json:"date"`
	Revenue          float64 `json:"revenue"`
	TransactionCount int     `json:"transaction_count"`
}

func (p PeakDay) IsZero() bool {
	return p.Date == ""
}

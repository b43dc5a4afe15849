package model

import "github.com/shopspring/decimal"

// MonthlyRevenue is one point of the yearly revenue series
type MonthlyRevenue struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

// ClientRanking ranks clients by spend
type ClientRanking struct {
	Name         string          `json:"name"`
	ICE          string          `json:"ice"`
	TotalSpend   decimal.Decimal `json:"total_spend"`
	InvoiceCount int64           `json:"invoice_count"`
}

// ProductRanking ranks sold products by accumulated quantity
type ProductRanking struct {
	Name         string          `json:"name"`
	QuantitySold decimal.Decimal `json:"quantity_sold"`
	Revenue      decimal.Decimal `json:"revenue"`
}

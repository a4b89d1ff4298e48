package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type CategorySpend struct {
	CategoryID   string          `json:"category_id"`
	CategoryName string          `json:"category_name"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
}

// MonthlySummary aggregates one user's spending for a calendar month.
type MonthlySummary struct {
	Year             int             `json:"year"`
	Month            time.Month      `json:"month"`
	TotalSpent       decimal.Decimal `json:"total_spent"`
	TransactionCount int             `json:"transaction_count"`
	ByCategory       []CategorySpend `json:"by_category"`
}

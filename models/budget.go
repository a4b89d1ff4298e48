package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type Budget struct {
	ID             string          `json:"id"`
	UserID         string          `json:"user_id"`
	Name           string          `json:"name"`
	CategoryID     string          `json:"category_id,omitempty"` // empty = overall budget
	Amount         decimal.Decimal `json:"amount"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	AlertThreshold float64         `json:"alert_threshold"` // percentage, e.g. 80
	IsActive       bool            `json:"is_active"`
	LastAlertSent  *time.Time      `json:"last_alert_sent,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type BudgetRequest struct {
	Name           string  `json:"name" binding:"required"`
	CategoryID     string  `json:"category_id"`
	Amount         string  `json:"amount" binding:"required"`
	StartDate      string  `json:"start_date" binding:"required"` // YYYY-MM-DD
	EndDate        string  `json:"end_date" binding:"required"`
	AlertThreshold float64 `json:"alert_threshold"`
}

// BudgetStatus is a budget plus its computed consumption.
type BudgetStatus struct {
	Budget         Budget          `json:"budget"`
	Spent          decimal.Decimal `json:"spent"`
	PercentageUsed float64         `json:"percentage_used"`
}

package models

import "time"

type NotificationType string

const (
	NotificationBudgetAlert      NotificationType = "BUDGET_ALERT"
	NotificationBudgetExceeded   NotificationType = "BUDGET_EXCEEDED"
	NotificationTransactionAdded NotificationType = "TRANSACTION_ADDED"
	NotificationMonthlySummary   NotificationType = "MONTHLY_SUMMARY"
	NotificationEmailParsed      NotificationType = "EMAIL_PARSED"
	NotificationSystem           NotificationType = "SYSTEM"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
	ReadAt    *time.Time       `json:"read_at,omitempty"`
}

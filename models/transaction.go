package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================================
// ENUMS
// ============================================================================

type PaymentMethod string

const (
	PaymentUPI          PaymentMethod = "UPI"
	PaymentCreditCard   PaymentMethod = "CREDIT_CARD"
	PaymentDebitCard    PaymentMethod = "DEBIT_CARD"
	PaymentWallet       PaymentMethod = "WALLET"
	PaymentCash         PaymentMethod = "CASH"
	PaymentNetBanking   PaymentMethod = "NET_BANKING"
	PaymentSubscription PaymentMethod = "SUBSCRIPTION"
)

// ParsePaymentMethod maps a raw string to a known payment method. Unknown
// values fall back to CASH so a bad CSV column never fails a row.
func ParsePaymentMethod(raw string) PaymentMethod {
	switch PaymentMethod(raw) {
	case PaymentUPI, PaymentCreditCard, PaymentDebitCard, PaymentWallet,
		PaymentCash, PaymentNetBanking, PaymentSubscription:
		return PaymentMethod(raw)
	}
	return PaymentCash
}

type TransactionSource string

const (
	SourceManual      TransactionSource = "MANUAL"
	SourceEmailParsed TransactionSource = "EMAIL_PARSED"
	SourceSMSParsed   TransactionSource = "SMS_PARSED"
	SourceCSVImport   TransactionSource = "CSV_IMPORT"
)

// ============================================================================
// TRANSACTION MODEL
// ============================================================================

type Transaction struct {
	ID              string            `json:"id"`
	UserID          string            `json:"user_id"`
	Description     string            `json:"description"`
	Amount          decimal.Decimal   `json:"amount"`
	Date            time.Time         `json:"date"`
	PaymentMethod   PaymentMethod     `json:"payment_method"`
	CategoryID      string            `json:"category_id"`
	CategoryName    string            `json:"category_name,omitempty"`
	Source          TransactionSource `json:"source"`
	SourceReference string            `json:"source_reference,omitempty"`
	Notes           string            `json:"notes,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

type CreateTransactionRequest struct {
	Description   string `json:"description" binding:"required"`
	Amount        string `json:"amount" binding:"required"`
	Date          string `json:"date" binding:"required"` // YYYY-MM-DD
	PaymentMethod string `json:"payment_method" binding:"required"`
	CategoryID    string `json:"category_id" binding:"required"`
	Notes         string `json:"notes"`
}

// TransactionFilter narrows list queries. Zero values mean "no constraint".
type TransactionFilter struct {
	From       time.Time
	To         time.Time
	CategoryID string
	Source     TransactionSource
	Limit      int
}

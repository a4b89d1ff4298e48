package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/models"
)

type TransactionService struct {
	db *sql.DB
}

func NewTransactionService(db *sql.DB) *TransactionService {
	return &TransactionService{db: db}
}

// Save persists a transaction after verifying the category belongs to the
// same user. Email-sourced rows hit the dedup index; a conflict surfaces as
// ErrDuplicateTransaction.
func (s *TransactionService) Save(ctx context.Context, t *models.Transaction) (*models.Transaction, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM categories WHERE id = $1`, t.CategoryID).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != t.UserID) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify category: %w", err)
	}

	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transactions
			(id, user_id, description, amount, transaction_date, payment_method,
			 category_id, source, source_reference, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		t.ID, t.UserID, t.Description, t.Amount, t.Date, t.PaymentMethod,
		t.CategoryID, t.Source, nullIfEmpty(t.SourceReference), t.Notes, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return nil, ErrDuplicateTransaction
		}
		return nil, fmt.Errorf("failed to save transaction: %w", err)
	}
	return t, nil
}

func (s *TransactionService) GetByID(ctx context.Context, userID, txID string) (*models.Transaction, error) {
	var t models.Transaction
	var sourceRef sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.user_id, t.description, t.amount, t.transaction_date, t.payment_method,
		       t.category_id, c.name, t.source, t.source_reference, t.notes, t.created_at, t.updated_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.id = $1 AND t.user_id = $2`, txID, userID).
		Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Date, &t.PaymentMethod,
			&t.CategoryID, &t.CategoryName, &t.Source, &sourceRef, &t.Notes, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	t.SourceReference = sourceRef.String
	return &t, nil
}

func (s *TransactionService) List(ctx context.Context, userID string, filter models.TransactionFilter) ([]models.Transaction, error) {
	query := `
		SELECT t.id, t.user_id, t.description, t.amount, t.transaction_date, t.payment_method,
		       t.category_id, c.name, t.source, t.source_reference, t.notes, t.created_at, t.updated_at
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1`
	args := []interface{}{userID}

	if !filter.From.IsZero() {
		args = append(args, filter.From)
		query += fmt.Sprintf(" AND t.transaction_date >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		query += fmt.Sprintf(" AND t.transaction_date <= $%d", len(args))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		query += fmt.Sprintf(" AND t.category_id = $%d", len(args))
	}
	if filter.Source != "" {
		args = append(args, filter.Source)
		query += fmt.Sprintf(" AND t.source = $%d", len(args))
	}

	query += " ORDER BY t.transaction_date DESC, t.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	for rows.Next() {
		var t models.Transaction
		var sourceRef sql.NullString
		if err := rows.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount, &t.Date, &t.PaymentMethod,
			&t.CategoryID, &t.CategoryName, &t.Source, &sourceRef, &t.Notes, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		t.SourceReference = sourceRef.String
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

func (s *TransactionService) Update(ctx context.Context, userID, txID string, t *models.Transaction) (*models.Transaction, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM categories WHERE id = $1`, t.CategoryID).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != userID) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to verify category: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET description = $1, amount = $2, transaction_date = $3, payment_method = $4,
		    category_id = $5, notes = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9`,
		t.Description, t.Amount, t.Date, t.PaymentMethod,
		t.CategoryID, t.Notes, time.Now(), txID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to update transaction: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, ErrTransactionNotFound
	}
	return s.GetByID(ctx, userID, txID)
}

func (s *TransactionService) Delete(ctx context.Context, userID, txID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, txID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrTransactionNotFound
	}
	return nil
}

// SpentInRange sums spending in a window, optionally restricted to one
// category. Empty categoryID means all categories.
func (s *TransactionService) SpentInRange(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error) {
	query := `SELECT COALESCE(SUM(amount), 0) FROM transactions
		WHERE user_id = $1 AND transaction_date >= $2 AND transaction_date <= $3`
	args := []interface{}{userID, from, to}
	if categoryID != "" {
		args = append(args, categoryID)
		query += " AND category_id = $4"
	}

	var total decimal.Decimal
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum spending: %w", err)
	}
	return total, nil
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

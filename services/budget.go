package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// spentSummer is the slice of TransactionService the alert check needs.
type spentSummer interface {
	SpentInRange(ctx context.Context, userID, categoryID string, from, to time.Time) (decimal.Decimal, error)
}

type BudgetService struct {
	db           *sql.DB
	transactions spentSummer
	notifier     Notifier
	users        *UserService
}

func NewBudgetService(db *sql.DB, transactions spentSummer, notifier Notifier, users *UserService) *BudgetService {
	return &BudgetService{db: db, transactions: transactions, notifier: notifier, users: users}
}

func (s *BudgetService) Create(ctx context.Context, userID string, b *models.Budget) (*models.Budget, error) {
	b.ID = uuid.New().String()
	b.UserID = userID
	b.IsActive = true
	b.CreatedAt = time.Now()
	b.UpdatedAt = b.CreatedAt
	if b.AlertThreshold <= 0 || b.AlertThreshold > 100 {
		b.AlertThreshold = 80
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets
			(id, user_id, name, category_id, amount, start_date, end_date,
			 alert_threshold, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		b.ID, b.UserID, b.Name, nullIfEmpty(b.CategoryID), b.Amount,
		b.StartDate, b.EndDate, b.AlertThreshold, b.IsActive, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create budget: %w", err)
	}
	return b, nil
}

func (s *BudgetService) ListByUser(ctx context.Context, userID string) ([]models.Budget, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, COALESCE(category_id::text, ''), amount,
		       start_date, end_date, alert_threshold, is_active, last_alert_sent,
		       created_at, updated_at
		FROM budgets WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list budgets: %w", err)
	}
	defer rows.Close()

	budgets := []models.Budget{}
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.CategoryID, &b.Amount,
			&b.StartDate, &b.EndDate, &b.AlertThreshold, &b.IsActive, &b.LastAlertSent,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *BudgetService) Update(ctx context.Context, userID, budgetID string, b *models.Budget) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE budgets SET name = $1, category_id = $2, amount = $3,
			start_date = $4, end_date = $5, alert_threshold = $6, updated_at = $7
		WHERE id = $8 AND user_id = $9`,
		b.Name, nullIfEmpty(b.CategoryID), b.Amount, b.StartDate, b.EndDate,
		b.AlertThreshold, time.Now(), budgetID, userID)
	if err != nil {
		return fmt.Errorf("failed to update budget: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, budgetID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = $1 AND user_id = $2`, budgetID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrBudgetNotFound
	}
	return nil
}

// StatusFor computes consumption for every currently active budget of a user.
func (s *BudgetService) StatusFor(ctx context.Context, userID string) ([]models.BudgetStatus, error) {
	budgets, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	statuses := []models.BudgetStatus{}
	for _, b := range budgets {
		if !b.IsActive || now.Before(b.StartDate) || now.After(b.EndDate.AddDate(0, 0, 1)) {
			continue
		}
		spent, err := s.transactions.SpentInRange(ctx, userID, b.CategoryID, b.StartDate, b.EndDate)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, models.BudgetStatus{
			Budget:         b,
			Spent:          spent,
			PercentageUsed: percentageUsed(spent, b.Amount),
		})
	}
	return statuses, nil
}

func percentageUsed(spent, limit decimal.Decimal) float64 {
	if !limit.IsPositive() {
		return 0
	}
	pct, _ := spent.Div(limit).Mul(decimal.NewFromInt(100)).Float64()
	return pct
}

// CheckAllBudgetsDaily walks every active budget and raises an alert when
// consumption crossed the threshold. At most one alert per budget per day;
// last_alert_sent throttles repeats.
func (s *BudgetService) CheckAllBudgetsDaily(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, name, COALESCE(category_id::text, ''), amount,
		       start_date, end_date, alert_threshold, is_active, last_alert_sent,
		       created_at, updated_at
		FROM budgets
		WHERE is_active = true AND start_date <= NOW() AND end_date >= NOW()::date`)
	if err != nil {
		log.Printf("❌ Budget alert check failed: %v", err)
		return
	}
	defer rows.Close()

	var budgets []models.Budget
	for rows.Next() {
		var b models.Budget
		if err := rows.Scan(&b.ID, &b.UserID, &b.Name, &b.CategoryID, &b.Amount,
			&b.StartDate, &b.EndDate, &b.AlertThreshold, &b.IsActive, &b.LastAlertSent,
			&b.CreatedAt, &b.UpdatedAt); err != nil {
			log.Printf("❌ Budget alert scan failed: %v", err)
			return
		}
		budgets = append(budgets, b)
	}

	alerted := 0
	for _, b := range budgets {
		if s.checkBudget(ctx, b) {
			alerted++
		}
	}
	log.Printf("✅ Budget alert check done: %d budgets checked, %d alerts sent", len(budgets), alerted)
}

func (s *BudgetService) checkBudget(ctx context.Context, b models.Budget) bool {
	if b.LastAlertSent != nil && time.Since(*b.LastAlertSent) < 24*time.Hour {
		return false
	}

	spent, err := s.transactions.SpentInRange(ctx, b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		utils.SafeLog("⚠️ Spend lookup failed for budget %s: %v", b.ID, err)
		return false
	}

	pct := percentageUsed(spent, b.Amount)
	if pct < b.AlertThreshold {
		return false
	}

	user, err := s.users.GetByID(ctx, b.UserID)
	if err != nil {
		utils.SafeLog("⚠️ User lookup failed for budget %s: %v", b.ID, err)
		return false
	}
	if !user.BudgetAlertsEnabled {
		return false
	}

	typ := models.NotificationBudgetAlert
	title := "Budget Alert"
	message := fmt.Sprintf("You have used %.0f%% of your %q budget (₹%s of ₹%s)",
		pct, b.Name, spent.StringFixed(2), b.Amount.StringFixed(2))
	if pct >= 100 {
		typ = models.NotificationBudgetExceeded
		title = "Budget Exceeded"
		message = fmt.Sprintf("You have exceeded your %q budget: ₹%s spent of ₹%s",
			b.Name, spent.StringFixed(2), b.Amount.StringFixed(2))
	}

	if err := s.notifier.Notify(ctx, user, typ, title, message); err != nil {
		utils.SafeLog("⚠️ Budget alert notification failed for %s: %v", b.ID, err)
		return false
	}

	if _, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET last_alert_sent = $1 WHERE id = $2`, time.Now(), b.ID); err != nil {
		utils.SafeLog("⚠️ Failed to record alert time for budget %s: %v", b.ID, err)
	}
	return true
}

package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

type AnalyticsService struct {
	db       *sql.DB
	notifier Notifier
	users    *UserService
}

func NewAnalyticsService(db *sql.DB, notifier Notifier, users *UserService) *AnalyticsService {
	return &AnalyticsService{db: db, notifier: notifier, users: users}
}

// MonthlySummary aggregates one calendar month of spending by category.
func (s *AnalyticsService) MonthlySummary(ctx context.Context, userID string, year int, month time.Month) (*models.MonthlySummary, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(SUM(t.amount), 0), COUNT(t.id)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.transaction_date >= $2 AND t.transaction_date <= $3
		GROUP BY c.id, c.name
		ORDER BY SUM(t.amount) DESC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate monthly spending: %w", err)
	}
	defer rows.Close()

	summary := &models.MonthlySummary{Year: year, Month: month, ByCategory: []models.CategorySpend{}}
	for rows.Next() {
		var cs models.CategorySpend
		if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.Total, &cs.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}
		summary.TotalSpent = summary.TotalSpent.Add(cs.Total)
		summary.TransactionCount += cs.Count
		summary.ByCategory = append(summary.ByCategory, cs)
	}
	return summary, rows.Err()
}

// SpendingByCategory aggregates an arbitrary date window.
func (s *AnalyticsService) SpendingByCategory(ctx context.Context, userID string, from, to time.Time) ([]models.CategorySpend, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, COALESCE(SUM(t.amount), 0), COUNT(t.id)
		FROM transactions t
		JOIN categories c ON c.id = t.category_id
		WHERE t.user_id = $1 AND t.transaction_date >= $2 AND t.transaction_date <= $3
		GROUP BY c.id, c.name
		ORDER BY SUM(t.amount) DESC`, userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate spending: %w", err)
	}
	defer rows.Close()

	spends := []models.CategorySpend{}
	for rows.Next() {
		var cs models.CategorySpend
		if err := rows.Scan(&cs.CategoryID, &cs.CategoryName, &cs.Total, &cs.Count); err != nil {
			return nil, fmt.Errorf("failed to scan category spend: %w", err)
		}
		spends = append(spends, cs)
	}
	return spends, rows.Err()
}

// SendMonthlyRollups pushes a summary notification of the previous month to
// every active user who had any spending in it. Run on the first day of the
// month by the scheduler.
func (s *AnalyticsService) SendMonthlyRollups(ctx context.Context) {
	prev := time.Now().AddDate(0, -1, 0)
	year, month := prev.Year(), prev.Month()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM users WHERE is_active = true`)
	if err != nil {
		log.Printf("❌ Monthly rollup user list failed: %v", err)
		return
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			log.Printf("❌ Monthly rollup scan failed: %v", err)
			return
		}
		userIDs = append(userIDs, id)
	}

	sent := 0
	for _, id := range userIDs {
		summary, err := s.MonthlySummary(ctx, id, year, month)
		if err != nil {
			utils.SafeLog("⚠️ Monthly summary failed for user %s: %v", id, err)
			continue
		}
		if summary.TransactionCount == 0 {
			continue
		}

		user, err := s.users.GetByID(ctx, id)
		if err != nil {
			continue
		}

		message := fmt.Sprintf("You spent ₹%s across %d transactions in %s %d",
			summary.TotalSpent.StringFixed(2), summary.TransactionCount, month, year)
		if err := s.notifier.Notify(ctx, user, models.NotificationMonthlySummary,
			"Monthly Spending Summary", message); err != nil {
			utils.SafeLog("⚠️ Monthly rollup notification failed for user %s: %v", id, err)
			continue
		}
		sent++
	}
	log.Printf("✅ Monthly rollups sent to %d users for %s %d", sent, month, year)
}

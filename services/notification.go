package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// Pusher delivers a realtime payload to a connected user. The WebSocket hub
// implements it; a nil-safe no-op is fine in tests.
type Pusher interface {
	Push(userID string, payload []byte) error
}

type NotificationService struct {
	db     *sql.DB
	pusher Pusher
}

func NewNotificationService(db *sql.DB, pusher Pusher) *NotificationService {
	return &NotificationService{db: db, pusher: pusher}
}

// Notify persists the notification, then fans out to the realtime channel
// and, when the user opted in, to email. Fan-out failures are logged and
// never returned; the stored row is the source of truth.
func (s *NotificationService) Notify(ctx context.Context, user *models.User, typ models.NotificationType, title, message string) error {
	n := models.Notification{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, user_id, type, title, message, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, false, $6)`,
		n.ID, n.UserID, n.Type, n.Title, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to store notification: %w", err)
	}

	if s.pusher != nil {
		payload, err := json.Marshal(map[string]interface{}{"event": "notification", "data": n})
		if err == nil {
			if err := s.pusher.Push(user.ID, payload); err != nil {
				utils.SafeLog("⚠️ Realtime push failed for user %s: %v", user.ID, err)
			}
		}
	}

	if user.EmailNotificationsEnabled && user.Email != "" {
		if err := utils.SendNotificationEmail(user.Email, user.FullName, title, message); err != nil {
			utils.SafeLog("⚠️ Notification email failed for %s: %v", utils.MaskEmail(user.Email), err)
		}
	}

	return nil
}

func (s *NotificationService) ListByUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, type, title, message, is_read, created_at, read_at
		FROM notifications WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message,
			&n.IsRead, &n.CreatedAt, &n.ReadAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`,
		userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true, read_at = $1
		WHERE id = $2 AND user_id = $3 AND is_read = false`,
		time.Now(), notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return fmt.Errorf("notification not found or already read")
	}
	return nil
}

func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE notifications SET is_read = true, read_at = $1
		WHERE user_id = $2 AND is_read = false`, time.Now(), userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

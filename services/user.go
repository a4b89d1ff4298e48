package services

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

const userColumns = `
	id, username, email, password_hash,
	COALESCE(full_name, ''), COALESCE(phone_number, ''),
	COALESCE(totp_secret, ''), totp_enabled, email_verified, is_active,
	email_parsing_enabled,
	COALESCE(email_imap_host, ''), COALESCE(email_imap_username, ''),
	COALESCE(email_imap_password, ''), COALESCE(email_imap_port, 993),
	email_notifications_enabled, budget_alerts_enabled,
	created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&u.FullName, &u.PhoneNumber,
		&u.TOTPSecret, &u.TOTPEnabled, &u.EmailVerified, &u.IsActive,
		&u.EmailParsingEnabled,
		&u.EmailIMAPHost, &u.EmailIMAPUsername,
		&u.EmailIMAPPassword, &u.EmailIMAPPort,
		&u.EmailNotificationsEnabled, &u.BudgetAlertsEnabled,
		&u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return &u, nil
}

// Create inserts a new account with a hashed password. Username and email
// collide on unique indexes; callers translate the conflict.
func (s *UserService) Create(ctx context.Context, req *models.SignupRequest, passwordHash string) (*models.User, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, full_name)
		VALUES ($1, $2, $3, $4) RETURNING id`,
		req.Username, req.Email, passwordHash, req.FullName).Scan(&id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND is_active = true`, userID)
	return scanUser(row)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND is_active = true`, username)
	return scanUser(row)
}

// ListEmailParsingEnabled returns every active user the mailbox scheduler
// should run for.
func (s *UserService) ListEmailParsingEnabled(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE is_active = true AND email_parsing_enabled = true`)
	if err != nil {
		return nil, fmt.Errorf("failed to list parsing-enabled users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateEmailConfig applies the fields present in the request. The IMAP
// secret is encrypted before it touches the database; an empty password
// leaves the stored one untouched.
func (s *UserService) UpdateEmailConfig(ctx context.Context, userID string, cfg *models.EmailConfig) error {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if cfg.EmailParsingEnabled != nil {
		user.EmailParsingEnabled = *cfg.EmailParsingEnabled
	}
	if cfg.EmailIMAPHost != "" {
		user.EmailIMAPHost = cfg.EmailIMAPHost
	}
	if cfg.EmailIMAPUsername != "" {
		user.EmailIMAPUsername = cfg.EmailIMAPUsername
	}
	if cfg.EmailIMAPPort != 0 {
		user.EmailIMAPPort = cfg.EmailIMAPPort
	}
	if cfg.EmailIMAPPassword != "" {
		encrypted, err := utils.EncryptSecret(cfg.EmailIMAPPassword)
		if err != nil {
			return fmt.Errorf("failed to encrypt mailbox secret: %w", err)
		}
		user.EmailIMAPPassword = encrypted
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE users SET email_parsing_enabled = $1, email_imap_host = $2,
			email_imap_username = $3, email_imap_password = $4,
			email_imap_port = $5, updated_at = $6
		WHERE id = $7`,
		user.EmailParsingEnabled, user.EmailIMAPHost, user.EmailIMAPUsername,
		user.EmailIMAPPassword, user.EmailIMAPPort, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update email config: %w", err)
	}
	return nil
}

// GetEmailConfig returns the mailbox settings with the secret omitted.
func (s *UserService) GetEmailConfig(ctx context.Context, userID string) (*models.EmailConfig, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	enabled := user.EmailParsingEnabled
	return &models.EmailConfig{
		EmailParsingEnabled: &enabled,
		EmailIMAPHost:       user.EmailIMAPHost,
		EmailIMAPUsername:   user.EmailIMAPUsername,
		EmailIMAPPort:       user.EmailIMAPPort,
	}, nil
}

// DisableEmailParsing turns the mailbox integration off without touching the
// stored credentials.
func (s *UserService) DisableEmailParsing(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET email_parsing_enabled = false, updated_at = $1 WHERE id = $2`,
		time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to disable email parsing: %w", err)
	}
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID, fullName, phoneNumber string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET full_name = $1, phone_number = $2, updated_at = $3 WHERE id = $4`,
		fullName, phoneNumber, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

func (s *UserService) UpdateNotificationPrefs(ctx context.Context, userID string, emailEnabled, budgetAlerts bool) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET email_notifications_enabled = $1, budget_alerts_enabled = $2, updated_at = $3
		WHERE id = $4`, emailEnabled, budgetAlerts, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update notification preferences: %w", err)
	}
	return nil
}

func (s *UserService) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $1, updated_at = $2 WHERE id = $3`,
		passwordHash, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

func (s *UserService) SetTOTPSecret(ctx context.Context, userID, secret string, enabled bool) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET totp_secret = $1, totp_enabled = $2, updated_at = $3 WHERE id = $4`,
		secret, enabled, time.Now(), userID)
	if err != nil {
		return fmt.Errorf("failed to update 2FA settings: %w", err)
	}
	return nil
}

// ============================================================================
// SESSIONS
// ============================================================================

func (s *UserService) CreateSession(ctx context.Context, userID, refreshToken string, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (user_id, refresh_token, expires_at)
		VALUES ($1, $2, $3)`, userID, refreshToken, time.Now().Add(ttl))
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

// GetSessionUser resolves a live refresh token to its user.
func (s *UserService) GetSessionUser(ctx context.Context, refreshToken string) (*models.User, error) {
	var userID string
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id FROM sessions
		WHERE refresh_token = $1 AND expires_at > NOW()`, refreshToken).Scan(&userID)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up session: %w", err)
	}
	return s.GetByID(ctx, userID)
}

func (s *UserService) DeleteSession(ctx context.Context, refreshToken string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE refresh_token = $1`, refreshToken)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// CleanupExpiredSessions is run periodically by the scheduler.
func (s *UserService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up sessions: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}

package models

import "time"

// ============================================================================
// USER MODEL
// ============================================================================

type User struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name,omitempty"`
	PhoneNumber   string    `json:"phone_number,omitempty"`
	PasswordHash  string    `json:"-"` // Never expose in JSON
	TOTPSecret    string    `json:"-"` // Never expose in JSON
	TOTPEnabled   bool      `json:"totp_enabled"`
	EmailVerified bool      `json:"email_verified"`
	IsActive      bool      `json:"is_active"`

	// Email parsing settings. The IMAP password is stored encrypted and is
	// never serialized.
	EmailParsingEnabled bool   `json:"email_parsing_enabled"`
	EmailIMAPHost       string `json:"-"`
	EmailIMAPUsername   string `json:"-"`
	EmailIMAPPassword   string `json:"-"`
	EmailIMAPPort       int    `json:"-"`

	// Notification preferences
	EmailNotificationsEnabled bool `json:"email_notifications_enabled"`
	BudgetAlertsEnabled       bool `json:"budget_alerts_enabled"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ============================================================================
// AUTHENTICATION REQUESTS
// ============================================================================

type SignupRequest struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	FullName string `json:"full_name"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
	TOTPCode string `json:"totp_code,omitempty"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// ============================================================================
// PASSWORD & 2FA
// ============================================================================

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

type TOTPSetupResponse struct {
	Secret string `json:"secret"`
	QRCode string `json:"qr_code"`
}

type VerifyTOTPRequest struct {
	Code string `json:"code" binding:"required,len=6"`
}

// ============================================================================
// EMAIL PARSING CONFIGURATION
// ============================================================================

// EmailConfig is the read/update surface for the per-user mailbox settings.
// The password is write-only: reads always leave it empty.
type EmailConfig struct {
	EmailParsingEnabled *bool  `json:"email_parsing_enabled,omitempty"`
	EmailIMAPHost       string `json:"email_imap_host,omitempty"`
	EmailIMAPUsername   string `json:"email_imap_username,omitempty"`
	EmailIMAPPassword   string `json:"email_imap_password,omitempty"`
	EmailIMAPPort       int    `json:"email_imap_port,omitempty"`
}

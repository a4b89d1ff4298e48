package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/services"
	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

type UserHandler struct {
	Users *services.UserService
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		FullName    string `json:"full_name"`
		PhoneNumber string `json:"phone_number"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Users.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req.FullName, req.PhoneNumber); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated"})
}

func (h *UserHandler) UpdateNotificationPrefs(c *gin.Context) {
	var req struct {
		EmailNotificationsEnabled bool `json:"email_notifications_enabled"`
		BudgetAlertsEnabled       bool `json:"budget_alerts_enabled"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Users.UpdateNotificationPrefs(c.Request.Context(), middleware.GetUserID(c),
		req.EmailNotificationsEnabled, req.BudgetAlertsEnabled); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update preferences"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated"})
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req models.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if !utils.CheckPassword(req.CurrentPassword, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process password"})
		return
	}
	if err := h.Users.UpdatePassword(c.Request.Context(), user.ID, hash); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// SetupTOTP generates a secret and provisioning URL; the secret is only
// activated once VerifyTOTP confirms the user can produce codes.
func (h *UserHandler) SetupTOTP(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	secret, url, err := utils.GenerateTOTPSecret(user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate 2FA secret"})
		return
	}
	if err := h.Users.SetTOTPSecret(c.Request.Context(), user.ID, secret, false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store 2FA secret"})
		return
	}

	c.JSON(http.StatusOK, models.TOTPSetupResponse{Secret: secret, QRCode: url})
}

func (h *UserHandler) VerifyTOTP(c *gin.Context) {
	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if user.TOTPSecret == "" || !utils.VerifyTOTP(user.TOTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
		return
	}

	if err := h.Users.SetTOTPSecret(c.Request.Context(), user.ID, user.TOTPSecret, true); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enable 2FA"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA enabled"})
}

func (h *UserHandler) DisableTOTP(c *gin.Context) {
	var req models.VerifyTOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if !user.TOTPEnabled || !utils.VerifyTOTP(user.TOTPSecret, req.Code) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid 2FA code"})
		return
	}

	if err := h.Users.SetTOTPSecret(c.Request.Context(), user.ID, "", false); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable 2FA"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "2FA disabled"})
}

package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

type EmailParsingHandler struct {
	Users  *services.UserService
	Parser *services.EmailParsingService
	Dialer services.MailDialer
}

// TriggerParse kicks off a mailbox run in the background and acks
// immediately. Misconfiguration is the only error reported synchronously.
func (h *EmailParsingHandler) TriggerParse(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	if _, err := services.MailAccountFor(user); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email parsing is not configured"})
		return
	}

	h.Parser.ParseMailboxAsync(user)
	c.JSON(http.StatusAccepted, gin.H{"message": "Email parsing started"})
}

// Status reports whether parsing is enabled and fully configured, without
// exposing any credential detail.
func (h *EmailParsingHandler) Status(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	_, err = services.MailAccountFor(user)
	c.JSON(http.StatusOK, gin.H{
		"enabled":    user.EmailParsingEnabled,
		"configured": err == nil,
	})
}

func (h *EmailParsingHandler) GetConfig(c *gin.Context) {
	cfg, err := h.Users.GetEmailConfig(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	c.JSON(http.StatusOK, cfg)
}

func (h *EmailParsingHandler) UpdateConfig(c *gin.Context) {
	var req models.EmailConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.Users.UpdateEmailConfig(c.Request.Context(), middleware.GetUserID(c), &req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update email configuration"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email configuration updated"})
}

// TestConnection opens and immediately closes a mailbox session with the
// stored credentials, so the user can verify them without waiting for a run.
func (h *EmailParsingHandler) TestConnection(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	account, err := services.MailAccountFor(user)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email parsing is not configured"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
	defer cancel()

	session, err := h.Dialer.Open(ctx, account)
	if err != nil {
		status := http.StatusBadGateway
		msg := "Could not connect to mail server"
		if errors.Is(err, services.ErrMailAuth) {
			status = http.StatusUnauthorized
			msg = "Mail server rejected the credentials"
		}
		c.JSON(status, gin.H{"error": msg})
		return
	}
	session.Close()

	c.JSON(http.StatusOK, gin.H{"message": "Connection successful"})
}

func (h *EmailParsingHandler) Disable(c *gin.Context) {
	if err := h.Users.DisableEmailParsing(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to disable email parsing"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email parsing disabled"})
}

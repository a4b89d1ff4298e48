package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/utils"
)

// AuthMiddleware validates the Bearer token and stores the authenticated
// identity on the context. WebSocket upgrades cannot set headers, so a
// token query parameter is accepted as a fallback.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ""
		if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimPrefix(auth, "Bearer ")
		} else {
			token = c.Query("token")
		}

		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
			c.Abort()
			return
		}

		claims, err := utils.ValidateAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// GetUserID returns the authenticated user ID stored by AuthMiddleware.
func GetUserID(c *gin.Context) string {
	if id, ok := c.Get("user_id"); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

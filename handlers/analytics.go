package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

type AnalyticsHandler struct {
	Analytics *services.AnalyticsService
}

// MonthlySummary returns one calendar month's aggregate; defaults to the
// current month.
func (h *AnalyticsHandler) MonthlySummary(c *gin.Context) {
	now := time.Now()
	year, _ := strconv.Atoi(c.DefaultQuery("year", strconv.Itoa(now.Year())))
	monthNum, _ := strconv.Atoi(c.DefaultQuery("month", strconv.Itoa(int(now.Month()))))
	if monthNum < 1 || monthNum > 12 || year < 2000 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid year or month"})
		return
	}

	summary, err := h.Analytics.MonthlySummary(c.Request.Context(), middleware.GetUserID(c), year, time.Month(monthNum))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
		return
	}
	c.JSON(http.StatusOK, summary)
}

// SpendingByCategory aggregates an arbitrary from/to window.
func (h *AnalyticsHandler) SpendingByCategory(c *gin.Context) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
		return
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
		return
	}

	spends, err := h.Analytics.SpendingByCategory(c.Request.Context(), middleware.GetUserID(c), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate spending"})
		return
	}
	c.JSON(http.StatusOK, spends)
}

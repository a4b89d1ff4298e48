package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

type BudgetHandler struct {
	Budgets *services.BudgetService
}

func (h *BudgetHandler) Create(c *gin.Context) {
	var req models.BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	budget, err := budgetFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.Budgets.Create(c.Request.Context(), middleware.GetUserID(c), budget)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create budget"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *BudgetHandler) List(c *gin.Context) {
	budgets, err := h.Budgets.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list budgets"})
		return
	}
	c.JSON(http.StatusOK, budgets)
}

// Status returns each active budget with its current consumption.
func (h *BudgetHandler) Status(c *gin.Context) {
	statuses, err := h.Budgets.StatusFor(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute budget status"})
		return
	}
	c.JSON(http.StatusOK, statuses)
}

func (h *BudgetHandler) Update(c *gin.Context) {
	var req models.BudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	budget, err := budgetFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err = h.Budgets.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), budget)
	if errors.Is(err, services.ErrBudgetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update budget"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget updated"})
}

func (h *BudgetHandler) Delete(c *gin.Context) {
	err := h.Budgets.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrBudgetNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Budget not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete budget"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted"})
}

func budgetFromRequest(req *models.BudgetRequest) (*models.Budget, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, errors.New("amount must be a positive number")
	}
	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, errors.New("start_date must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, errors.New("end_date must be YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, errors.New("end_date must not be before start_date")
	}
	return &models.Budget{
		Name:           req.Name,
		CategoryID:     req.CategoryID,
		Amount:         amount,
		StartDate:      start,
		EndDate:        end,
		AlertThreshold: req.AlertThreshold,
	}, nil
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

type TransactionHandler struct {
	Transactions *services.TransactionService
}

func (h *TransactionHandler) Create(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := transactionFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tx.UserID = middleware.GetUserID(c)
	tx.Source = models.SourceManual

	saved, err := h.Transactions.Save(c.Request.Context(), tx)
	if errors.Is(err, services.ErrCategoryNotFound) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create transaction"})
		return
	}
	c.JSON(http.StatusCreated, saved)
}

func (h *TransactionHandler) List(c *gin.Context) {
	filter := models.TransactionFilter{}
	if from := c.Query("from"); from != "" {
		t, err := time.Parse("2006-01-02", from)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid from date"})
			return
		}
		filter.From = t
	}
	if to := c.Query("to"); to != "" {
		t, err := time.Parse("2006-01-02", to)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid to date"})
			return
		}
		filter.To = t
	}
	filter.CategoryID = c.Query("category_id")
	filter.Source = models.TransactionSource(c.Query("source"))
	if limit := c.Query("limit"); limit != "" {
		n, err := strconv.Atoi(limit)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
			return
		}
		filter.Limit = n
	}

	transactions, err := h.Transactions.List(c.Request.Context(), middleware.GetUserID(c), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list transactions"})
		return
	}
	c.JSON(http.StatusOK, transactions)
}

func (h *TransactionHandler) Get(c *gin.Context) {
	tx, err := h.Transactions.GetByID(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrTransactionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get transaction"})
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (h *TransactionHandler) Update(c *gin.Context) {
	var req models.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tx, err := transactionFromRequest(&req)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.Transactions.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), tx)
	switch {
	case errors.Is(err, services.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update transaction"})
	default:
		c.JSON(http.StatusOK, updated)
	}
}

func (h *TransactionHandler) Delete(c *gin.Context) {
	err := h.Transactions.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrTransactionNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete transaction"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

func transactionFromRequest(req *models.CreateTransactionRequest) (*models.Transaction, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || !amount.IsPositive() {
		return nil, errors.New("amount must be a positive number")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, errors.New("date must be YYYY-MM-DD")
	}
	return &models.Transaction{
		Description:   req.Description,
		Amount:        amount,
		Date:          date,
		PaymentMethod: models.ParsePaymentMethod(req.PaymentMethod),
		CategoryID:    req.CategoryID,
		Notes:         req.Notes,
	}, nil
}

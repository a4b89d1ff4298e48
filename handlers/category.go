package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/models"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

type CategoryHandler struct {
	Categories *services.CategoryService
}

func (h *CategoryHandler) List(c *gin.Context) {
	categories, err := h.Categories.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *CategoryHandler) Create(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.Categories.Insert(c.Request.Context(), middleware.GetUserID(c), &req)
	if errors.Is(err, services.ErrCategoryExists) {
		c.JSON(http.StatusConflict, gin.H{"error": "Category already exists"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create category"})
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *CategoryHandler) Update(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	category, err := h.Categories.Update(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), &req)
	switch {
	case errors.Is(err, services.ErrCategoryNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
	case errors.Is(err, services.ErrCategoryExists):
		c.JSON(http.StatusConflict, gin.H{"error": "Category name already in use"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update category"})
	default:
		c.JSON(http.StatusOK, category)
	}
}

func (h *CategoryHandler) Delete(c *gin.Context) {
	err := h.Categories.Delete(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if errors.Is(err, services.ErrCategoryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Anmolmahajn/money-tracker-backend/middleware"
	"github.com/Anmolmahajn/money-tracker-backend/services"
)

// 5 MB is plenty for a statement export.
const maxCSVSize = 5 << 20

type CSVHandler struct {
	Users    *services.UserService
	Importer *services.CSVImportService
}

// Import accepts a multipart upload under the "file" field and imports its
// rows synchronously, returning a per-row result summary.
func (h *CSVHandler) Import(c *gin.Context) {
	user, err := h.Users.GetByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file upload"})
		return
	}
	if fileHeader.Size > maxCSVSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File exceeds 5 MB limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read upload"})
		return
	}
	defer file.Close()

	result, err := h.Importer.Import(c.Request.Context(), user, fileHeader.Filename, file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Template serves a downloadable CSV skeleton with the expected columns.
func (h *CSVHandler) Template(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="transactions_template.csv"`)
	c.Data(http.StatusOK, "text/csv", []byte(services.CSVTemplate))
}

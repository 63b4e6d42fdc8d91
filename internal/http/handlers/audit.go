package handlers

import (
	"net/http"
	"strconv"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/repository"

	"github.com/gin-gonic/gin"
)

// AuditHandler exposes the persisted audit trail. Only registered when
// the server runs on postgres.
type AuditHandler struct {
	repo *repository.AuditRepository
}

func NewAuditHandler(repo *repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// MyAudit returns the caller's recent audit entries.
func (h *AuditHandler) MyAudit(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.repo.GetByUserID(c.Request.Context(), userID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit load failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

// ByCategory returns recent audit entries for one category.
func (h *AuditHandler) ByCategory(c *gin.Context) {
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	entries, err := h.repo.GetByCategory(c.Request.Context(), c.Param("category"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "audit load failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

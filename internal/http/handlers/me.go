package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (h *Handler) Me(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	acct, err := h.Store.Read(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account load failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":            acct.UserID,
		"rank":          acct.Rank,
		"points":        acct.Points,
		"balance":       acct.Balance,
		"totems":        acct.Totems,
		"is_suspended":  acct.IsSuspended,
		"remaining_ms":  acct.Remaining(time.Now()).Milliseconds(),
		"created_at":    acct.CreatedAt,
		"notifications": acct.Notifications,
	})
}

// History returns the record-resident transaction history, newest
// first.
func (h *Handler) History(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	acct, err := h.Store.Read(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account load failed"})
		return
	}

	history := acct.History
	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Heartbeat advances the caller's activity counter state machine and
// reports the result. Clients poll this endpoint while the app is open.
func (h *Handler) Heartbeat(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Counter.Heartbeat(c.Request.Context(), userID)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// RefreshCounter tops the activity counter up for points.
func (h *Handler) RefreshCounter(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Counter.Refresh(c.Request.Context(), userID)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

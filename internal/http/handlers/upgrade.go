package handlers

import (
	"net/http"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"

	"github.com/gin-gonic/gin"
)

// Ranks returns the static rank table in canonical order.
func (h *Handler) Ranks(c *gin.Context) {
	defs := make([]rank.Definition, 0, len(rank.Order))
	for _, id := range rank.Order {
		def, _ := rank.Get(id)
		defs = append(defs, def)
	}
	c.JSON(http.StatusOK, gin.H{"ranks": defs})
}

// UpgradeStatus returns the caller's position in the rank order and
// what the next step costs.
func (h *Handler) UpgradeStatus(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	status, err := h.Upgrades.Status(c.Request.Context(), userID)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

type UpgradeRequest struct {
	Rank string `json:"rank" binding:"required"`
}

// Upgrade moves the caller to the requested rank.
func (h *Handler) Upgrade(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req UpgradeRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	res, err := h.Upgrades.Upgrade(c.Request.Context(), userID, rank.ID(req.Rank))
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

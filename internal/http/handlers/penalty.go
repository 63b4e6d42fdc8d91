package handlers

import (
	"net/http"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"

	"github.com/gin-gonic/gin"
)

// PenaltyQuote returns what reactivation currently costs the caller.
func (h *Handler) PenaltyQuote(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	quote, err := h.Penalty.Quote(c.Request.Context(), userID)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// PayPenalty reactivates the caller's suspended account against a
// confirmed payment.
func (h *Handler) PayPenalty(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var pay domain.PaymentConfirmation
	if err := c.BindJSON(&pay); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	res, err := h.Penalty.PayPenalty(c.Request.Context(), userID, pay)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

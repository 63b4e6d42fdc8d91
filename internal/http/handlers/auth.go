package handlers

import (
	"net/http"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

// Auth issues a session token for a user id. Identity verification is
// the upstream gateway's job; this service only names the account the
// token operates on.
func (h *Handler) Auth(c *gin.Context) {
	var req AuthRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	token, err := service.GenerateJWT(req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token generation failed"})
		return
	}

	// materialize the default record on first contact
	acct, err := h.Store.Read(c.Request.Context(), req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account load failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user": gin.H{
			"id":      acct.UserID,
			"rank":    acct.Rank,
			"points":  acct.Points,
			"balance": acct.Balance,
		},
	})
}

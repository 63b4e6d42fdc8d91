package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/domain"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/rank"

	"github.com/gin-gonic/gin"
)

// BuyTotem converts points into one totem.
func (h *Handler) BuyTotem(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Economy.BuyTotem(c.Request.Context(), userID)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// ListAds returns the current ad inventory.
func (h *Handler) ListAds(c *gin.Context) {
	ads, err := h.Economy.ListAds(c.Request.Context())
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ads": ads})
}

type CreateAdRequest struct {
	Title     string `json:"title" binding:"required"`
	TargetURL string `json:"target_url" binding:"required"`
}

// CreateAd registers a new ad for the caller. The monthly visit budget
// and the slot limit come from the caller's rank.
func (h *Handler) CreateAd(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req CreateAdRequest
	if err := c.BindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	acct, err := h.Store.Read(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "account load failed"})
		return
	}
	ad := &domain.Ad{
		ID:               newAdID(),
		OwnerID:          userID,
		OwnerRank:        acct.Rank,
		Title:            req.Title,
		TargetURL:        req.TargetURL,
		MonthlyRemaining: rank.MonthlyAdVisitsFor(acct.Rank),
	}
	if err := h.Economy.CreateAd(c.Request.Context(), ad, rank.AdPackageSlotsFor(acct.Rank)); err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

// ClaimAdPoints credits the viewer's per-ad point reward.
func (h *Handler) ClaimAdPoints(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res, err := h.Economy.ClaimAdPoints(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// VisitAd charges one served visit against the ad's budget.
func (h *Handler) VisitAd(c *gin.Context) {
	ad, err := h.Economy.ConsumeAdVisit(c.Request.Context(), c.Param("id"))
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":          ad.ID,
		"target_url":  ad.TargetURL,
		"visits_left": ad.VisitsLeft(),
	})
}

type AdPackageRequest struct {
	Visits int `json:"visits" binding:"required"`
}

// BuyAdPackage credits purchased visits to the ad's package pool.
func (h *Handler) BuyAdPackage(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var req AdPackageRequest
	if err := c.BindJSON(&req); err != nil || req.Visits <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad request"})
		return
	}

	ad, err := h.Economy.BuyAdPackage(c.Request.Context(), userID, c.Param("id"), req.Visits)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, ad)
}

// Deposit credits a confirmed payment to the caller's balance.
func (h *Handler) Deposit(c *gin.Context) {
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

	acct, err := h.Economy.Deposit(c.Request.Context(), userID, pay)
	if err != nil {
		rejectJSON(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance": acct.Balance})
}

func newAdID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "ad_" + hex.EncodeToString(buf)
}

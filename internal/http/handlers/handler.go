package handlers

import (
	"net/http"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Handler bundles the account services behind the HTTP surface. DB is
// nil when the server runs on the in-memory ledger.
type Handler struct {
	DB    *pgxpool.Pool
	Store ledger.Store

	Upgrades *service.UpgradeService
	Counter  *service.CounterService
	Economy  *service.EconomyService
	Penalty  *service.PenaltyService
}

func NewHandler(db *pgxpool.Pool, store ledger.Store, upgrades *service.UpgradeService, counter *service.CounterService, economy *service.EconomyService, penalty *service.PenaltyService) *Handler {
	return &Handler{
		DB:       db,
		Store:    store,
		Upgrades: upgrades,
		Counter:  counter,
		Economy:  economy,
		Penalty:  penalty,
	}
}

// getUserID extracts the authenticated user id set by the JWT
// middleware.
func getUserID(c *gin.Context) (string, bool) {
	uidVal, ok := c.Get("user_id")
	if !ok {
		return "", false
	}
	userID, ok := uidVal.(string)
	if !ok || userID == "" {
		return "", false
	}
	return userID, true
}

// rejectJSON renders a service error: known rejections surface their
// reason code with a client status, everything else is a 500.
func rejectJSON(c *gin.Context, err error) {
	switch {
	case err == service.ErrAdNotFound:
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err == service.ErrUnknownRank:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case service.IsRejection(err):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

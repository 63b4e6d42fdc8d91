package http

import (
	"os"
	"strconv"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/http/handlers"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/http/middleware"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/repository"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ws"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handler, version string) {
	healthHandler := handlers.NewHealthHandler(h.DB, version)

	// read limits from env, with safe defaults
	apiRateLimit := 30
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateLimit = n
		}
	}
	apiRateWindow := time.Minute
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			apiRateWindow = time.Duration(n) * time.Second
		}
	}

	authRateLimit := 5
	if v := os.Getenv("AUTH_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateLimit = n
		}
	}
	authRateWindow := time.Minute
	if v := os.Getenv("AUTH_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			authRateWindow = time.Duration(n) * time.Second
		}
	}

	// state-changing economy calls, limited per user
	economyRateLimit := 60
	if v := os.Getenv("ECONOMY_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			economyRateLimit = n
		}
	}
	economyRateWindow := time.Minute

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.RedisRateLimit(apiRateLimit, apiRateWindow))

	// Auth, double-limited: Redis when available, in-process always
	v1.POST("/auth",
		middleware.RedisRateLimit(authRateLimit, authRateWindow),
		middleware.SimpleRateLimit(authRateLimit, authRateWindow),
		h.Auth)

	// Account
	v1.GET("/me", middleware.JWT(), h.Me)
	v1.GET("/me/history", middleware.JWT(), h.History)

	// Ranks and upgrades
	v1.GET("/ranks", h.Ranks)
	upgrade := v1.Group("/upgrade")
	{
		upgrade.GET("/status", middleware.JWT(), h.UpgradeStatus)
		upgrade.POST("", middleware.JWT(), h.Upgrade)
	}

	// Activity counter
	economyRL := middleware.UserRateLimit(economyRateLimit, economyRateWindow)
	counter := v1.Group("/counter")
	counter.Use(middleware.JWT())
	{
		counter.GET("/heartbeat", h.Heartbeat)
		counter.POST("/refresh", economyRL, h.RefreshCounter)
	}

	// Point economy
	v1.POST("/totems/buy", middleware.JWT(), economyRL, h.BuyTotem)
	v1.POST("/deposit", middleware.JWT(), economyRL, h.Deposit)

	// Ads
	ads := v1.Group("/ads")
	{
		ads.GET("", h.ListAds)
		ads.POST("", middleware.JWT(), economyRL, h.CreateAd)
		ads.POST("/:id/claim", middleware.JWT(), economyRL, h.ClaimAdPoints)
		ads.POST("/:id/visit", h.VisitAd)
		ads.POST("/:id/package", middleware.JWT(), economyRL, h.BuyAdPackage)
	}

	// Penalty / reactivation
	penalty := v1.Group("/penalty")
	penalty.Use(middleware.JWT())
	{
		penalty.GET("/quote", h.PenaltyQuote)
		penalty.POST("/pay", economyRL, h.PayPenalty)
	}

	// Audit trail, persisted variant only
	if h.DB != nil {
		auditHandler := handlers.NewAuditHandler(repository.NewAuditRepository(h.DB))
		v1.GET("/me/audit", middleware.JWT(), auditHandler.MyAudit)
		v1.GET("/audit/:category", auditHandler.ByCategory)
	}

	// WebSocket counter status feed
	feed := ws.NewFeed(h.Counter)
	r.GET("/ws", h.WS(feed))
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/config"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/db"
	httpServer "github.com/siryogo2014/yigicoin-db-sub000/internal/http"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/http/handlers"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/http/middleware"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/logger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/repository"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var version = "dev"

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	cfg := config.Load()
	service.InitJWT(cfg.JWTSecret)

	// storage: postgres when configured, in-memory otherwise
	var (
		pool  *pgxpool.Pool
		store ledger.Store
		ads   service.AdInventory
		audit service.AuditSink
	)
	if cfg.DatabaseURL != "" {
		pool = db.Connect(cfg.DatabaseURL)
		defer pool.Close()
		store = ledger.NewPostgresStore(pool, cfg.SeedBalance)
		ads = repository.NewAdRepository(pool)
		audit = repository.NewAuditRepository(pool)
	} else {
		logger.Warn("DATABASE_URL not set, running on the in-memory ledger")
		store = ledger.NewMemoryStore(cfg.SeedBalance)
		ads = repository.NewMemoryAdInventory()
		audit = service.NewLogAuditSink()
	}

	h := handlers.NewHandler(pool, store,
		service.NewUpgradeService(store, audit),
		service.NewCounterService(store, audit, cfg.RefreshCost, cfg.RefreshBonus),
		service.NewEconomyService(store, ads, audit, cfg.TotemCost, cfg.MaxTotems, cfg.PointsPerAd),
		service.NewPenaltyService(store, audit, cfg.PenaltyBase, cfg.PenaltyEscalated, cfg.PenaltyGrace),
	)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	middleware.InitRedisRateLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, h, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}

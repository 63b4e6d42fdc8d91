package config

import (
	"os"
	"strconv"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     string
	DatabaseURL string // empty runs the in-memory ledger
	JWTSecret   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Economy tunables
	SeedBalance  float64
	TotemCost    int64
	MaxTotems    int
	RefreshCost  int64
	RefreshBonus time.Duration
	PointsPerAd  int64

	// Penalty tunables
	PenaltyBase      float64
	PenaltyEscalated float64
	PenaltyGrace     time.Duration
}

// Load reads configuration from the environment, with .env support for
// local runs.
func Load() *Config {
	_ = godotenv.Load()

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	cfg := &Config{
		AppPort:     port,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   jwtSecret,

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		SeedBalance:  100,
		TotemCost:    50,
		MaxTotems:    10,
		RefreshCost:  40,
		RefreshBonus: 10 * time.Minute,
		PointsPerAd:  2,

		PenaltyBase:      25,
		PenaltyEscalated: 50,
		PenaltyGrace:     72 * time.Hour,
	}

	if v := os.Getenv("SEED_BALANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			cfg.SeedBalance = f
		}
	}
	if v := os.Getenv("TOTEM_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.TotemCost = n
		}
	}
	if v := os.Getenv("MAX_TOTEMS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.MaxTotems = n
		}
	}
	if v := os.Getenv("REFRESH_COST"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.RefreshCost = n
		}
	}
	if v := os.Getenv("REFRESH_BONUS_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.RefreshBonus = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("POINTS_PER_AD"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.PointsPerAd = n
		}
	}
	if v := os.Getenv("PENALTY_BASE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.PenaltyBase = f
		}
	}
	if v := os.Getenv("PENALTY_ESCALATED"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.PenaltyEscalated = f
		}
	}
	if v := os.Getenv("PENALTY_GRACE_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.PenaltyGrace = time.Duration(n) * time.Hour
		}
	}

	return cfg
}

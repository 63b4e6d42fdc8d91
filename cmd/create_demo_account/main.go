package main

import (
	"context"
	"log"
	"os"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/db"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/ledger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"
)

func main() {
	// expects DATABASE_URL and JWT_SECRET env vars
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL not set")
	}
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	userID := os.Getenv("DEMO_USER_ID")
	if userID == "" {
		userID = "demo"
	}

	pool := db.Connect(dsn)
	defer pool.Close()

	store := ledger.NewPostgresStore(pool, 100)
	ctx := context.Background()

	acct, err := store.Read(ctx, userID)
	if err != nil {
		log.Fatalf("load account: %v", err)
	}
	log.Printf("account id=%s rank=%s points=%d balance=%v totems=%d\n",
		acct.UserID, acct.Rank, acct.Points, acct.Balance, acct.Totems)

	service.InitJWT(secret)
	token, err := service.GenerateJWT(userID)
	if err != nil {
		log.Fatalf("failed to generate token: %v", err)
	}
	log.Printf("token=%s\n", token)
}

package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gorilla/websocket"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"
)

// Connects to a running server and watches the counter status feed for
// a few seconds.
func main() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	userID := os.Getenv("SMOKE_USER_ID")
	if userID == "" {
		userID = "smoke"
	}

	service.InitJWT(secret)
	token, err := service.GenerateJWT(userID)
	if err != nil {
		log.Fatalf("gen token: %v", err)
	}

	// use 127.0.0.1 to prefer IPv4 (avoid resolving to [::1])
	wsURL := fmt.Sprintf("ws://127.0.0.1:%s/ws?token=%s", port, token)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		log.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		conn.SetReadDeadline(deadline)
		_, msg, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("read: %v", err)
		}

		var frame struct {
			Type string `json:"type"`
			Data struct {
				Status      string `json:"status"`
				RemainingMs int64  `json:"remaining_ms"`
				Totems      int    `json:"totems"`
			} `json:"data"`
		}
		if err := json.Unmarshal(msg, &frame); err != nil {
			log.Printf("skip frame: %v", err)
			continue
		}
		log.Printf("status=%s remaining_ms=%d totems=%d",
			frame.Data.Status, frame.Data.RemainingMs, frame.Data.Totems)
	}
	log.Println("smoke done")
}

package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/siryogo2014/yigicoin-db-sub000/internal/logger"
	"github.com/siryogo2014/yigicoin-db-sub000/internal/service"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 30 * time.Second
	pingPeriod = 25 * time.Second

	// pushPeriod is how often the counter status is pushed to the
	// client. The heartbeat itself is idempotent, so a tight period is
	// safe.
	pushPeriod = time.Second
)

// Feed streams the activity counter status to connected clients. Every
// push runs a real heartbeat, so an expired counter is handled (totem
// consumed or account suspended) even while the client only watches.
type Feed struct {
	counter *service.CounterService
}

func NewFeed(counter *service.CounterService) *Feed {
	return &Feed{counter: counter}
}

// statusMessage is the wire frame pushed to the client.
type statusMessage struct {
	Type string                   `json:"type"`
	Data *service.HeartbeatResult `json:"data"`
}

// Serve drives one client connection until it drops. Blocks; run it in
// its own goroutine per connection.
func (f *Feed) Serve(userID string, conn *websocket.Conn) {
	done := make(chan struct{})

	// read pump: we expect no frames from the client, only pongs and
	// the eventual close
	go func() {
		defer close(done)
		conn.SetReadLimit(512)
		conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	push := time.NewTicker(pushPeriod)
	ping := time.NewTicker(pingPeriod)
	defer func() {
		push.Stop()
		ping.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-done:
			return

		case <-push.C:
			ctx, cancel := context.WithTimeout(context.Background(), writeWait)
			res, err := f.counter.Heartbeat(ctx, userID)
			cancel()
			if err != nil {
				logger.Warn("ws heartbeat failed", "user_id", userID, "error", err)
				continue
			}

			frame, err := json.Marshal(statusMessage{Type: "counter_status", Data: res})
			if err != nil {
				continue
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}

		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

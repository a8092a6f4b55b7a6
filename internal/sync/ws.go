package sync

import (
	"log"
	"net/http"

	"family-meal-planner/internal/shopping"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // clients authenticate with a token
	},
}

// WSHandler upgrades the request, sends the current list and then streams
// every update until the client goes away.
func WSHandler(hub *Hub, live *shopping.LiveList) gin.HandlerFunc {
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}

		snapshot := func() any { return NewListEvent(live.Items()) }
		if err := hub.AddWithSnapshot(ws, snapshot); err != nil {
			_ = ws.Close()
			return
		}
		log.Println("[ws] client connected")

		// Incoming messages are ignored; reading detects the close.
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				break
			}
		}

		hub.Remove(ws)
		log.Println("[ws] client disconnected")
	}
}

package bridge

import (
	"net/http"

	"github.com/framez-app/framez-go/livequery"
	Logger "github.com/framez-app/framez-go/utils/log"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	// The bridge only ever serves the local UI harness.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// feedSocket streams live feed snapshots to the harness. Each message is the
// complete ordered feed; the client replaces its state wholesale.
func (s *Server) feedSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		Logger.Log.Warnf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	stream, err := livequery.OpenPostStream(c.Request.Context(), s.Store, livequery.FeedQuery())
	if err != nil {
		// No data yet; close the socket and let the client retry.
		return
	}
	defer stream.Close()

	// Drain client frames so close handshakes are noticed.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				stream.Close()
				return
			}
		}
	}()

	for snapshot := range stream.C {
		if err := conn.WriteJSON(gin.H{"posts": snapshot}); err != nil {
			return
		}
	}
}

package handler

import (
	"net/http"

	"complaintbot/backend/internal/hub"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Дашборд може жити на іншому домені; доступ захищено токеном.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeFeed upgrades an authorized request to the moderation feed websocket.
func (h *Handler) ServeFeed(c *gin.Context) {
	if h.Feed == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "feed is not configured"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade вже відповів клієнту
		h.log.Warn("feed upgrade failed", zap.Error(err))
		return
	}

	client := hub.NewFeedConn(h.ctx, conn, h.Feed, h.log)
	select {
	case h.Feed.RegisterCh <- client:
	case <-h.ctx.Done():
		conn.Close()
		return
	}
	client.Run()
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"accident-dashboard-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// DatasetWebSocket streams dataset reload events. The first message is the
// current dataset status.
func DatasetWebSocket(cache *services.CacheService, auth *services.AuthService, dataset *services.DatasetService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := c.Query("token")
		if tokenStr == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token query parameter"})
			return
		}
		if _, err := auth.ValidateToken(tokenStr); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}
		if !cache.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "live updates need redis"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, services.DatasetChannel)
		defer pubsub.Close()
		ch := pubsub.Channel()

		if err := conn.WriteJSON(gin.H{"type": "dataset_status", "data": dataset.Status()}); err != nil {
			return
		}

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev services.DatasetEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					logger.Warn("bad dataset event", zap.Error(err))
					continue
				}
				if err := conn.WriteJSON(gin.H{"type": ev.Type, "data": ev}); err != nil {
					logger.Debug("ws write error", zap.Error(err))
					return
				}
			}
		}
	}
}

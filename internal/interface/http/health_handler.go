package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"message":   "pong",
		"timestamp": time.Now().Unix(),
		"status":    "alive",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	dbStatus := "using_memory"
	if s.db != nil {
		dbStatus = "ok"
		if err := s.db.PingContext(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}
	redisStatus := "disabled"
	if s.redis != nil {
		redisStatus = "ok"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "error: " + err.Error()
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"health":          "ok",
		"db":              dbStatus,
		"redis":           redisStatus,
		"session_backend": s.backend,
		"time":            time.Now().Format(time.RFC3339),
	})
}

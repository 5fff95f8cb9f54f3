package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/fftools/likebot/internal/redisclient"
	"github.com/fftools/likebot/internal/services"
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// HealthHandler reports liveness of the process and its dependencies.
type HealthHandler struct {
	db       *mongo.Database
	redis    *redisclient.Client
	notifier *services.Notifier
}

// NewHealthHandler builds the health endpoint. Redis is optional and is
// skipped from the report when nil.
func NewHealthHandler(db *mongo.Database, redis *redisclient.Client, notifier *services.Notifier) *HealthHandler {
	return &HealthHandler{db: db, redis: redis, notifier: notifier}
}

// Health godoc
// @Summary Service health
// @Description Pings MongoDB and Redis and reports the notifier queue state.
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true

	if err := h.db.Client().Ping(pingCtx, readpref.Primary()); err != nil {
		checks["mongodb"] = "unreachable"
		healthy = false
	} else {
		checks["mongodb"] = "ok"
	}

	if h.redis != nil {
		if err := h.redis.Ping(pingCtx).Err(); err != nil {
			checks["redis"] = "unreachable"
			healthy = false
		} else {
			checks["redis"] = "ok"
		}
	}

	stats := h.notifier.Stats()
	checks["notifier"] = gin.H{
		"healthy":    h.notifier.IsHealthy(),
		"queue_size": stats.QueueSize,
		"processed":  stats.JobsProcessed,
		"dropped":    stats.JobsDropped,
	}
	if !h.notifier.IsHealthy() {
		healthy = false
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{"healthy": healthy, "checks": checks})
}

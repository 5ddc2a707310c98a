package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nidohq/nido-sync/internal/queue"
	syncpkg "github.com/nidohq/nido-sync/internal/sync"
)

// HandleCalendarWebhook accepts provider push notifications. The provider
// expects a 2xx regardless of whether we still track the channel; anything
// else triggers provider-side retries for notifications we will never want.
func (r *Router) HandleCalendarWebhook(c *gin.Context) {
	n := syncpkg.Notification{
		ChannelID:     c.GetHeader("X-Goog-Channel-ID"),
		ResourceState: c.GetHeader("X-Goog-Resource-State"),
		ResourceID:    c.GetHeader("X-Goog-Resource-ID"),
		MessageNumber: c.GetHeader("X-Goog-Message-Number"),
	}

	if n.ChannelID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing channel id"})
		return
	}

	if err := r.reconciler.HandleNotification(c.Request.Context(), n); err != nil {
		// Reconciliation errors are ours to resolve; the provider already
		// delivered successfully.
		r.logger.Error("webhook_reconcile_failed",
			zap.String("channel_id", n.ChannelID),
			zap.Error(err),
		)
	}

	c.Status(http.StatusOK)
}

type enqueueRequest struct {
	EventType string `json:"eventType" binding:"required"`
	EventData any    `json:"eventData"`
}

func (r *Router) EnqueueEvent(c *gin.Context) {
	var req enqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	payload := "{}"
	if req.EventData != nil {
		raw, err := json.Marshal(req.EventData)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event data"})
			return
		}
		payload = string(raw)
	}

	id, err := r.queueSvc.Enqueue(c.Request.Context(), queue.EventType(req.EventType), payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"id": strconv.FormatInt(id, 10)})
}

func (r *Router) GetQueueStats(c *gin.Context) {
	stats, err := r.queueSvc.Stats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

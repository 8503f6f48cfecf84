package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

const (
	defaultDequeueWait = 2 * time.Second
	maxDequeueWait     = 10 * time.Second
)

// QueueHandler serves the order queue to checkout and executor nodes.
type QueueHandler struct {
	queue OrderQueue
}

func NewQueueHandler(queue OrderQueue) *QueueHandler {
	return &QueueHandler{queue: queue}
}

// Enqueue handles POST /rpc/queue/enqueue.
func (h *QueueHandler) Enqueue(c *gin.Context) {
	var order model.Order
	if err := c.ShouldBindJSON(&order); err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	if err := h.queue.Enqueue(c.Request.Context(), order); err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Dequeue handles POST /rpc/queue/dequeue?timeout=2s. It answers 204 when
// nothing arrives within the wait.
func (h *QueueHandler) Dequeue(c *gin.Context) {
	wait, err := dequeueWait(c.Query("timeout"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err)
		return
	}
	order, ok, err := h.queue.Dequeue(c.Request.Context(), wait)
	if err != nil {
		abortWithError(c, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, order)
}

func dequeueWait(raw string) (time.Duration, error) {
	if raw == "" {
		return defaultDequeueWait, nil
	}
	wait, err := time.ParseDuration(raw)
	if err != nil || wait < 0 {
		return 0, fmt.Errorf("invalid timeout %q", raw)
	}
	if wait > maxDequeueWait {
		wait = maxDequeueWait
	}
	return wait, nil
}

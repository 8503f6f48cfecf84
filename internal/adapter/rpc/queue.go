package rpc

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

// QueueClient reaches a remote order queue.
type QueueClient struct {
	baseURL string
	t       *Transport
}

func NewQueueClient(baseURL string, t *Transport) *QueueClient {
	return &QueueClient{baseURL: baseURL, t: t}
}

func (c *QueueClient) Enqueue(ctx context.Context, order model.Order) error {
	_, err := c.t.Call(ctx, c.baseURL, "/rpc/queue/enqueue", nil, order, nil)
	return err
}

// Dequeue waits up to timeout on the remote side. A 204 answer means empty.
func (c *QueueClient) Dequeue(ctx context.Context, timeout time.Duration) (model.Order, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout+c.t.timeout)
	defer cancel()

	var order model.Order
	query := url.Values{"timeout": []string{timeout.String()}}
	status, err := c.t.Call(ctx, c.baseURL, "/rpc/queue/dequeue", query, nil, &order)
	if err != nil {
		return model.Order{}, false, err
	}
	if status == http.StatusNoContent {
		return model.Order{}, false, nil
	}
	return order, true, nil
}

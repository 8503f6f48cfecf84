package rpc

import (
	"context"
	"fmt"

	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// InventoryClient reaches the stock endpoints of a remote inventory node. It
// also serves as a replication backup.
type InventoryClient struct {
	baseURL string
	t       *Transport
}

func NewInventoryClient(baseURL string, t *Transport) *InventoryClient {
	return &InventoryClient{baseURL: baseURL, t: t}
}

// Name identifies the backup in replication results.
func (c *InventoryClient) Name() string { return c.baseURL }

func (c *InventoryClient) Read(ctx context.Context, title string) (int, bool, error) {
	res, err := c.call(ctx, "read", dto.StockRequest{Title: title})
	if err != nil {
		return 0, false, err
	}
	return res.Stock, res.Found, nil
}

// Write overwrites stock on the remote node.
func (c *InventoryClient) Write(ctx context.Context, title string, stock int) error {
	res, err := c.call(ctx, "write", dto.StockRequest{Title: title, Stock: stock})
	if err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("write %q rejected by %s", title, c.baseURL)
	}
	return nil
}

func (c *InventoryClient) Decrement(ctx context.Context, title string, amount int) (bool, error) {
	res, err := c.call(ctx, "decrement", dto.StockRequest{Title: title, Amount: amount})
	return res.Success, err
}

func (c *InventoryClient) Increment(ctx context.Context, title string, amount int) (bool, error) {
	res, err := c.call(ctx, "increment", dto.StockRequest{Title: title, Amount: amount})
	return res.Success, err
}

func (c *InventoryClient) call(ctx context.Context, op string, in dto.StockRequest) (dto.StockResult, error) {
	var out dto.StockResult
	_, err := c.t.Call(ctx, c.baseURL, "/rpc/inventory/"+op, nil, in, &out)
	return out, err
}

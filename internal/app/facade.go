package app

import (
	"context"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
	"github.com/vusallyv/ds-practice-2025/internal/usecase"
)

// NodeFacade exposes node operations to HTTP handlers.
type NodeFacade struct {
	checkout *usecase.CheckoutUseCase
	stock    StockReader
	node     *Node
}

func NewNodeFacade(checkout *usecase.CheckoutUseCase, stock StockReader, node *Node) *NodeFacade {
	return &NodeFacade{checkout: checkout, stock: stock, node: node}
}

func (f *NodeFacade) Checkout(ctx context.Context, order model.Order) (model.OrderResult, error) {
	return f.checkout.Checkout(ctx, order)
}

func (f *NodeFacade) Result(ctx context.Context, orderID string) (*model.OrderResult, error) {
	return f.checkout.Result(ctx, orderID)
}

func (f *NodeFacade) Stock(ctx context.Context, title string) (int, bool, error) {
	return f.stock.Read(ctx, title)
}

func (f *NodeFacade) Health(context.Context) dto.HealthResponse {
	h := f.node.Health()
	resp := dto.HealthResponse{NodeID: h.NodeID, Roles: h.Roles}
	if h.LeaderKnown {
		leader := h.Leader
		resp.Leader = &leader
	}
	if h.Inventory {
		resp.Replication = &dto.ReplicationHealth{
			Backups:   h.Backups,
			Sent:      h.Replication.Sent,
			Failed:    h.Replication.Failed,
			LastError: h.Replication.LastError,
		}
	}
	return resp
}

package handlers

import (
	"context"
	"time"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// CheckoutFacade describes the public operations of a checkout node.
type CheckoutFacade interface {
	Checkout(ctx context.Context, order model.Order) (model.OrderResult, error)
	Result(ctx context.Context, orderID string) (*model.OrderResult, error)
	Stock(ctx context.Context, title string) (int, bool, error)
	Health(ctx context.Context) dto.HealthResponse
}

// Participant is a local two-phase commit participant.
type Participant interface {
	Name() string
	Prepare(ctx context.Context, r model.Reservation) (bool, error)
	Commit(ctx context.Context, orderID, title string) (bool, error)
	Abort(ctx context.Context, orderID, title string) error
}

// StockStore is a local inventory.
type StockStore interface {
	Read(title string) (int, bool)
	Write(ctx context.Context, title string, stock int) bool
	Decrement(ctx context.Context, title string, amount int) bool
	Increment(ctx context.Context, title string, amount int) bool
}

// OrderQueue is a local order queue.
type OrderQueue interface {
	Enqueue(ctx context.Context, order model.Order) error
	Dequeue(ctx context.Context, timeout time.Duration) (model.Order, bool, error)
}

// ElectionListener receives bully election messages.
type ElectionListener interface {
	HandleElection(sender int)
	HandleVictory(leader int)
}

package test

import (
	"context"
	"sync"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/server/http/dto"
)

// CheckoutFacadeStub provides controllable behaviour for public endpoints.
type CheckoutFacadeStub struct {
	CheckoutFn func(context.Context, model.Order) (model.OrderResult, error)
	ResultFn   func(context.Context, string) (*model.OrderResult, error)
	StockFn    func(context.Context, string) (int, bool, error)
	HealthVal  dto.HealthResponse

	mu     sync.Mutex
	orders []model.Order
}

// Checkout delegates to CheckoutFn or approves the order.
func (s *CheckoutFacadeStub) Checkout(ctx context.Context, order model.Order) (model.OrderResult, error) {
	s.mu.Lock()
	s.orders = append(s.orders, order)
	s.mu.Unlock()
	if s.CheckoutFn != nil {
		return s.CheckoutFn(ctx, order)
	}
	return model.OrderResult{OrderID: order.ID, Status: model.StatusApproved, Execution: model.ExecutionPending}, nil
}

// Result delegates to ResultFn or reports not found.
func (s *CheckoutFacadeStub) Result(ctx context.Context, orderID string) (*model.OrderResult, error) {
	if s.ResultFn != nil {
		return s.ResultFn(ctx, orderID)
	}
	return nil, domainErrors.ErrNotFound
}

// Stock delegates to StockFn or reports an unknown title.
func (s *CheckoutFacadeStub) Stock(ctx context.Context, title string) (int, bool, error) {
	if s.StockFn != nil {
		return s.StockFn(ctx, title)
	}
	return 0, false, nil
}

// Health returns HealthVal.
func (s *CheckoutFacadeStub) Health(context.Context) dto.HealthResponse {
	return s.HealthVal
}

// Orders returns orders passed to Checkout.
func (s *CheckoutFacadeStub) Orders() []model.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Order(nil), s.orders...)
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/domain/repository"
	"github.com/vusallyv/ds-practice-2025/internal/pipeline"
	pkgAuth "github.com/vusallyv/ds-practice-2025/internal/pkg/auth"
)

// Verifier runs the verification pipeline.
type Verifier interface {
	Run(ctx context.Context, order model.Order) (pipeline.Outcome, error)
}

// OrderQueue accepts approved orders for execution.
type OrderQueue interface {
	Enqueue(ctx context.Context, order model.Order) error
}

// CheckoutUseCase ingests orders.
type CheckoutUseCase struct {
	verifier Verifier
	hasher   pkgAuth.CardHasher
	results  repository.ResultRepository
	queue    OrderQueue
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

// NewCheckoutUseCase constructs CheckoutUseCase.
func NewCheckoutUseCase(verifier Verifier, hasher pkgAuth.CardHasher, results repository.ResultRepository, queue OrderQueue, logger *slog.Logger) *CheckoutUseCase {
	return &CheckoutUseCase{
		verifier: verifier,
		hasher:   hasher,
		results:  results,
		queue:    queue,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Checkout verifies order and queues it when approved. A rejection is a
// result, not an error. Orders leave this node without raw card data.
func (u *CheckoutUseCase) Checkout(ctx context.Context, order model.Order) (model.OrderResult, error) {
	if order.ID == "" {
		order.ID = u.newID()
	}
	result := model.OrderResult{OrderID: order.ID, Suggestions: []model.Suggestion{}, Execution: model.ExecutionSkipped}

	if err := ValidateOrder(order); err != nil {
		result.Status = model.RejectedStatus(err.Error())
		return result, err
	}

	outcome, err := u.verifier.Run(ctx, order)
	if err != nil {
		return result, fmt.Errorf("verify order: %w", err)
	}
	result.Status = outcome.OrderStatus()
	if !outcome.Approved() {
		u.save(ctx, result)
		return result, nil
	}
	result.Suggestions = outcome.Suggestions

	ref, err := u.hasher.Fingerprint(order.CreditCard.Number)
	if err != nil {
		return result, fmt.Errorf("fingerprint card: %w", err)
	}
	queued := order.Redacted()
	queued.PayerRef = ref

	result.Execution = model.ExecutionPending
	u.save(ctx, result)
	if err := u.queue.Enqueue(ctx, queued); err != nil {
		result.Execution = model.ExecutionFailed
		u.save(ctx, result)
		return result, fmt.Errorf("enqueue order: %w", err)
	}

	u.logger.Info("order queued", slog.String("order_id", order.ID), slog.Int("quantity", queued.TotalQuantity()))
	return result, nil
}

// Result returns the stored result of an order.
func (u *CheckoutUseCase) Result(ctx context.Context, orderID string) (*model.OrderResult, error) {
	return u.results.Get(ctx, orderID)
}

func (u *CheckoutUseCase) save(ctx context.Context, result model.OrderResult) {
	result.UpdatedAt = u.now()
	if err := u.results.Save(ctx, result); err != nil && !errors.Is(err, context.Canceled) {
		u.logger.Error("save order result failed", slog.String("order_id", result.OrderID), slog.String("error", err.Error()))
	}
}

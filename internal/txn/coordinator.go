// Package txn drives two-phase commit rounds for the line items of an order.
package txn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

// Participant is a resource manager taking part in a 2PC round.
type Participant interface {
	Name() string
	Prepare(ctx context.Context, r model.Reservation) (bool, error)
	Commit(ctx context.Context, orderID, title string) (bool, error)
	Abort(ctx context.Context, orderID, title string) error
}

// Policy bounds every participant call.
type Policy struct {
	Attempts int
	Backoff  time.Duration
	Timeout  time.Duration
}

// DefaultPolicy is three attempts, half a second apart, two seconds each.
var DefaultPolicy = Policy{Attempts: 3, Backoff: 500 * time.Millisecond, Timeout: 2 * time.Second}

// ItemResult is the typed outcome of one round.
type ItemResult struct {
	Title    string
	Quantity int
	Status   model.ItemStatus
	// Ready lists participants that voted ready, in call order.
	Ready []string
	// Failed lists participants that voted not ready or failed to commit.
	Failed []string
}

// Report aggregates the rounds of one order.
type Report struct {
	OrderID string
	Items   []ItemResult
}

// Status summarizes the report.
func (r Report) Status() model.ExecutionStatus {
	committed, partial := 0, false
	for _, item := range r.Items {
		switch item.Status {
		case model.ItemStatusCommitted:
			committed++
		case model.ItemStatusPartialCommit:
			partial = true
		}
	}
	switch {
	case len(r.Items) > 0 && committed == len(r.Items):
		return model.ExecutionCompleted
	case committed == 0 && !partial:
		return model.ExecutionFailed
	default:
		return model.ExecutionPartial
	}
}

// Outcomes converts the report into stored item outcomes.
func (r Report) Outcomes() []model.ItemOutcome {
	out := make([]model.ItemOutcome, 0, len(r.Items))
	for _, item := range r.Items {
		out = append(out, model.ItemOutcome{
			Title:    item.Title,
			Quantity: item.Quantity,
			Status:   item.Status,
			Failed:   item.Failed,
		})
	}
	return out
}

// Coordinator runs 2PC across a fixed participant set.
type Coordinator struct {
	participants []Participant
	policy       Policy
	logger       *slog.Logger
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewCoordinator creates a coordinator. Non-positive policy fields fall back
// to DefaultPolicy.
func NewCoordinator(participants []Participant, policy Policy, logger *slog.Logger) *Coordinator {
	if policy.Attempts <= 0 {
		policy.Attempts = DefaultPolicy.Attempts
	}
	if policy.Backoff <= 0 {
		policy.Backoff = DefaultPolicy.Backoff
	}
	if policy.Timeout <= 0 {
		policy.Timeout = DefaultPolicy.Timeout
	}
	return &Coordinator{participants: participants, policy: policy, logger: logger, sleep: sleepContext}
}

// Execute runs one round per line item. A failed item never stops the
// remaining items.
func (c *Coordinator) Execute(ctx context.Context, order model.Order) Report {
	report := Report{OrderID: order.ID, Items: make([]ItemResult, 0, len(order.Items))}
	for _, item := range order.Items {
		res := c.Run(ctx, model.Reservation{
			OrderID: order.ID,
			Title:   item.Title,
			Amount:  item.Quantity,
			Payer:   order.PayerRef,
		})
		if res.Status == model.ItemStatusAborted {
			c.logger.Warn("order item failed",
				slog.String("order_id", order.ID),
				slog.String("title", item.Title),
				slog.Int("quantity", item.Quantity),
				slog.Any("not_ready", res.Failed),
			)
		}
		report.Items = append(report.Items, res)
	}
	return report
}

// Run executes a single 2PC round for r.
func (c *Coordinator) Run(ctx context.Context, r model.Reservation) ItemResult {
	res := ItemResult{Title: r.Title, Quantity: r.Amount}

	var ready []Participant
	for _, p := range c.participants {
		vote, err := c.prepare(ctx, p, r)
		if err != nil {
			c.logger.Warn("prepare failed after retries",
				slog.String("order_id", r.OrderID),
				slog.String("title", r.Title),
				slog.String("participant", p.Name()),
				slog.String("error", err.Error()),
			)
		}
		if vote {
			ready = append(ready, p)
			res.Ready = append(res.Ready, p.Name())
		} else {
			res.Failed = append(res.Failed, p.Name())
		}
	}

	if len(ready) != len(c.participants) {
		c.abort(ctx, ready, r)
		res.Status = model.ItemStatusAborted
		return res
	}

	for _, p := range ready {
		if err := c.commit(ctx, p, r); err != nil {
			res.Failed = append(res.Failed, p.Name())
			c.logger.Error("partial commit",
				slog.String("order_id", r.OrderID),
				slog.String("title", r.Title),
				slog.String("participant", p.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
	if len(res.Failed) > 0 {
		res.Status = model.ItemStatusPartialCommit
		return res
	}
	res.Status = model.ItemStatusCommitted
	return res
}

var errNoReservation = errors.New("participant holds no reservation")

func (c *Coordinator) prepare(ctx context.Context, p Participant, r model.Reservation) (bool, error) {
	var vote bool
	err := c.retry(ctx, func(callCtx context.Context) error {
		v, err := p.Prepare(callCtx, r)
		if err != nil {
			return err
		}
		vote = v
		return nil
	})
	if err != nil {
		return false, err
	}
	return vote, nil
}

func (c *Coordinator) commit(ctx context.Context, p Participant, r model.Reservation) error {
	return c.retry(ctx, func(callCtx context.Context) error {
		ok, err := p.Commit(callCtx, r.OrderID, r.Title)
		if err != nil {
			return err
		}
		if !ok {
			return permanent{errNoReservation}
		}
		return nil
	})
}

// abort is best effort and only reaches participants holding a reservation.
func (c *Coordinator) abort(ctx context.Context, ready []Participant, r model.Reservation) {
	for _, p := range ready {
		err := c.retry(ctx, func(callCtx context.Context) error {
			return p.Abort(callCtx, r.OrderID, r.Title)
		})
		if err != nil {
			c.logger.Warn("abort failed",
				slog.String("order_id", r.OrderID),
				slog.String("title", r.Title),
				slog.String("participant", p.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}

// permanent marks an error that must not be retried.
type permanent struct{ err error }

func (p permanent) Error() string { return p.err.Error() }
func (p permanent) Unwrap() error { return p.err }

// retry runs fn with a per-attempt timeout. Transport errors are retried up to
// the attempt budget and then reported as ErrParticipantUnavailable.
func (c *Coordinator) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= c.policy.Attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.policy.Timeout)
		err := fn(callCtx)
		cancel()
		if err == nil {
			return nil
		}
		var perm permanent
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err
		if attempt == c.policy.Attempts {
			break
		}
		if err := c.sleep(ctx, c.policy.Backoff); err != nil {
			lastErr = err
			break
		}
	}
	return fmt.Errorf("%w: %v", domainErrors.ErrParticipantUnavailable, lastErr)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

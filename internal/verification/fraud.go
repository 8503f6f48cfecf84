package verification

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/vclock"
)

const (
	maxDistinctItems = 10
	maxTotalItems    = 10
)

var contactPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Verdict is a fraud oracle answer.
type Verdict struct {
	Fraud  bool
	Reason string
}

// FraudOracle is an external scorer consulted after the local rules pass.
type FraudOracle interface {
	Assess(ctx context.Context, order model.Order) (Verdict, error)
}

// FraudOptions tunes FraudDetector.
type FraudOptions struct {
	// FailOpen lets orders through when the oracle errors.
	FailOpen bool
	// ClockThreshold is the minimum value both the transaction and the
	// fraud slots must reach before the card is judged.
	ClockThreshold uint64
	Timeout        time.Duration
}

// FraudDetector runs fraud rules over the buyer and the card.
type FraudDetector struct {
	states *table
	oracle FraudOracle
	opts   FraudOptions
	logger *slog.Logger
	now    func() time.Time
}

func NewFraudDetector(oracle FraudOracle, opts FraudOptions, logger *slog.Logger) *FraudDetector {
	if logger == nil {
		logger = slog.Default()
	}
	return &FraudDetector{
		states: newTable(SlotFraud),
		oracle: oracle,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func (d *FraudDetector) Init(_ context.Context, orderID string, order model.Order) error {
	d.states.init(orderID, order)
	return nil
}

func (d *FraudDetector) Clear(_ context.Context, orderID string) {
	d.states.clear(orderID)
}

// CheckUserData applies the order size and contact rules, then asks the oracle.
func (d *FraudDetector) CheckUserData(ctx context.Context, orderID string, clock vclock.Clock) (Result, error) {
	order, clock, err := d.states.advance(orderID, clock)
	if err != nil {
		return Result{}, err
	}
	switch {
	case len(order.Items) >= maxDistinctItems:
		return fail(clock, "Ordered too many different items"), nil
	case order.TotalQuantity() >= maxTotalItems:
		return fail(clock, "Ordered too many items total"), nil
	case !contactPattern.MatchString(order.Buyer.Contact):
		return fail(clock, "Contact should be valid"), nil
	}

	// The oracle consultation is an event of its own on the fraud slot.
	if _, clock, err = d.states.advance(orderID, clock); err != nil {
		return Result{}, err
	}
	verdict, err := d.assess(ctx, order)
	if err != nil {
		if errors.Is(err, domainErrors.ErrOracleDisabled) {
			return pass(clock), nil
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		if d.opts.FailOpen {
			d.logger.Error("fraud oracle failed, letting order through", slog.String("order_id", orderID), slog.Any("error", err))
			return pass(clock), nil
		}
		d.logger.Error("fraud oracle failed", slog.String("order_id", orderID), slog.Any("error", err))
		return fail(clock, "Fraud check unavailable"), nil
	}
	if verdict.Fraud {
		reason := verdict.Reason
		if reason == "" {
			reason = "Order flagged as fraudulent"
		}
		return fail(clock, reason), nil
	}
	return pass(clock), nil
}

// CheckCreditCard judges the card once the transaction and fraud slots have
// advanced far enough. Below the threshold it passes with EarlyStop set.
func (d *FraudDetector) CheckCreditCard(_ context.Context, orderID string, clock vclock.Clock) (Result, error) {
	order, clock, err := d.states.advance(orderID, clock)
	if err != nil {
		return Result{}, err
	}
	if clock.At(SlotFraud) < d.opts.ClockThreshold || clock.At(SlotTransaction) < d.opts.ClockThreshold {
		res := pass(clock)
		res.EarlyStop = true
		res.Message = "Early stop"
		return res, nil
	}

	card := order.CreditCard
	switch {
	case len(card.CVV) != 3:
		return fail(clock, "CVV is wrong"), nil
	case len(card.Number) != 16:
		return fail(clock, "Credit card number is wrong"), nil
	}
	expired, err := d.expired(card.ExpirationDate)
	if err != nil {
		return fail(clock, "Credit card expiration date is invalid"), nil
	}
	if expired {
		return fail(clock, "Credit card has expired"), nil
	}
	return pass(clock), nil
}

func (d *FraudDetector) assess(ctx context.Context, order model.Order) (Verdict, error) {
	if d.oracle == nil {
		return Verdict{}, domainErrors.ErrOracleDisabled
	}
	if d.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.opts.Timeout)
		defer cancel()
	}
	return d.oracle.Assess(ctx, order.Redacted())
}

// expired reports whether an MM/YY date lies before the current month.
func (d *FraudDetector) expired(date string) (bool, error) {
	month, year, ok := strings.Cut(date, "/")
	if !ok {
		return false, domainErrors.ErrValidation
	}
	mm, err := strconv.Atoi(month)
	if err != nil || mm < 1 || mm > 12 {
		return false, domainErrors.ErrValidation
	}
	yy, err := strconv.Atoi(year)
	if err != nil {
		return false, domainErrors.ErrValidation
	}
	now := d.now()
	curYear, curMonth := now.Year()%100, int(now.Month())
	return yy < curYear || (yy == curYear && mm < curMonth), nil
}

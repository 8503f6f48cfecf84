// Package payment implements the payment side of order execution as a 2PC
// participant holding pending charges.
package payment

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

// Charge is a payment for one line item.
type Charge struct {
	OrderID    string
	Title      string
	Amount     int
	Payer      string
	PreparedAt time.Time
	SettledAt  time.Time
}

type chargeKey struct {
	orderID string
	title   string
}

// Ledger keeps pending charges between Prepare and Commit or Abort.
type Ledger struct {
	mu      sync.Mutex
	pending map[chargeKey]Charge
	settled map[chargeKey]Charge
	now     func() time.Time
	logger  *slog.Logger
}

// NewLedger creates an empty ledger.
func NewLedger(logger *slog.Logger) *Ledger {
	return &Ledger{
		pending: make(map[chargeKey]Charge),
		settled: make(map[chargeKey]Charge),
		now:     time.Now,
		logger:  logger,
	}
}

// Name identifies the ledger as a 2PC participant.
func (l *Ledger) Name() string { return "payment" }

// Prepare records a pending charge. Negative amounts are refused.
func (l *Ledger) Prepare(_ context.Context, r model.Reservation) (bool, error) {
	if r.Amount < 0 {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pending[chargeKey{r.OrderID, r.Title}] = Charge{
		OrderID:    r.OrderID,
		Title:      r.Title,
		Amount:     r.Amount,
		Payer:      r.Payer,
		PreparedAt: l.now(),
	}
	return true, nil
}

// Commit settles the pending charge, returning false when none exists. A
// charge that is already settled reports true without settling twice.
func (l *Ledger) Commit(_ context.Context, orderID, title string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := chargeKey{orderID, title}
	charge, ok := l.pending[key]
	if !ok {
		_, settled := l.settled[key]
		return settled, nil
	}
	delete(l.pending, key)
	charge.SettledAt = l.now()
	l.settled[key] = charge
	l.logger.Info("payment settled",
		slog.String("order_id", orderID),
		slog.String("title", title),
		slog.Int("amount", charge.Amount),
	)
	return true, nil
}

// Abort discards pending charges for the item, or for the whole order when
// title is empty.
func (l *Ledger) Abort(_ context.Context, orderID, title string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if title != "" {
		delete(l.pending, chargeKey{orderID, title})
		return nil
	}
	for key := range l.pending {
		if key.orderID == orderID {
			delete(l.pending, key)
		}
	}
	return nil
}

// Pending returns the number of outstanding charges.
func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.pending)
}

// Settled lists settled charges of an order.
func (l *Ledger) Settled(orderID string) []Charge {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []Charge
	for key, charge := range l.settled {
		if key.orderID == orderID {
			out = append(out, charge)
		}
	}
	return out
}

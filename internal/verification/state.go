// Package verification hosts the per-order checks run before an order is
// queued. Each service owns one vector clock slot and keeps its own copy of
// the order between Init and Clear.
package verification

import (
	"sync"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/vclock"
)

// Clock slots of the verifying services.
const (
	SlotTransaction = 0
	SlotSuggestions = 1
	SlotFraud       = 2
	Slots           = 3
)

// Result is the outcome of a single check.
type Result struct {
	Fail    bool
	Message string
	Clock   vclock.Clock
	// EarlyStop is set when a check deferred judgment.
	EarlyStop   bool
	Suggestions []model.Suggestion
}

type entry struct {
	mu    sync.Mutex
	order model.Order
	clock vclock.Clock
}

// table is the VerificationState store of one service.
type table struct {
	slot int

	mu      sync.Mutex
	entries map[string]*entry
}

func newTable(slot int) *table {
	return &table{slot: slot, entries: make(map[string]*entry)}
}

// init replaces any previous state of id.
func (t *table) init(id string, order model.Order) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[id] = &entry{order: order, clock: vclock.New(Slots)}
}

func (t *table) clear(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, id)
}

func (t *table) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// advance merges incoming into the order's clock and bumps the service slot.
// It returns the stored order and a copy of the updated clock.
func (t *table) advance(id string, incoming vclock.Clock) (model.Order, vclock.Clock, error) {
	t.mu.Lock()
	e, ok := t.entries[id]
	t.mu.Unlock()
	if !ok {
		return model.Order{}, nil, domainErrors.ErrNotInitialized
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.clock = vclock.MergeAndIncrement(e.clock, incoming, t.slot)
	return e.order, e.clock.Copy(), nil
}

func pass(clock vclock.Clock) Result {
	return Result{Clock: clock}
}

func fail(clock vclock.Clock, message string) Result {
	return Result{Fail: true, Message: message, Clock: clock}
}

package test

import (
	"context"
	"sync"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

// ParticipantCall records one 2PC call.
type ParticipantCall struct {
	Op      string
	OrderID string
	Title   string
	Amount  int
}

// ParticipantStub is a scriptable 2PC participant.
type ParticipantStub struct {
	NameVal   string
	PrepareFn func(context.Context, model.Reservation) (bool, error)
	CommitFn  func(context.Context, string, string) (bool, error)
	AbortFn   func(context.Context, string, string) error

	mu    sync.Mutex
	calls []ParticipantCall
}

// Name returns configured participant name.
func (p *ParticipantStub) Name() string {
	if p.NameVal != "" {
		return p.NameVal
	}
	return "participant"
}

// Prepare votes ready unless overridden.
func (p *ParticipantStub) Prepare(ctx context.Context, r model.Reservation) (bool, error) {
	p.record(ParticipantCall{Op: "prepare", OrderID: r.OrderID, Title: r.Title, Amount: r.Amount})
	if p.PrepareFn != nil {
		return p.PrepareFn(ctx, r)
	}
	return true, nil
}

// Commit succeeds unless overridden.
func (p *ParticipantStub) Commit(ctx context.Context, orderID, title string) (bool, error) {
	p.record(ParticipantCall{Op: "commit", OrderID: orderID, Title: title})
	if p.CommitFn != nil {
		return p.CommitFn(ctx, orderID, title)
	}
	return true, nil
}

// Abort succeeds unless overridden.
func (p *ParticipantStub) Abort(ctx context.Context, orderID, title string) error {
	p.record(ParticipantCall{Op: "abort", OrderID: orderID, Title: title})
	if p.AbortFn != nil {
		return p.AbortFn(ctx, orderID, title)
	}
	return nil
}

// Count returns how many calls of op were made.
func (p *ParticipantStub) Count(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Calls returns a copy of the recorded calls.
func (p *ParticipantStub) Calls() []ParticipantCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]ParticipantCall(nil), p.calls...)
}

func (p *ParticipantStub) record(c ParticipantCall) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, c)
}

// Package pipeline runs the verification DAG of an order.
//
//	BookList ──> CreditCard ─────────┐
//	UserData ──> FraudUser ──> FraudCard ──> Recommend
//
// The two chains run concurrently and join once: FraudCard waits for the
// transaction chain and merges its clock. The first rejection cancels the
// other chain; only a finished recommendation approves the order.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/vclock"
	"github.com/vusallyv/ds-practice-2025/internal/verification"
)

// ErrNoRecommendation is returned when both chains finish without a
// rejection and without suggestions.
var ErrNoRecommendation = errors.New("pipeline finished without recommendation")

// Status is the terminal state of a pipeline run.
type Status string

const (
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

// Outcome is the merged result of both chains.
type Outcome struct {
	Status      Status
	Reason      string
	Suggestions []model.Suggestion
	Clock       vclock.Clock
}

// Approved reports whether the order passed verification.
func (o Outcome) Approved() bool {
	return o.Status == StatusApproved
}

// OrderStatus renders the user facing status line.
func (o Outcome) OrderStatus() string {
	if o.Approved() {
		return model.StatusApproved
	}
	return model.RejectedStatus(o.Reason)
}

type stateful interface {
	Init(ctx context.Context, orderID string, order model.Order) error
	Clear(ctx context.Context, orderID string)
}

// TransactionChecks verifies order shape, buyer and card format.
type TransactionChecks interface {
	stateful
	VerifyBookList(ctx context.Context, orderID string, clock vclock.Clock) (verification.Result, error)
	VerifyUserData(ctx context.Context, orderID string, clock vclock.Clock) (verification.Result, error)
	VerifyCreditCard(ctx context.Context, orderID string, clock vclock.Clock) (verification.Result, error)
}

// FraudChecks runs the fraud rules.
type FraudChecks interface {
	stateful
	CheckUserData(ctx context.Context, orderID string, clock vclock.Clock) (verification.Result, error)
	CheckCreditCard(ctx context.Context, orderID string, clock vclock.Clock) (verification.Result, error)
}

// Recommendations produces suggested books.
type Recommendations interface {
	stateful
	Recommend(ctx context.Context, orderID string, clock vclock.Clock) (verification.Result, error)
}

type step struct {
	name  string
	check func(context.Context, string, vclock.Clock) (verification.Result, error)
	// after blocks until a dependency outside the chain is done and returns
	// its clock. ok is false when ctx ended first.
	after func(ctx context.Context) (clock vclock.Clock, ok bool)
}

type branch struct {
	clock       vclock.Clock
	suggestions []model.Suggestion
}

// Pipeline wires the verification services into the DAG.
type Pipeline struct {
	tx     TransactionChecks
	fraud  FraudChecks
	rec    Recommendations
	logger *slog.Logger
}

func New(tx TransactionChecks, fraud FraudChecks, rec Recommendations, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{tx: tx, fraud: fraud, rec: rec, logger: logger}
}

// Run verifies order. A rejection is an Outcome, not an error; errors are
// faults such as a check running before its state was initialised.
func (p *Pipeline) Run(ctx context.Context, order model.Order) (Outcome, error) {
	services := []stateful{p.tx, p.fraud, p.rec}
	defer func() {
		for _, svc := range services {
			svc.Clear(context.WithoutCancel(ctx), order.ID)
		}
	}()
	for _, svc := range services {
		if err := svc.Init(ctx, order.ID, order); err != nil {
			return Outcome{}, err
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu     sync.Mutex
		reject *Outcome
	)
	rejectWith := func(name string, res verification.Result) {
		mu.Lock()
		defer mu.Unlock()
		if reject != nil {
			return
		}
		reject = &Outcome{Status: StatusRejected, Reason: res.Message, Clock: res.Clock}
		p.logger.Info("order rejected",
			slog.String("order_id", order.ID),
			slog.String("check", name),
			slog.String("reason", res.Message),
			slog.String("clock", res.Clock.String()),
		)
		cancel()
	}

	var a, b branch
	chainADone := make(chan struct{})
	afterChainA := func(ctx context.Context) (vclock.Clock, bool) {
		select {
		case <-chainADone:
			return a.clock, true
		case <-ctx.Done():
			return nil, false
		}
	}

	chainA := []step{
		{name: "book_list", check: p.tx.VerifyBookList},
		{name: "credit_card", check: p.tx.VerifyCreditCard},
	}
	chainB := []step{
		{name: "user_data", check: p.tx.VerifyUserData},
		{name: "fraud_user", check: p.fraud.CheckUserData},
		{name: "fraud_card", check: p.fraud.CheckCreditCard, after: afterChainA},
		{name: "recommend", check: p.rec.Recommend},
	}

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		defer close(chainADone)
		var err error
		a, err = p.runChain(gctx, order.ID, chainA, rejectWith)
		return err
	})
	g.Go(func() error {
		var err error
		b, err = p.runChain(gctx, order.ID, chainB, rejectWith)
		return err
	})
	err := g.Wait()

	mu.Lock()
	rejected := reject
	mu.Unlock()
	if rejected != nil {
		return *rejected, nil
	}
	if err != nil {
		return Outcome{}, err
	}
	if ctx.Err() != nil {
		return Outcome{}, ctx.Err()
	}
	if len(b.suggestions) == 0 {
		return Outcome{}, ErrNoRecommendation
	}

	clock := vclock.Merge(a.clock, b.clock)
	p.logger.Info("order approved", slog.String("order_id", order.ID), slog.String("clock", clock.String()))
	return Outcome{Status: StatusApproved, Suggestions: b.suggestions, Clock: clock}, nil
}

// runChain executes steps in order, threading the clock through them. It
// stops quietly once ctx is cancelled.
func (p *Pipeline) runChain(ctx context.Context, orderID string, steps []step, reject func(string, verification.Result)) (branch, error) {
	var out branch
	clock := vclock.New(verification.Slots)
	for _, s := range steps {
		if s.after != nil {
			dep, ok := s.after(ctx)
			if !ok {
				return out, nil
			}
			clock = vclock.Merge(clock, dep)
		}
		if ctx.Err() != nil {
			return out, nil
		}
		res, err := s.check(ctx, orderID, clock)
		if err != nil {
			if ctx.Err() != nil {
				return out, nil
			}
			p.logger.Error("verification check failed", slog.String("order_id", orderID), slog.String("check", s.name), slog.Any("error", err))
			return out, err
		}
		clock = res.Clock
		if res.Fail {
			reject(s.name, res)
			return out, nil
		}
		if res.EarlyStop {
			p.logger.Debug("check deferred", slog.String("order_id", orderID), slog.String("check", s.name), slog.String("clock", clock.String()))
		}
		if res.Suggestions != nil {
			out.suggestions = res.Suggestions
		}
	}
	out.clock = clock
	return out, nil
}

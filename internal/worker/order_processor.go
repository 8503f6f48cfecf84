package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/domain/repository"
	"github.com/vusallyv/ds-practice-2025/internal/txn"
)

// OrderSource is the shared order queue.
type OrderSource interface {
	Dequeue(ctx context.Context, timeout time.Duration) (model.Order, bool, error)
}

// Leadership decides which replica drains the queue.
type Leadership interface {
	IsLeader() bool
	Leader() (int, bool)
	RunElection(ctx context.Context) int
	ProbeLeader(ctx context.Context) bool
}

// OrderExecutor runs 2PC for every item of an order.
type OrderExecutor interface {
	Execute(ctx context.Context, order model.Order) txn.Report
}

// Options tunes OrderProcessor.
type Options struct {
	ProbeInterval  time.Duration
	DequeueTimeout time.Duration
	Workers        int
}

// OrderProcessor drains the queue while this replica leads and probes the
// leader otherwise.
type OrderProcessor struct {
	source   OrderSource
	leader   Leadership
	executor OrderExecutor
	results  repository.ResultRepository
	opts     Options
	logger   *slog.Logger
	now      func() time.Time

	jobs   chan model.Order
	wg     sync.WaitGroup
	cancel context.CancelFunc
	mu     sync.Mutex
}

// NewOrderProcessor constructs the executor worker pool.
func NewOrderProcessor(source OrderSource, leader Leadership, executor OrderExecutor, results repository.ResultRepository, opts Options, logger *slog.Logger) *OrderProcessor {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.ProbeInterval <= 0 {
		opts.ProbeInterval = 2 * time.Second
	}
	if opts.DequeueTimeout <= 0 {
		opts.DequeueTimeout = 2 * time.Second
	}
	return &OrderProcessor{
		source:   source,
		leader:   leader,
		executor: executor,
		results:  results,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
	}
}

// Start launches background processing.
func (p *OrderProcessor) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.jobs = make(chan model.Order)

	for i := 0; i < p.opts.Workers; i++ {
		p.wg.Add(1)
		go p.worker(runCtx, p.jobs)
	}

	p.wg.Add(1)
	go p.dispatch(runCtx, p.jobs)
}

// Stop cancels dispatch and waits for in-flight orders to finish.
func (p *OrderProcessor) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
}

func (p *OrderProcessor) dispatch(ctx context.Context, jobs chan<- model.Order) {
	defer p.wg.Done()
	defer close(jobs)

	for ctx.Err() == nil {
		if !p.leader.IsLeader() {
			p.follow(ctx)
			continue
		}

		order, ok, err := p.source.Dequeue(ctx, p.opts.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue failed", slog.String("error", err.Error()))
			p.pause(ctx)
			continue
		}
		if !ok {
			continue
		}
		// Orders already taken off the queue are always handed to a worker.
		jobs <- order
	}
}

// follow re-probes the leader and runs an election when it is gone.
func (p *OrderProcessor) follow(ctx context.Context) {
	_, known := p.leader.Leader()
	if known && p.leader.ProbeLeader(ctx) {
		p.pause(ctx)
		return
	}
	if ctx.Err() != nil {
		return
	}
	if known {
		p.logger.Warn("leader unreachable, starting election", slog.String("error", domainErrors.ErrLeaderUnreachable.Error()))
	}
	leader := p.leader.RunElection(ctx)
	p.logger.Info("election finished", slog.Int("leader", leader), slog.Bool("self", p.leader.IsLeader()))
	if !p.leader.IsLeader() {
		p.pause(ctx)
	}
}

func (p *OrderProcessor) pause(ctx context.Context) {
	timer := time.NewTimer(p.opts.ProbeInterval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (p *OrderProcessor) worker(ctx context.Context, jobs <-chan model.Order) {
	defer p.wg.Done()
	for order := range jobs {
		p.handleOrder(context.WithoutCancel(ctx), order)
	}
}

func (p *OrderProcessor) handleOrder(ctx context.Context, order model.Order) {
	report := p.executor.Execute(ctx, order)
	status := report.Status()

	attrs := []any{slog.String("order_id", order.ID), slog.String("execution", string(status))}
	switch status {
	case model.ExecutionCompleted:
		p.logger.Info("order executed", attrs...)
	default:
		p.logger.Warn("order executed with failures", attrs...)
	}

	p.record(ctx, order.ID, report)
}

func (p *OrderProcessor) record(ctx context.Context, orderID string, report txn.Report) {
	if p.results == nil {
		return
	}
	result, err := p.results.Get(ctx, orderID)
	if err != nil {
		if !errors.Is(err, domainErrors.ErrNotFound) {
			p.logger.Error("load order result failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
		}
		result = &model.OrderResult{OrderID: orderID, Status: model.StatusApproved}
	}
	result.Execution = report.Status()
	result.Items = report.Outcomes()
	result.UpdatedAt = p.now()

	if err := p.results.Save(ctx, *result); err != nil {
		p.logger.Error("save order result failed", slog.String("order_id", orderID), slog.String("error", err.Error()))
	}
}

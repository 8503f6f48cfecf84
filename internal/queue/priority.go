// Package queue buffers approved orders until the elected executor drains them.
package queue

import (
	"container/heap"
	"context"
	"sync"
	"time"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

type entry struct {
	order    model.Order
	priority int
}

// entries is a min-heap on priority. Equal priorities have no defined order.
type entries []entry

func (e entries) Len() int           { return len(e) }
func (e entries) Less(i, j int) bool { return e[i].priority < e[j].priority }
func (e entries) Swap(i, j int)      { e[i], e[j] = e[j], e[i] }
func (e *entries) Push(x any)        { *e = append(*e, x.(entry)) }
func (e *entries) Pop() any {
	old := *e
	n := len(old)
	item := old[n-1]
	old[n-1] = entry{}
	*e = old[:n-1]
	return item
}

// Priority returns the queue key of an order: larger totals sort first.
func Priority(order model.Order) int {
	return -order.TotalQuantity()
}

// PriorityOrderQueue serves the order with the largest total quantity first.
type PriorityOrderQueue struct {
	mu    sync.Mutex
	items entries
	ready chan struct{}
}

// NewPriorityOrderQueue creates an empty queue.
func NewPriorityOrderQueue() *PriorityOrderQueue {
	return &PriorityOrderQueue{ready: make(chan struct{}, 1)}
}

// Enqueue inserts order keyed by Priority.
func (q *PriorityOrderQueue) Enqueue(_ context.Context, order model.Order) error {
	q.mu.Lock()
	heap.Push(&q.items, entry{order: order, priority: Priority(order)})
	q.mu.Unlock()
	q.signal()
	return nil
}

// Dequeue waits up to timeout for an order. ok is false when nothing arrived
// in time; callers retry later.
func (q *PriorityOrderQueue) Dequeue(ctx context.Context, timeout time.Duration) (model.Order, bool, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		if order, ok := q.pop(); ok {
			return order, true, nil
		}
		select {
		case <-q.ready:
		case <-timer.C:
			order, ok := q.pop()
			return order, ok, nil
		case <-ctx.Done():
			return model.Order{}, false, ctx.Err()
		}
	}
}

// Len returns the number of buffered orders.
func (q *PriorityOrderQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *PriorityOrderQueue) pop() (model.Order, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.items.Len() == 0 {
		return model.Order{}, false
	}
	e := heap.Pop(&q.items).(entry)
	if q.items.Len() > 0 {
		q.signal()
	}
	return e.order, true
}

func (q *PriorityOrderQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

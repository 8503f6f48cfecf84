package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

func orderWithTotal(id string, total int) model.Order {
	return model.Order{ID: id, Items: []model.Item{{Title: "t", Quantity: total}}}
}

func TestDequeueServesLargestTotalFirst(t *testing.T) {
	ctx := context.Background()
	q := NewPriorityOrderQueue()
	for _, o := range []model.Order{orderWithTotal("a", 3), orderWithTotal("b", 9), orderWithTotal("c", 1)} {
		if err := q.Enqueue(ctx, o); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	var got []int
	for i := 0; i < 3; i++ {
		order, ok, err := q.Dequeue(ctx, 10*time.Millisecond)
		if err != nil || !ok {
			t.Fatalf("expected order, got ok=%v err=%v", ok, err)
		}
		got = append(got, order.TotalQuantity())
	}
	if got[0] != 9 || got[1] != 3 || got[2] != 1 {
		t.Fatalf("expected [9 3 1], got %v", got)
	}
}

func TestPriorityKey(t *testing.T) {
	order := model.Order{Items: []model.Item{{Quantity: 2}, {Quantity: 5}}}
	if got := Priority(order); got != -7 {
		t.Fatalf("expected -7, got %d", got)
	}
}

func TestDequeueTimesOutWhenEmpty(t *testing.T) {
	q := NewPriorityOrderQueue()
	start := time.Now()
	_, ok, err := q.Dequeue(context.Background(), 30*time.Millisecond)
	if err != nil {
		t.Fatalf("empty queue must not be an error: %v", err)
	}
	if ok {
		t.Fatal("expected empty signal")
	}
	if elapsed := time.Since(start); elapsed < 25*time.Millisecond {
		t.Fatalf("dequeue returned before timeout: %v", elapsed)
	}
}

func TestDequeueWakesOnEnqueue(t *testing.T) {
	q := NewPriorityOrderQueue()
	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = q.Enqueue(context.Background(), orderWithTotal("late", 1))
	}()
	order, ok, err := q.Dequeue(context.Background(), time.Second)
	if err != nil || !ok || order.ID != "late" {
		t.Fatalf("expected late order, got %+v ok=%v err=%v", order, ok, err)
	}
}

func TestDequeueHonoursContext(t *testing.T) {
	q := NewPriorityOrderQueue()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, ok, err := q.Dequeue(ctx, time.Second)
	if ok || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got ok=%v err=%v", ok, err)
	}
}

func TestConcurrentConsumersReceiveEachOrderOnce(t *testing.T) {
	ctx := context.Background()
	q := NewPriorityOrderQueue()
	const total = 100

	var (
		mu   sync.Mutex
		seen = make(map[string]int)
		wg   sync.WaitGroup
	)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				order, ok, _ := q.Dequeue(ctx, 50*time.Millisecond)
				if !ok {
					return
				}
				mu.Lock()
				seen[order.ID]++
				mu.Unlock()
			}
		}()
	}
	for i := 0; i < total; i++ {
		_ = q.Enqueue(ctx, orderWithTotal(string(rune('A'+i%26))+string(rune('0'+i/26)), i))
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("expected %d distinct orders, got %d", total, len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Fatalf("order %s delivered %d times", id, n)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected empty queue, got %d", q.Len())
	}
}

// Package memory keeps order results in process memory.
package memory

import (
	"context"
	"sync"
	"time"

	domainErrors "github.com/vusallyv/ds-practice-2025/internal/domain/errors"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
)

type record struct {
	result  model.OrderResult
	expires time.Time
}

// ResultStore is an in-memory result repository. A lookup drops its own key
// once expired; the full sweep runs at most once per ttl.
type ResultStore struct {
	ttl time.Duration
	now func() time.Time

	mu        sync.Mutex
	records   map[string]record
	lastSweep time.Time
}

// NewResultStore builds a store; a zero ttl keeps results forever.
func NewResultStore(ttl time.Duration) *ResultStore {
	return &ResultStore{ttl: ttl, now: time.Now, records: make(map[string]record)}
}

func (s *ResultStore) Save(_ context.Context, result model.OrderResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if result.UpdatedAt.IsZero() {
		result.UpdatedAt = now
	}
	rec := record{result: clone(result)}
	if s.ttl > 0 {
		rec.expires = now.Add(s.ttl)
	}
	s.records[result.OrderID] = rec
	s.maybeSweepLocked(now)
	return nil
}

func (s *ResultStore) Get(_ context.Context, orderID string) (*model.OrderResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.maybeSweepLocked(now)
	rec, ok := s.records[orderID]
	if !ok {
		return nil, domainErrors.ErrNotFound
	}
	if rec.expired(now) {
		delete(s.records, orderID)
		return nil, domainErrors.ErrNotFound
	}
	res := clone(rec.result)
	return &res, nil
}

// Len returns the number of live results. It always sweeps.
func (s *ResultStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(s.now())
	return len(s.records)
}

func (r record) expired(now time.Time) bool {
	return !r.expires.IsZero() && !now.Before(r.expires)
}

func (s *ResultStore) maybeSweepLocked(now time.Time) {
	if s.ttl <= 0 || now.Sub(s.lastSweep) < s.ttl {
		return
	}
	s.sweepLocked(now)
}

func (s *ResultStore) sweepLocked(now time.Time) {
	for id, rec := range s.records {
		if rec.expired(now) {
			delete(s.records, id)
		}
	}
	s.lastSweep = now
}

func clone(r model.OrderResult) model.OrderResult {
	r.Suggestions = append([]model.Suggestion(nil), r.Suggestions...)
	items := make([]model.ItemOutcome, len(r.Items))
	for i, item := range r.Items {
		item.Failed = append([]string(nil), item.Failed...)
		items[i] = item
	}
	if r.Items == nil {
		items = nil
	}
	r.Items = items
	return r
}

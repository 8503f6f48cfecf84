// Package inventory keeps per-title stock, serves as a 2PC participant and
// replicates mutations from a primary to its backups.
package inventory

import (
	"context"
	"log/slog"
	"sync"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/pkg/locktable"
)

type reservationKey struct {
	orderID string
	title   string
}

// Store is the stock ledger. Mutations of one title are serialized by that
// title's lock; reads take no title lock and may observe stale values.
type Store struct {
	mu    sync.RWMutex
	stock map[string]int
	locks *locktable.Table

	resMu        sync.Mutex
	reservations map[reservationKey]int
	reserved     map[string]int
	committed    map[reservationKey]struct{}

	replicator *Replicator
	logger     *slog.Logger
}

// NewStore builds a store seeded with initial stock. A nil replicator makes
// the store standalone, which is also how backups run.
func NewStore(seed map[string]int, replicator *Replicator, logger *slog.Logger) *Store {
	stock := make(map[string]int, len(seed))
	for title, qty := range seed {
		if qty >= 0 {
			stock[title] = qty
		}
	}
	return &Store{
		stock:        stock,
		locks:        locktable.New(0),
		reservations: make(map[reservationKey]int),
		reserved:     make(map[string]int),
		committed:    make(map[reservationKey]struct{}),
		replicator:   replicator,
		logger:       logger,
	}
}

// Name identifies the store as a 2PC participant.
func (s *Store) Name() string { return "inventory" }

// Primary reports whether mutations are replicated to backups.
func (s *Store) Primary() bool {
	return s.replicator != nil && s.replicator.Backups() > 0
}

// Replication returns replication health, zero for standalone stores.
func (s *Store) Replication() Health {
	if s.replicator == nil {
		return Health{}
	}
	return s.replicator.Health()
}

// Backups returns the number of replication targets.
func (s *Store) Backups() int {
	if s.replicator == nil {
		return 0
	}
	return s.replicator.Backups()
}

// Read returns the current stock for title.
func (s *Store) Read(title string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	qty, ok := s.stock[title]
	return qty, ok
}

// Snapshot copies the whole ledger.
func (s *Store) Snapshot() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]int, len(s.stock))
	for k, v := range s.stock {
		out[k] = v
	}
	return out
}

// Write sets stock for title. Negative values are rejected.
func (s *Store) Write(ctx context.Context, title string, stock int) bool {
	return s.mutate(ctx, title, func(int) (int, bool) {
		return stock, stock >= 0
	})
}

// Decrement removes amount from stock unless amount is negative or exceeds it.
func (s *Store) Decrement(ctx context.Context, title string, amount int) bool {
	return s.mutate(ctx, title, func(current int) (int, bool) {
		if amount < 0 || amount > current {
			return current, false
		}
		return current - amount, true
	})
}

// Increment adds amount to stock unless amount is negative.
func (s *Store) Increment(ctx context.Context, title string, amount int) bool {
	return s.mutate(ctx, title, func(current int) (int, bool) {
		if amount < 0 {
			return current, false
		}
		return current + amount, true
	})
}

// Prepare reserves r.Amount of r.Title for r.OrderID without touching stock.
// Stock already held by other orders' reservations is not available.
func (s *Store) Prepare(_ context.Context, r model.Reservation) (bool, error) {
	unlock := s.locks.Lock(r.Title)
	defer unlock()

	s.resMu.Lock()
	defer s.resMu.Unlock()

	key := reservationKey{orderID: r.OrderID, title: r.Title}
	s.dropLocked(key)
	delete(s.committed, key)

	if r.Amount < 0 {
		return false, nil
	}
	current, _ := s.Read(r.Title)
	if r.Amount > current-s.reserved[r.Title] {
		s.logger.Info("inventory prepare refused",
			slog.String("order_id", r.OrderID),
			slog.String("title", r.Title),
			slog.Int("amount", r.Amount),
			slog.Int("stock", current),
		)
		return false, nil
	}
	s.reservations[key] = r.Amount
	s.reserved[r.Title] += r.Amount
	return true, nil
}

// Commit applies the reservation held for orderID and title. It returns false
// when nothing was prepared. Committing an applied reservation again changes
// nothing and returns true, so a retry after a lost reply is safe.
func (s *Store) Commit(ctx context.Context, orderID, title string) (bool, error) {
	unlock := s.locks.Lock(title)

	s.resMu.Lock()
	key := reservationKey{orderID: orderID, title: title}
	amount, ok := s.reservations[key]
	_, done := s.committed[key]
	s.dropLocked(key)
	s.resMu.Unlock()

	if !ok {
		unlock()
		return done, nil
	}

	current, _ := s.Read(title)
	if amount > current {
		unlock()
		s.logger.Warn("reserved stock vanished before commit",
			slog.String("order_id", orderID),
			slog.String("title", title),
			slog.Int("amount", amount),
			slog.Int("stock", current),
		)
		return false, nil
	}
	next := current - amount
	s.set(title, next)
	s.resMu.Lock()
	s.committed[key] = struct{}{}
	s.resMu.Unlock()
	unlock()

	s.replicate(ctx, title, next)
	return true, nil
}

// Abort drops the reservation for orderID and title, or every reservation of
// the order when title is empty.
func (s *Store) Abort(_ context.Context, orderID, title string) error {
	s.resMu.Lock()
	defer s.resMu.Unlock()
	if title != "" {
		s.dropLocked(reservationKey{orderID: orderID, title: title})
		return nil
	}
	for key := range s.reservations {
		if key.orderID == orderID {
			s.dropLocked(key)
		}
	}
	return nil
}

// Reserved returns the amount held for title by outstanding reservations.
func (s *Store) Reserved(title string) int {
	s.resMu.Lock()
	defer s.resMu.Unlock()
	return s.reserved[title]
}

func (s *Store) dropLocked(key reservationKey) {
	amount, ok := s.reservations[key]
	if !ok {
		return
	}
	delete(s.reservations, key)
	if left := s.reserved[key.title] - amount; left > 0 {
		s.reserved[key.title] = left
	} else {
		delete(s.reserved, key.title)
	}
}

// mutate runs fn under the title lock and replicates the new value after the
// lock is released.
func (s *Store) mutate(ctx context.Context, title string, fn func(current int) (int, bool)) bool {
	unlock := s.locks.Lock(title)
	current, _ := s.Read(title)
	next, ok := fn(current)
	if ok {
		s.set(title, next)
	}
	unlock()

	if ok {
		s.replicate(ctx, title, next)
	}
	return ok
}

func (s *Store) set(title string, qty int) {
	s.mu.Lock()
	s.stock[title] = qty
	s.mu.Unlock()
}

func (s *Store) replicate(ctx context.Context, title string, stock int) {
	if s.replicator == nil {
		return
	}
	s.replicator.Replicate(ctx, title, stock)
}

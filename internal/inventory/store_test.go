package inventory

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	testhelpers "github.com/vusallyv/ds-practice-2025/internal/test"
)

func newTestStore(seed map[string]int, backups ...Backup) *Store {
	logger := testhelpers.DiscardLogger()
	var replicator *Replicator
	if len(backups) > 0 {
		replicator = NewReplicator(backups, 100*time.Millisecond, logger)
	}
	return NewStore(seed, replicator, logger)
}

func TestNewStoreSkipsNegativeSeed(t *testing.T) {
	store := newTestStore(map[string]int{"a": 1, "b": -1})
	if _, ok := store.Read("b"); ok {
		t.Fatal("negative seed must be skipped")
	}
	if qty, ok := store.Read("a"); !ok || qty != 1 {
		t.Fatalf("unexpected stock %d %v", qty, ok)
	}
	if store.Name() != "inventory" {
		t.Fatalf("unexpected name %q", store.Name())
	}
	if store.Primary() {
		t.Fatal("store without backups is not a primary")
	}
}

func TestDecrementIncrementWrite(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		op     func(s *Store) bool
		wantOK bool
		want   int
	}{
		{"decrement within stock", func(s *Store) bool { return s.Decrement(ctx, "x", 3) }, true, 2},
		{"decrement exact stock", func(s *Store) bool { return s.Decrement(ctx, "x", 5) }, true, 0},
		{"decrement beyond stock", func(s *Store) bool { return s.Decrement(ctx, "x", 6) }, false, 5},
		{"decrement negative", func(s *Store) bool { return s.Decrement(ctx, "x", -1) }, false, 5},
		{"increment", func(s *Store) bool { return s.Increment(ctx, "x", 4) }, true, 9},
		{"increment negative", func(s *Store) bool { return s.Increment(ctx, "x", -4) }, false, 5},
		{"write", func(s *Store) bool { return s.Write(ctx, "x", 42) }, true, 42},
		{"write negative", func(s *Store) bool { return s.Write(ctx, "x", -2) }, false, 5},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newTestStore(map[string]int{"x": 5})
			if ok := tc.op(store); ok != tc.wantOK {
				t.Fatalf("expected ok=%v, got %v", tc.wantOK, ok)
			}
			if qty, _ := store.Read("x"); qty != tc.want {
				t.Fatalf("expected stock %d, got %d", tc.want, qty)
			}
		})
	}
}

func TestDecrementUnknownTitle(t *testing.T) {
	store := newTestStore(nil)
	if store.Decrement(context.Background(), "missing", 1) {
		t.Fatal("expected decrement of unknown title to fail")
	}
	if !store.Increment(context.Background(), "missing", 2) {
		t.Fatal("expected increment to create title")
	}
	if qty, _ := store.Read("missing"); qty != 2 {
		t.Fatalf("expected 2, got %d", qty)
	}
}

func TestStockNeverNegativeUnderConcurrency(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(map[string]int{"a": 50, "b": 50})
	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for j := 0; j < 50; j++ {
				title := []string{"a", "b"}[rng.Intn(2)]
				amount := rng.Intn(7)
				switch rng.Intn(4) {
				case 0:
					store.Increment(ctx, title, amount)
				case 1:
					r := model.Reservation{OrderID: "o", Title: title, Amount: amount}
					if ok, _ := store.Prepare(ctx, r); ok {
						_, _ = store.Commit(ctx, r.OrderID, title)
					}
				default:
					store.Decrement(ctx, title, amount)
				}
				if qty, _ := store.Read(title); qty < 0 {
					t.Errorf("stock for %s went negative: %d", title, qty)
				}
			}
		}(int64(i))
	}
	wg.Wait()
	for title, qty := range store.Snapshot() {
		if qty < 0 {
			t.Fatalf("stock for %s negative: %d", title, qty)
		}
	}
}

func TestPrepareCommitAbort(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(map[string]int{"Title X": 10})

	ok, err := store.Prepare(ctx, model.Reservation{OrderID: "1", Title: "Title X", Amount: 4})
	if err != nil || !ok {
		t.Fatalf("expected prepare to succeed, got %v %v", ok, err)
	}
	if qty, _ := store.Read("Title X"); qty != 10 {
		t.Fatalf("prepare must not mutate stock, got %d", qty)
	}
	if store.Reserved("Title X") != 4 {
		t.Fatalf("expected 4 reserved, got %d", store.Reserved("Title X"))
	}

	ok, _ = store.Prepare(ctx, model.Reservation{OrderID: "2", Title: "Title X", Amount: 7})
	if ok {
		t.Fatal("expected prepare to refuse stock held by another reservation")
	}

	ok, _ = store.Commit(ctx, "1", "Title X")
	if !ok {
		t.Fatal("expected commit to apply reservation")
	}
	if qty, _ := store.Read("Title X"); qty != 6 {
		t.Fatalf("expected stock 6 after commit, got %d", qty)
	}

	ok, _ = store.Commit(ctx, "1", "Title X")
	if !ok {
		t.Fatal("repeated commit of an applied reservation must report success")
	}
	if qty, _ := store.Read("Title X"); qty != 6 {
		t.Fatalf("second commit must not change stock, got %d", qty)
	}

	ok, _ = store.Prepare(ctx, model.Reservation{OrderID: "3", Title: "Title X", Amount: 2})
	if !ok {
		t.Fatal("expected prepare to succeed")
	}
	if err := store.Abort(ctx, "3", "Title X"); err != nil {
		t.Fatalf("abort returned error: %v", err)
	}
	if err := store.Abort(ctx, "3", "Title X"); err != nil {
		t.Fatalf("second abort returned error: %v", err)
	}
	if ok, _ := store.Commit(ctx, "3", "Title X"); ok {
		t.Fatal("commit after abort must be a no-op")
	}
	if ok, _ := store.Commit(ctx, "never", "Title X"); ok {
		t.Fatal("commit without prepare must report no reservation")
	}
	if qty, _ := store.Read("Title X"); qty != 6 || store.Reserved("Title X") != 0 {
		t.Fatalf("abort must leave stock untouched, got %d reserved %d", qty, store.Reserved("Title X"))
	}
}

func TestPrepareInsufficientStock(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(map[string]int{"Title X": 2})
	ok, err := store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "Title X", Amount: 5})
	if err != nil || ok {
		t.Fatalf("expected not ready, got %v %v", ok, err)
	}
	if ok, _ := store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "Title X", Amount: -1}); ok {
		t.Fatal("expected negative amount to be refused")
	}
	if qty, _ := store.Read("Title X"); qty != 2 {
		t.Fatalf("expected stock unchanged, got %d", qty)
	}
}

func TestPrepareReplacesReservation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(map[string]int{"t": 5})
	_, _ = store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "t", Amount: 5})
	ok, _ := store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "t", Amount: 3})
	if !ok {
		t.Fatal("re-prepare of the same order must not count its own reservation")
	}
	if store.Reserved("t") != 3 {
		t.Fatalf("expected single outstanding reservation of 3, got %d", store.Reserved("t"))
	}
}

func TestAbortWholeOrder(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(map[string]int{"a": 5, "b": 5})
	_, _ = store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "a", Amount: 1})
	_, _ = store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "b", Amount: 2})
	_, _ = store.Prepare(ctx, model.Reservation{OrderID: "other", Title: "b", Amount: 1})

	_ = store.Abort(ctx, "o", "")
	if store.Reserved("a") != 0 || store.Reserved("b") != 1 {
		t.Fatalf("unexpected reservations a=%d b=%d", store.Reserved("a"), store.Reserved("b"))
	}
}

func TestPrimaryReplicatesMutations(t *testing.T) {
	ctx := context.Background()
	healthy := &testhelpers.BackupStub{NameVal: "b1"}
	broken := &testhelpers.BackupStub{NameVal: "b2", Err: errors.New("down")}
	store := newTestStore(map[string]int{"t": 10}, healthy, broken)
	if !store.Primary() {
		t.Fatal("expected primary store")
	}

	if !store.Decrement(ctx, "t", 3) {
		t.Fatal("decrement must succeed even when a backup fails")
	}
	_, _ = store.Prepare(ctx, model.Reservation{OrderID: "o", Title: "t", Amount: 2})
	if ok, _ := store.Commit(ctx, "o", "t"); !ok {
		t.Fatal("commit must succeed")
	}
	store.Decrement(ctx, "t", 100)

	writes := healthy.Writes()
	if len(writes) != 2 || writes[0].Stock != 7 || writes[1].Stock != 5 {
		t.Fatalf("unexpected replicated writes %+v", writes)
	}
	health := store.Replication()
	if health.Sent != 4 || health.Failed != 2 || health.LastError != "down" {
		t.Fatalf("unexpected health %+v", health)
	}
}

func TestStandaloneReplicationHealthIsZero(t *testing.T) {
	store := newTestStore(map[string]int{"t": 1})
	store.Decrement(context.Background(), "t", 1)
	if h := store.Replication(); h.Sent != 0 || h.Failed != 0 {
		t.Fatalf("expected zero health, got %+v", h)
	}
}

package inventory

import (
	"context"
	"testing"
	"time"

	testhelpers "github.com/vusallyv/ds-practice-2025/internal/test"
)

func TestReplicatorTimesOutSlowBackup(t *testing.T) {
	slow := &testhelpers.BackupStub{NameVal: "slow", Delay: time.Second}
	fast := &testhelpers.BackupStub{NameVal: "fast"}
	r := NewReplicator([]Backup{slow, fast}, 20*time.Millisecond, testhelpers.DiscardLogger())

	start := time.Now()
	results := r.Replicate(context.Background(), "t", 3)
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Fatalf("replication blocked for %v", elapsed)
	}
	if len(results) != 2 {
		t.Fatalf("expected one result per backup, got %d", len(results))
	}
	if results[0].Backup != "slow" || results[0].OK() {
		t.Fatalf("expected slow backup to fail, got %+v", results[0])
	}
	if results[1].Backup != "fast" || !results[1].OK() || results[1].Stock != 3 {
		t.Fatalf("expected fast backup to succeed, got %+v", results[1])
	}
	if h := r.Health(); h.Sent != 2 || h.Failed != 1 || h.LastFailure.IsZero() {
		t.Fatalf("unexpected health %+v", h)
	}
}

func TestReplicatorIgnoresCallerCancellation(t *testing.T) {
	backup := &testhelpers.BackupStub{}
	r := NewReplicator([]Backup{backup}, 0, testhelpers.DiscardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := r.Replicate(ctx, "t", 1)
	if len(results) != 1 || !results[0].OK() {
		t.Fatalf("expected write to proceed after caller cancellation, got %+v", results)
	}
	if r.timeout != time.Second {
		t.Fatalf("expected default timeout, got %v", r.timeout)
	}
}

func TestReplicatorWithoutBackups(t *testing.T) {
	r := NewReplicator(nil, time.Second, testhelpers.DiscardLogger())
	if results := r.Replicate(context.Background(), "t", 1); results != nil {
		t.Fatalf("expected no results, got %+v", results)
	}
}

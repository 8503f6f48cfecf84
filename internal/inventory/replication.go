package inventory

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Backup is a replica that accepts absolute stock writes from the primary.
type Backup interface {
	Name() string
	Write(ctx context.Context, title string, stock int) error
}

// ReplicationResult is the outcome of one backup write.
type ReplicationResult struct {
	Backup  string
	Title   string
	Stock   int
	Err     error
	Latency time.Duration
}

// OK reports whether the backup acknowledged the write.
func (r ReplicationResult) OK() bool { return r.Err == nil }

// Health aggregates replication outcomes since start.
type Health struct {
	Sent        uint64    `json:"sent"`
	Failed      uint64    `json:"failed"`
	LastError   string    `json:"lastError,omitempty"`
	LastFailure time.Time `json:"lastFailure,omitempty"`
}

// Replicator pushes stock values to every backup. Failures are recorded and
// logged but never reported to the mutating caller.
type Replicator struct {
	backups []Backup
	timeout time.Duration
	logger  *slog.Logger

	sent   atomic.Uint64
	failed atomic.Uint64

	mu          sync.Mutex
	lastError   string
	lastFailure time.Time
}

// NewReplicator creates a replicator with a per-backup write timeout.
func NewReplicator(backups []Backup, timeout time.Duration, logger *slog.Logger) *Replicator {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Replicator{backups: backups, timeout: timeout, logger: logger}
}

// Backups returns the number of configured backups.
func (r *Replicator) Backups() int { return len(r.backups) }

// Replicate writes stock for title to all backups concurrently and waits for
// every write to finish or time out.
func (r *Replicator) Replicate(ctx context.Context, title string, stock int) []ReplicationResult {
	if len(r.backups) == 0 {
		return nil
	}
	base := context.WithoutCancel(ctx)
	results := make([]ReplicationResult, len(r.backups))

	var wg sync.WaitGroup
	for i, b := range r.backups {
		wg.Add(1)
		go func(i int, b Backup) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(base, r.timeout)
			defer cancel()
			start := time.Now()
			err := b.Write(callCtx, title, stock)
			results[i] = ReplicationResult{Backup: b.Name(), Title: title, Stock: stock, Err: err, Latency: time.Since(start)}
		}(i, b)
	}
	wg.Wait()

	for _, res := range results {
		r.sent.Add(1)
		if res.OK() {
			continue
		}
		r.failed.Add(1)
		r.mu.Lock()
		r.lastError = res.Err.Error()
		r.lastFailure = time.Now()
		r.mu.Unlock()
		r.logger.Warn("backup replication failed",
			slog.String("backup", res.Backup),
			slog.String("title", title),
			slog.Int("stock", stock),
			slog.String("error", res.Err.Error()),
		)
	}
	return results
}

// Health returns a snapshot of the replication counters.
func (r *Replicator) Health() Health {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Health{
		Sent:        r.sent.Load(),
		Failed:      r.failed.Load(),
		LastError:   r.lastError,
		LastFailure: r.lastFailure,
	}
}

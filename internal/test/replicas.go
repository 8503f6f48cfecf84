package test

import (
	"context"
	"sync"
	"time"
)

// BackupWrite records one replicated stock value.
type BackupWrite struct {
	Title string
	Stock int
}

// BackupStub records writes pushed by an inventory primary.
type BackupStub struct {
	NameVal string
	Err     error
	Delay   time.Duration

	mu     sync.Mutex
	writes []BackupWrite
}

// Name returns configured backup name.
func (b *BackupStub) Name() string {
	if b.NameVal != "" {
		return b.NameVal
	}
	return "backup"
}

// Write stores the value unless the stub is configured to fail or stall.
func (b *BackupStub) Write(ctx context.Context, title string, stock int) error {
	if b.Delay > 0 {
		select {
		case <-time.After(b.Delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if b.Err != nil {
		return b.Err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.writes = append(b.writes, BackupWrite{Title: title, Stock: stock})
	return nil
}

// Writes returns a copy of recorded writes.
func (b *BackupStub) Writes() []BackupWrite {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]BackupWrite(nil), b.writes...)
}

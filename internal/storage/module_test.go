package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/domain/model"
	"github.com/vusallyv/ds-practice-2025/internal/storage/memory"
	"github.com/vusallyv/ds-practice-2025/internal/storage/redis"
	testhelpers "github.com/vusallyv/ds-practice-2025/internal/test"
)

func params(cfg *config.Config, lc *testhelpers.LifecycleRecorder) resultParams {
	return resultParams{Ctx: context.Background(), Lifecycle: lc, Config: cfg, Logger: testhelpers.DiscardLogger()}
}

func TestNewResultRepositoryMemory(t *testing.T) {
	lc := &testhelpers.LifecycleRecorder{}
	repo, err := newResultRepository(params(&config.Config{ResultStore: config.StoreMemory, ResultTTL: time.Second}, lc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.(*memory.ResultStore); !ok {
		t.Fatalf("expected memory store, got %T", repo)
	}
	if len(lc.Hooks) != 0 {
		t.Fatalf("memory store needs no hooks")
	}
}

func TestNewResultRepositoryRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	lc := &testhelpers.LifecycleRecorder{}
	repo, err := newResultRepository(params(&config.Config{ResultStore: config.StoreRedis, RedisURL: "redis://" + mr.Addr(), ResultTTL: time.Minute}, lc))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := repo.(*redis.ResultStore); !ok {
		t.Fatalf("expected redis store, got %T", repo)
	}
	if len(lc.Hooks) != 1 {
		t.Fatalf("expected lifecycle hook, got %d", len(lc.Hooks))
	}
	if err := lc.Hooks[0].OnStart(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := repo.Save(context.Background(), model.OrderResult{OrderID: "o1"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("result:o1") {
		t.Fatal("expected key in redis")
	}
	if err := lc.Hooks[0].OnStop(context.Background()); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestNewResultRepositoryErrors(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.Config
	}{
		{name: "unknown", cfg: &config.Config{ResultStore: "etcd"}},
		{name: "bad redis url", cfg: &config.Config{ResultStore: config.StoreRedis, RedisURL: "http://x"}},
		{name: "bad postgres dsn", cfg: &config.Config{ResultStore: config.StorePostgres, DatabaseURI: ":://bad"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := newResultRepository(params(tt.cfg, &testhelpers.LifecycleRecorder{})); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

// Package storage selects the order result backend.
package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/domain/repository"
	"github.com/vusallyv/ds-practice-2025/internal/storage/memory"
	"github.com/vusallyv/ds-practice-2025/internal/storage/postgres"
	"github.com/vusallyv/ds-practice-2025/internal/storage/redis"
)

// Module provides repository.ResultRepository for the configured backend.
var Module = fx.Provide(newResultRepository)

type resultParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newResultRepository(p resultParams) (repository.ResultRepository, error) {
	switch p.Config.ResultStore {
	case config.StoreMemory, "":
		return memory.NewResultStore(p.Config.ResultTTL), nil
	case config.StorePostgres:
		st, err := postgres.New(p.Ctx, p.Config.DatabaseURI, p.Config.ResultTTL, p.Logger)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if n, err := st.PurgeExpired(ctx); err == nil && n > 0 {
					p.Logger.Info("purged expired results", slog.Int64("count", n))
				}
				st.Close()
				return nil
			},
		})
		return st.Results(), nil
	case config.StoreRedis:
		st, err := redis.NewResultStore(p.Config.RedisURL, p.Config.ResultTTL)
		if err != nil {
			return nil, err
		}
		p.Lifecycle.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := st.Ping(ctx); err != nil {
					return fmt.Errorf("redis ping: %w", err)
				}
				return nil
			},
			OnStop: func(context.Context) error {
				return st.Close()
			},
		})
		return st, nil
	default:
		return nil, fmt.Errorf("unknown result store %q", p.Config.ResultStore)
	}
}

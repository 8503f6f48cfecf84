package auth

import (
	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/config"
)

// Module provides card fingerprinting and cluster token signing via fx.
var Module = fx.Options(
	fx.Provide(newCardHasher),
	fx.Provide(newTokenStrategy),
)

func newCardHasher() CardHasher {
	return NewBcryptCardHasher(0)
}

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) TokenStrategy {
	return NewHMACStrategy(p.Config.ClusterSecret, Options{})
}

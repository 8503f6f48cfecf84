package oracle

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/vusallyv/ds-practice-2025/internal/config"
	"github.com/vusallyv/ds-practice-2025/internal/verification"
)

// Module exposes oracle clients to the fx graph.
var Module = fx.Provide(newFraudOracle, newRecommendationOracle)

type oracleParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newFraudOracle(p oracleParams) (verification.FraudOracle, error) {
	if p.Config.FraudOracleURL == "" {
		return Disabled{}, nil
	}
	return NewFraudClient(p.Config.FraudOracleURL, p.Logger)
}

func newRecommendationOracle(p oracleParams) (verification.RecommendationOracle, error) {
	if p.Config.RecommendationOracleURL == "" {
		return Disabled{}, nil
	}
	return NewRecommendationClient(p.Config.RecommendationOracleURL, p.Logger)
}

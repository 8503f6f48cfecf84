package usecase

import "go.uber.org/fx"

// Module provides order ingestion use cases to the fx container.
var Module = fx.Provide(
	NewCheckoutUseCase,
)

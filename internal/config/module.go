package config

import "go.uber.org/fx"

// Module exposes node configuration to fx graphs.
var Module = fx.Provide(Load)

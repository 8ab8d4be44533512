package tariff

import "go.uber.org/fx"

var Module = fx.Module("tariff",
	fx.Provide(NewTranslator),
)

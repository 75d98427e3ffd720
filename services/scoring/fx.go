package scoring

import "go.uber.org/fx"

var Module = fx.Module("scoring.module",
	fx.Provide(
		func() Scorer { return NewJerkHeuristic() },
	),
)

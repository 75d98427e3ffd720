package check

import "go.uber.org/fx"

var Module = fx.Module("check.module",
	fx.Provide(NewService),
)

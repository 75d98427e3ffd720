package server

import "go.uber.org/fx"

var Module = fx.Module("server.module",
	fx.Provide(NewService),
)

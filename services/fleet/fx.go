package fleet

import "go.uber.org/fx"

var Module = fx.Module("fleet.module",
	fx.Provide(NewService),
)

// ServerModule additionally mounts the HTTP routes.
var ServerModule = fx.Module("fleet.server",
	Module,
	fx.Invoke(RegisterRoutes),
)

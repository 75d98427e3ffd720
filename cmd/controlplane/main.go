package main

import (
	"log"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"mlshield-controlplane/pkg/config"
	"mlshield-controlplane/pkg/db"
	"mlshield-controlplane/pkg/health"
	"mlshield-controlplane/pkg/httpapi"
	"mlshield-controlplane/pkg/logger"
	"mlshield-controlplane/pkg/server"
	"mlshield-controlplane/services/bootstrap"
	"mlshield-controlplane/services/check"
	"mlshield-controlplane/services/fleet"
	"mlshield-controlplane/services/scoring"
	svcserver "mlshield-controlplane/services/server"
)

func main() {
	opts := []fx.Option{
		config.Module,
		logger.Module,
		db.Module,
		fx.Provide(
			provideSnowflakeNode,
		),
		health.Module,
		httpapi.Module,
		scoring.Module,
		svcserver.Module,
		check.Module,
		fleet.ServerModule,
		bootstrap.Module,
		server.ProvideHTTPServer,
		fxLogger,
	}

	if err := fx.ValidateApp(opts...); err != nil {
		log.Fatalf("fx validation failed: %v", err)
	}

	app := fx.New(opts...)

	app.Run()
}

var fxLogger = fx.WithLogger(func(cfg *config.Config, logger *zap.Logger) fxevent.Logger {
	return fxevent.NopLogger
})

func provideSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

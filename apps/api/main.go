package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/railzwaylabs/audittrail/internal/artifact"
	"github.com/railzwaylabs/audittrail/internal/clock"
	"github.com/railzwaylabs/audittrail/internal/config"
	"github.com/railzwaylabs/audittrail/internal/eventlog"
	"github.com/railzwaylabs/audittrail/internal/export"
	"github.com/railzwaylabs/audittrail/internal/notify"
	"github.com/railzwaylabs/audittrail/internal/observability"
	"github.com/railzwaylabs/audittrail/internal/redis"
	"github.com/railzwaylabs/audittrail/internal/schedule"
	"github.com/railzwaylabs/audittrail/internal/server"
	"github.com/railzwaylabs/audittrail/internal/worker"
	"github.com/railzwaylabs/audittrail/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		redis.Module,
		clock.Module,
		worker.Module,

		eventlog.Module,
		artifact.Module,
		notify.Module,
		export.Module,
		schedule.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

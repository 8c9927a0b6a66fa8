package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/etabridge/internal/clock"
	"github.com/smallbiznis/etabridge/internal/config"
	"github.com/smallbiznis/etabridge/internal/connector"
	"github.com/smallbiznis/etabridge/internal/document"
	"github.com/smallbiznis/etabridge/internal/eta/client"
	"github.com/smallbiznis/etabridge/internal/etalog"
	"github.com/smallbiznis/etabridge/internal/migration"
	"github.com/smallbiznis/etabridge/internal/observability"
	"github.com/smallbiznis/etabridge/internal/ratelimit"
	"github.com/smallbiznis/etabridge/internal/record"
	"github.com/smallbiznis/etabridge/internal/scheduler"
	"github.com/smallbiznis/etabridge/internal/server"
	"github.com/smallbiznis/etabridge/pkg/db"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		ratelimit.Module,
		client.Module,

		// Functional Domains
		connector.Module,
		record.Module,
		etalog.Module,
		document.Module,

		// HTTP API and background jobs; the scheduler only ticks when SCHEDULER_ENABLED is set
		scheduler.Module,
		server.Module,
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

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
	"github.com/smallbiznis/etabridge/internal/observability"
	"github.com/smallbiznis/etabridge/internal/ratelimit"
	"github.com/smallbiznis/etabridge/internal/record"
	"github.com/smallbiznis/etabridge/internal/server"
	"github.com/smallbiznis/etabridge/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Core dependencies for the ERP and signer API
		ratelimit.Module,
		client.Module,
		connector.Module,
		record.Module,
		etalog.Module,
		document.Module,

		// No scheduler: a separate worker runs the background jobs.
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

package main

import (
	"context"

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
	"github.com/smallbiznis/etabridge/internal/scheduler"
	"github.com/smallbiznis/etabridge/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by scheduler
		ratelimit.Module,
		client.Module,
		connector.Module,
		record.Module,
		etalog.Module,
		document.Module,
		fx.Provide(scheduler.ProvideConfig),
		fx.Provide(scheduler.New),

		// No server module!
		fx.Invoke(StartScheduler),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(2)
	if err != nil {
		panic(err)
	}
	return node
}

// StartScheduler always runs the loop; the worker exists for nothing else.
func StartScheduler(lc fx.Lifecycle, s *scheduler.Scheduler) {
	ctx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go s.RunForever(ctx)
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			return nil
		},
	})
}

package connector

import (
	"github.com/smallbiznis/etabridge/internal/connector/repository"
	"github.com/smallbiznis/etabridge/internal/connector/service"
	"go.uber.org/fx"
)

var Module = fx.Module("connector.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

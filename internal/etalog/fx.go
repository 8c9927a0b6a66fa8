package etalog

import (
	"github.com/smallbiznis/etabridge/internal/etalog/repository"
	"github.com/smallbiznis/etabridge/internal/etalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("etalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package record

import (
	"github.com/smallbiznis/etabridge/internal/eta/domain"
	recorddomain "github.com/smallbiznis/etabridge/internal/record/domain"
	"github.com/smallbiznis/etabridge/internal/record/repository"
	"github.com/smallbiznis/etabridge/internal/record/service"
	"go.uber.org/fx"
)

var Module = fx.Module("record.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(svc recorddomain.Service) domain.RecordSource { return svc }),
)

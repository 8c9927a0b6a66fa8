package document

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/etabridge/internal/document/domain"
	"github.com/smallbiznis/etabridge/internal/document/service"
	"github.com/smallbiznis/etabridge/internal/eta/client"
)

var Module = fx.Module("document.service",
	fx.Provide(func(c *client.Client) domain.Authority { return c }),
	fx.Provide(service.New),
)

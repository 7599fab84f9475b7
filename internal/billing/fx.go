package billing

import (
	"github.com/openstay/rentledger/internal/billing/repository"
	"github.com/openstay/rentledger/internal/billing/service"
	"go.uber.org/fx"
)

var Module = fx.Module("billing.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package metering

import (
	"github.com/openstay/rentledger/internal/metering/repository"
	"github.com/openstay/rentledger/internal/metering/service"
	"go.uber.org/fx"
)

var Module = fx.Module("metering.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

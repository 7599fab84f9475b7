package settings

import (
	"github.com/openstay/rentledger/internal/settings/repository"
	"github.com/openstay/rentledger/internal/settings/service"
	"go.uber.org/fx"
)

var Module = fx.Module("settings.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

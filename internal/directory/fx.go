package directory

import (
	directorydomain "github.com/openstay/rentledger/internal/directory/domain"
	"github.com/openstay/rentledger/internal/directory/repository"
	"github.com/openstay/rentledger/internal/directory/service"
	genericrepo "github.com/openstay/rentledger/pkg/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("directory.service",
	fx.Provide(repository.Provide),
	fx.Provide(genericrepo.ProvideStore[directorydomain.Room]),
	fx.Provide(genericrepo.ProvideStore[directorydomain.Tenant]),
	fx.Provide(service.New),
)

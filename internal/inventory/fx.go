package inventory

import (
	accountdomain "github.com/voltixaudit/voltix/internal/account/domain"
	"github.com/voltixaudit/voltix/internal/inventory/domain"
	"github.com/voltixaudit/voltix/internal/inventory/repository"
	"github.com/voltixaudit/voltix/internal/inventory/service"
	"go.uber.org/fx"
)

var Module = fx.Module("inventory.service",
	fx.Provide(repository.Provide),
	fx.Provide(func(accounts accountdomain.Service) domain.ProjectLimiter { return accounts }),
	fx.Provide(service.New),
)

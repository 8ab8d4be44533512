package completeness

import (
	"github.com/voltixaudit/voltix/internal/completeness/domain"
	"github.com/voltixaudit/voltix/internal/completeness/repository"
	"github.com/voltixaudit/voltix/internal/completeness/service"
	invdomain "github.com/voltixaudit/voltix/internal/inventory/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("completeness.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
	fx.Provide(func(s *service.Service) domain.Service { return s }),
	fx.Provide(func(s *service.Service) invdomain.ChangeListener { return s }),
)

package recommendation

import (
	"github.com/voltixaudit/voltix/internal/recommendation/repository"
	"github.com/voltixaudit/voltix/internal/recommendation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recommendation.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

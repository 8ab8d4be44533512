package energyaudit

import (
	"github.com/voltixaudit/voltix/internal/energyaudit/repository"
	"github.com/voltixaudit/voltix/internal/energyaudit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("energyaudit.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

package account

import (
	"github.com/voltixaudit/voltix/internal/account/repository"
	"github.com/voltixaudit/voltix/internal/account/service"
	"github.com/voltixaudit/voltix/internal/account/token"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(token.NewIssuer),
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)

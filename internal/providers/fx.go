package providers

import (
	"github.com/voltixaudit/voltix/internal/config"
	"github.com/voltixaudit/voltix/internal/providers/email"
	"github.com/voltixaudit/voltix/internal/providers/pdf"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("providers",
	email.Module,
	fx.Provide(func(cfg config.Config, log *zap.Logger) pdf.Provider {
		return pdf.NewWithLogo(cfg.Report.LogoPath, log)
	}),
)

package migration

import (
	"github.com/voltixaudit/voltix/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
		log = log.Named("migrations")
		if !cfg.MigrateOnStart {
			log.Info("migrations disabled")
			return nil
		}
		if cfg.DBType != "postgres" {
			log.Warn("migrations skipped", zap.String("db_type", cfg.DBType))
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}

		version, dirty, err := Version(sqlDB)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	}),
)

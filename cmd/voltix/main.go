package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/voltixaudit/voltix/internal/account"
	"github.com/voltixaudit/voltix/internal/clock"
	"github.com/voltixaudit/voltix/internal/completeness"
	"github.com/voltixaudit/voltix/internal/config"
	"github.com/voltixaudit/voltix/internal/energyaudit"
	"github.com/voltixaudit/voltix/internal/events"
	"github.com/voltixaudit/voltix/internal/inventory"
	"github.com/voltixaudit/voltix/internal/lock"
	"github.com/voltixaudit/voltix/internal/migration"
	"github.com/voltixaudit/voltix/internal/observability"
	"github.com/voltixaudit/voltix/internal/providers"
	"github.com/voltixaudit/voltix/internal/ratelimit"
	"github.com/voltixaudit/voltix/internal/recommendation"
	"github.com/voltixaudit/voltix/internal/report"
	"github.com/voltixaudit/voltix/internal/scheduler"
	"github.com/voltixaudit/voltix/internal/server"
	"github.com/voltixaudit/voltix/internal/tariff"
	"github.com/voltixaudit/voltix/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,
		lock.Module,
		events.Module,
		ratelimit.Module,
		providers.Module,

		// Domains
		tariff.Module,
		account.Module,
		inventory.Module,
		completeness.Module,
		recommendation.Module,
		energyaudit.Module,
		report.Module,
		scheduler.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

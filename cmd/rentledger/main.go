package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/openstay/rentledger/internal/clock"
	"github.com/openstay/rentledger/internal/config"
	"github.com/openstay/rentledger/internal/migration"
	"github.com/openstay/rentledger/internal/observability"
	"github.com/openstay/rentledger/internal/scheduler"
	"github.com/openstay/rentledger/internal/server"
	"github.com/openstay/rentledger/internal/tenantlock"
	"github.com/openstay/rentledger/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		tenantlock.Module,
		migration.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.SnowflakeNode)
}

package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/geodesk/atlasfx/internal/clock"
	"github.com/geodesk/atlasfx/internal/config"
	"github.com/geodesk/atlasfx/internal/migration"
	"github.com/geodesk/atlasfx/internal/observability"
	"github.com/geodesk/atlasfx/internal/server"
	"github.com/geodesk/atlasfx/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
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

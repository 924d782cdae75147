package main

import (
	"context"
	"fmt"

	"fundacion/internal/db"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:      "migrate",
	Usage:     "Run database migrations (up, down, status, redo, version)",
	ArgsUsage: "[command] [args...]",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		command := "up"
		if c.Args().Present() {
			command = c.Args().First()
		}

		ctx := context.Background()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.WithField("command", command).Info("running migrations")
		return db.Migrate(ctx, pool, command, c.Args().Tail()...)
	},
}

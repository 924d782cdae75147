package main

import (
	"context"
	"fmt"

	"fundacion/internal/db"
	"fundacion/internal/seed"
	"fundacion/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Seed the database with headquarters, users, projects and sample beneficiaries",
	Flags: []cli.Flag{
		&cli.IntFlag{
			Name:  "beneficiaries",
			Usage: "Number of fake beneficiaries to create",
			Value: 24,
		},
		&cli.BoolFlag{
			Name:  "reset",
			Usage: "Remove previously seeded beneficiaries and donations first",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx := context.Background()

		// Connect to database
		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		logrus.Info("Connected to database")

		logrus.Info("Seeding headquarters...")
		if err := seed.SeedHeadquarters(ctx, store.NewHeadquarterRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed headquarters: %w", err)
		}

		logrus.Info("Seeding users...")
		if err := seed.SeedFakeUsers(ctx, store.NewUserRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed users: %w", err)
		}

		logrus.Info("Seeding projects...")
		if err := seed.SeedProjects(ctx, store.NewProjectRepository(pool)); err != nil {
			return fmt.Errorf("failed to seed projects: %w", err)
		}

		logrus.Info("Seeding beneficiaries...")
		repos := seed.Repositories{
			Beneficiaries: store.NewBeneficiaryRepository(pool),
			Evaluations:   store.NewEvaluationRepository(pool),
			Members:       store.NewProjectBeneficiaryRepository(pool),
			Donations:     store.NewDonationRepository(pool),
		}
		if err := seed.SeedFakeBeneficiaries(ctx, pool, repos, c.Int("beneficiaries"), c.Bool("reset"), nil); err != nil {
			return fmt.Errorf("failed to seed beneficiaries: %w", err)
		}

		logrus.Info("Seed complete")

		return nil
	},
}

package main

import (
	"context"
	"fmt"
	"time"

	"fundacion/internal/db"
	"fundacion/internal/stats"
	"fundacion/internal/store"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var statsCommand = &cli.Command{
	Name:      "stats",
	Usage:     "Print the donation statistics for a user",
	ArgsUsage: "<user-id>",
	Action: func(c *cli.Context) error {
		userID := c.Args().First()
		if userID == "" {
			return fmt.Errorf("user id is required")
		}

		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		pool, err := db.Connect(ctx, cfg)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()

		donationRepo := store.NewDonationRepository(pool)
		memberRepo := store.NewProjectBeneficiaryRepository(pool)

		rows, err := donationRepo.DonationsByUser(ctx, userID)
		if err != nil {
			return err
		}

		start := time.Now()
		result, err := stats.NewAggregator(donationRepo, memberRepo).ComputeRows(ctx, rows)
		if err != nil {
			return err
		}

		logrus.WithFields(logrus.Fields{
			"user_id":   userID,
			"donations": len(rows),
			"elapsed":   time.Since(start).String(),
		}).Info("donation stats computed")

		_, err = pp.Println(result)
		return err
	},
}

package main

import (
	"context"
	"encoding/base64"
	"fmt"

	"fundacion/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/kelseyhightower/envconfig"
	"github.com/urfave/cli/v2"
)

func loadConfig(c *cli.Context) (*types.Config, error) {
	cfg := new(types.Config)
	if err := envconfig.Process(c.String("env-prefix"), cfg); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if cfg.ServerPort == 0 {
		cfg.ServerPort = 8080
	}

	if cfg.ReadTimeoutSec == 0 {
		cfg.ReadTimeoutSec = 10
	}

	if cfg.WriteTimeoutSec == 0 {
		cfg.WriteTimeoutSec = 15
	}

	return cfg, nil
}

// validateServeConfig checks the settings only the HTTP server needs.
func validateServeConfig(cfg *types.Config) error {
	required := map[string]string{
		"COGNITO_CLIENT_ID":     cfg.CognitoClientID,
		"COGNITO_ISSUER_URL":    cfg.CognitoIssuerURL,
		"STRIPE_SECRET_KEY":     cfg.StripeSecretKey,
		"STRIPE_WEBHOOK_SECRET": cfg.StripeWebhookSecret,
		"COOKIE_HASH_KEY":       cfg.CookieHashKey,
		"COOKIE_BLOCK_KEY":      cfg.CookieBlockKey,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("set %s", name)
		}
	}

	blockKey, err := base64.StdEncoding.DecodeString(cfg.CookieBlockKey)
	if err != nil {
		return fmt.Errorf("COOKIE_BLOCK_KEY is not valid base64: %w", err)
	}
	switch len(blockKey) {
	case 16, 24, 32:
	default:
		return fmt.Errorf("COOKIE_BLOCK_KEY must decode to 16, 24 or 32 bytes, got %d", len(blockKey))
	}

	return nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}

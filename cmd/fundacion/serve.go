package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fundacion/internal/db"
	"fundacion/internal/metrics"
	"fundacion/internal/payments"
	"fundacion/internal/server"
	"fundacion/internal/storage"
	"fundacion/internal/store"

	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lestrrat-go/httprc/v3"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Start the HTTP server",
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Apply pending migrations before serving",
		},
	},
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig(cCtx)
	if err != nil {
		return err
	}

	if err := validateServeConfig(config); err != nil {
		return err
	}

	awsConfig, err := loadAWSConfig(ctx)
	if err != nil {
		return err
	}

	cognitoClient := cognitoidentityprovider.NewFromConfig(awsConfig)
	s3Client := s3.NewFromConfig(awsConfig)

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	if cCtx.Bool("migrate") {
		if err := db.Migrate(ctx, pool, "up"); err != nil {
			return err
		}
		logger.Info("migrations applied")
	}

	jwkCache, err := jwk.NewCache(ctx, httprc.NewClient())
	if err != nil {
		return fmt.Errorf("failed to initialize jwk cache: %w", err)
	}

	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", config.CognitoIssuerURL)

	err = jwkCache.Register(ctx, jwksURL)
	if err != nil {
		return fmt.Errorf("failed to register cognito jwks with cache: %w", err)
	}

	srv, err := server.New(config, logger, server.Dependencies{
		Users:         store.NewUserRepository(pool),
		Headquarters:  store.NewHeadquarterRepository(pool),
		Beneficiaries: store.NewBeneficiaryRepository(pool),
		Evaluations:   store.NewEvaluationRepository(pool),
		Projects:      store.NewProjectRepository(pool),
		Members:       store.NewProjectBeneficiaryRepository(pool),
		Donations:     store.NewDonationRepository(pool),

		Photos:   storage.NewPhotoStore(s3Client, config.S3BucketName, time.Duration(config.PhotoURLTTLMinutes)*time.Minute),
		Checkout: payments.NewCheckout(config.StripeSecretKey, config.DonationCurrency, config.PublicBaseURL),
		Cognito:  cognitoClient,
		Tokens:   server.NewJWKSVerifier(jwkCache, jwksURL, config.CognitoIssuerURL),
		Metrics:  metrics.New(),
	})
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
